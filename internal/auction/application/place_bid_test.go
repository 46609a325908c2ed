package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/bidstation/engine/internal/auth"
	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestPlaceBidAcceptsAndLeads(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	_, _, lots := env.startLiveAuction(t, domain.KindItem, nil, 1)
	bidder := env.newActor(t, auth.RoleBidder)

	bid, err := env.bid(ctx, bidder, lots[0].ID, 110, "")
	check.Nil(t, err)
	check.Equal(t, domain.BidActive, bid.Status)
	check.Equal(t, bidder.ID, bid.BidderID)

	state, err := env.lotState.Execute(ctx, lots[0].ID)
	check.Nil(t, err)
	check.True(t, state.CurrentPrice.Equal(decimal.NewFromInt(110)))
	check.Equal(t, bidder.ID, *state.CurrentLeaderID)
	check.Equal(t, 1, state.BidCount)

	events := env.publisher.byType(domain.EventBidAccepted)
	check.Equal(t, 1, len(events))
	check.True(t, events[0].Price.Equal(decimal.NewFromInt(110)))
}

func TestPlaceBidOutbidFlipsPreviousLeader(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	_, _, lots := env.startLiveAuction(t, domain.KindItem, nil, 1)
	first := env.newActor(t, auth.RoleBidder)
	second := env.newActor(t, auth.RoleBidder)

	_, err := env.bid(ctx, first, lots[0].ID, 110, "")
	check.Nil(t, err)
	_, err = env.bid(ctx, second, lots[0].ID, 125, "")
	check.Nil(t, err)

	bids, err := env.lotBids.Execute(ctx, lots[0].ID)
	check.Nil(t, err)
	check.Equal(t, 2, len(bids))
	// newest first
	check.Equal(t, domain.BidActive, bids[0].Status)
	check.Equal(t, second.ID, bids[0].BidderID)
	check.Equal(t, domain.BidOutbid, bids[1].Status)
	check.Equal(t, first.ID, bids[1].BidderID)
}

func TestPlaceBidBelowFloorReturnsCurrentPrice(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	_, _, lots := env.startLiveAuction(t, domain.KindItem, nil, 1)
	first := env.newActor(t, auth.RoleBidder)
	second := env.newActor(t, auth.RoleBidder)

	_, err := env.bid(ctx, first, lots[0].ID, 150, "")
	check.Nil(t, err)

	_, err = env.bid(ctx, second, lots[0].ID, 155, "")
	var staleErr *domain.StaleBidError
	check.True(t, errors.As(err, &staleErr))
	check.True(t, staleErr.CurrentPrice.Equal(decimal.NewFromInt(150)))
	check.True(t, staleErr.MinIncrement.Equal(decimal.NewFromInt(10)))

	// the rejected bid left no trace in the ledger
	bids, err := env.lotBids.Execute(ctx, lots[0].ID)
	check.Nil(t, err)
	check.Equal(t, 1, len(bids))
}

func TestPlaceBidValidation(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	_, _, lots := env.startLiveAuction(t, domain.KindItem, nil, 1)
	bidder := env.newActor(t, auth.RoleBidder)

	_, err := env.bid(ctx, bidder, lots[0].ID, -5, "")
	var vErr *domain.ValidationError
	check.True(t, errors.As(err, &vErr))
	check.Equal(t, "amount", vErr.Field)

	_, err = env.placeBid.Execute(ctx, PlaceBidDTO{
		LotID:    lots[0].ID,
		BidderID: uuid.New(), // never registered
		Amount:   decimal.NewFromInt(110),
	})
	check.True(t, errors.Is(err, domain.ErrBidderNotFound))

	_, err = env.bid(ctx, bidder, uuid.New(), 110, "")
	check.True(t, errors.Is(err, domain.ErrLotNotFound))
}

func TestPlaceBidCreatorCannotBidOnOwnAuction(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	creator, _, lots := env.startLiveAuction(t, domain.KindItem, nil, 1)

	_, err := env.bid(ctx, creator, lots[0].ID, 110, "")
	check.True(t, errors.Is(err, domain.ErrNotAuthorized))
}

func TestPlaceBidSportsAuctionRequiresRegisteredTeam(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	teams := []string{"Mumbai", "Chennai"}
	_, _, lots := env.startLiveAuction(t, domain.KindSportsPlayer, teams, 1)
	bidder := env.newActor(t, auth.RoleBidder)

	_, err := env.bid(ctx, bidder, lots[0].ID, 110, "")
	check.True(t, errors.Is(err, domain.ErrNotAuthorized))

	_, err = env.bid(ctx, bidder, lots[0].ID, 110, "Kolkata")
	check.True(t, errors.Is(err, domain.ErrNotAuthorized))

	_, err = env.bid(ctx, bidder, lots[0].ID, 110, "Chennai")
	check.Nil(t, err)
}

func TestPlaceBidRejectedWhenAuctionNotLive(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	_, _, lots := env.newAuctionWithLots(t, domain.KindItem, nil, 1)
	bidder := env.newActor(t, auth.RoleBidder)

	_, err := env.bid(ctx, bidder, lots[0].ID, 110, "")
	var stateErr *domain.InvalidStateError
	check.True(t, errors.As(err, &stateErr))
	check.Equal(t, "auction", stateErr.Entity)
	check.Equal(t, "upcoming", stateErr.State)
}

// Concurrent bidders racing on one lot: every accepted bid must have moved
// the price, exactly one bid ends active, and the final price is the
// maximum accepted amount.
func TestPlaceBidConcurrentRace(t *testing.T) {
	const bidders = 20
	env := newTestEnv(t, bidders+5)
	ctx := context.Background()
	_, _, lots := env.startLiveAuction(t, domain.KindItem, nil, 1)
	lotID := lots[0].ID

	actors := make([]auth.Actor, bidders)
	for i := range actors {
		actors[i] = env.newActor(t, auth.RoleBidder)
	}

	var wg sync.WaitGroup
	accepted := make([]*domain.Bid, bidders)
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			amount := int64(100 + 10*(i+1)) // 110 .. 300
			bid, err := env.bid(ctx, actors[i], lotID, amount, "")
			if err == nil {
				accepted[i] = bid
			}
		}(i)
	}
	wg.Wait()

	// the top amount always clears the floor, so it must have been accepted
	check.NotNil(t, accepted[bidders-1])

	maxAccepted := decimal.Zero
	acceptedCount := 0
	for _, bid := range accepted {
		if bid == nil {
			continue
		}
		acceptedCount++
		if bid.Amount.GreaterThan(maxAccepted) {
			maxAccepted = bid.Amount
		}
	}

	state, err := env.lotState.Execute(ctx, lotID)
	check.Nil(t, err)
	check.True(t, state.CurrentPrice.Equal(maxAccepted))
	check.True(t, state.CurrentPrice.Equal(decimal.NewFromInt(300)))
	check.Equal(t, acceptedCount, state.BidCount)

	// exactly one active bid, and it is the leader at the final price
	bids, err := env.lotBids.Execute(ctx, lotID)
	check.Nil(t, err)
	active := 0
	for _, b := range bids {
		if b.Status == domain.BidActive {
			active++
			check.True(t, b.Amount.Equal(state.CurrentPrice))
			check.Equal(t, *state.CurrentLeaderID, b.BidderID)
		}
	}
	check.Equal(t, 1, active)
}

// Publishes race each other between commit and delivery, so a subscriber
// can receive an older bid after a newer one. Events carry the lot version
// written by the committing transaction; a consumer that keeps the highest
// version per lot and drops anything older converges on the committed
// price no matter the delivery order.
func TestBidEventVersionsResolveDeliveryOrder(t *testing.T) {
	const bidders = 10
	env := newTestEnv(t, bidders+5)
	ctx := context.Background()
	_, _, lots := env.startLiveAuction(t, domain.KindItem, nil, 1)
	lotID := lots[0].ID

	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bidder := env.newActor(t, auth.RoleBidder)
			_, _ = env.bid(ctx, bidder, lotID, int64(100+10*(i+1)), "")
		}(i)
	}
	wg.Wait()

	lot, err := env.store.Lots().GetByID(ctx, lotID)
	check.Nil(t, err)

	events := env.publisher.byType(domain.EventBidAccepted)
	check.True(t, len(events) > 0)

	// every accepted bid committed a distinct lot version
	seen := make(map[int64]bool, len(events))
	for _, e := range events {
		check.NotNil(t, e.LotVersion)
		check.True(t, !seen[*e.LotVersion])
		seen[*e.LotVersion] = true
	}

	// worst-case delivery: newest commit arrives first, every older one
	// after it. The version rule discards the stale deliveries.
	sort.Slice(events, func(i, j int) bool {
		return *events[i].LotVersion > *events[j].LotVersion
	})
	var lastSeen int64
	var displayed decimal.Decimal
	for _, e := range events {
		if *e.LotVersion <= lastSeen {
			continue
		}
		lastSeen = *e.LotVersion
		displayed = *e.Price
	}
	check.Equal(t, lot.Version, lastSeen)
	check.True(t, displayed.Equal(lot.CurrentPrice))
}
