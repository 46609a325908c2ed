package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/bidstation/engine/internal/auth"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

// Full round trip: two bidders escalate on the first lot, the auction ends,
// the winner takes the lot at the final price and everything else settles.
func TestEndAuctionSettlesEverything(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	creator, auction, lots := env.startLiveAuction(t, domain.KindItem, nil, 2)
	alice := env.newActor(t, auth.RoleBidder)
	bob := env.newActor(t, auth.RoleBidder)

	_, err := env.bid(ctx, alice, lots[0].ID, 110, "")
	check.Nil(t, err)
	_, err = env.bid(ctx, bob, lots[0].ID, 125, "")
	check.Nil(t, err)
	_, err = env.bid(ctx, alice, lots[0].ID, 150, "")
	check.Nil(t, err)

	ended, err := env.registry.EndAuction(ctx, auction.ID, creator)
	check.Nil(t, err)
	check.Equal(t, domain.AuctionCompleted, ended.Status)

	refreshed, err := env.registry.ListAuctionLots(ctx, auction.ID)
	check.Nil(t, err)

	sold := refreshed[0]
	check.Equal(t, domain.LotSold, sold.Status)
	check.True(t, sold.CurrentPrice.Equal(decimal.NewFromInt(150)))
	check.Equal(t, alice.ID, *sold.CurrentLeaderID)

	// the second lot never went live and had no bids
	check.Equal(t, domain.LotUnsold, refreshed[1].Status)

	bids, err := env.lotBids.Execute(ctx, lots[0].ID)
	check.Nil(t, err)
	check.Equal(t, 3, len(bids))
	// newest first: 150 won, 125 lost, 110 lost
	check.Equal(t, domain.BidWon, bids[0].Status)
	check.Equal(t, alice.ID, bids[0].BidderID)
	check.Equal(t, domain.BidLost, bids[1].Status)
	check.Equal(t, domain.BidLost, bids[2].Status)

	resolved := env.publisher.byType(domain.EventLotResolved)
	check.Equal(t, 2, len(resolved))
}

func TestEndAuctionRequiresLive(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	creator, auction, _ := env.newAuctionWithLots(t, domain.KindItem, nil, 1)

	_, err := env.registry.EndAuction(ctx, auction.ID, creator)
	var stateErr *domain.InvalidStateError
	check.True(t, errors.As(err, &stateErr))
	check.Equal(t, "upcoming", stateErr.State)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	_, auction, lots := env.startLiveAuction(t, domain.KindItem, nil, 2)
	bidder := env.newActor(t, auth.RoleBidder)

	_, err := env.bid(ctx, bidder, lots[0].ID, 120, "")
	check.Nil(t, err)

	check.Nil(t, env.finalize.Execute(ctx, auction.ID))
	firstPass, err := env.registry.ListAuctionLots(ctx, auction.ID)
	check.Nil(t, err)
	resolvedAfterFirst := len(env.publisher.byType(domain.EventLotResolved))

	// a second pass sees only settled lots and changes nothing
	check.Nil(t, env.finalize.Execute(ctx, auction.ID))
	secondPass, err := env.registry.ListAuctionLots(ctx, auction.ID)
	check.Nil(t, err)

	for i := range firstPass {
		check.Equal(t, firstPass[i].Status, secondPass[i].Status)
		check.Equal(t, firstPass[i].Version, secondPass[i].Version)
	}
	check.Equal(t, resolvedAfterFirst, len(env.publisher.byType(domain.EventLotResolved)))
}

func TestFinalizeLotWithoutBidsGoesUnsold(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	_, auction, lots := env.startLiveAuction(t, domain.KindItem, nil, 1)

	check.Nil(t, env.finalize.Execute(ctx, auction.ID))

	state, err := env.lotState.Execute(ctx, lots[0].ID)
	check.Nil(t, err)
	check.Equal(t, string(domain.LotUnsold), state.Status)
	check.Nil(t, state.CurrentLeaderID)
	check.True(t, state.CurrentPrice.Equal(state.BasePrice))
}

func TestBidsRejectedAfterFinalization(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	creator, auction, lots := env.startLiveAuction(t, domain.KindItem, nil, 1)
	bidder := env.newActor(t, auth.RoleBidder)

	_, err := env.registry.EndAuction(ctx, auction.ID, creator)
	check.Nil(t, err)

	_, err = env.bid(ctx, bidder, lots[0].ID, 110, "")
	var stateErr *domain.InvalidStateError
	check.True(t, errors.As(err, &stateErr))
}
