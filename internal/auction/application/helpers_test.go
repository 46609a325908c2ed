package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/bidstation/engine/internal/auction/infra/repository/memory"
	"github.com/bidstation/engine/internal/auth"
	userdomain "github.com/bidstation/engine/internal/user/domain"
	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

// capturingPublisher records published events so tests can assert on the
// fan-out without a hub or a broker.
type capturingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *capturingPublisher) Publish(ctx context.Context, event domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturingPublisher) byType(eventType domain.EventType) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	store     *memory.Store
	publisher *capturingPublisher
	registry  *RegistryUseCase
	placeBid  *PlaceBidUseCase
	finalize  *FinalizeUseCase
	lotState  *GetLotStateUseCase
	lotBids   *GetLotBidsUseCase
}

func newTestEnv(t *testing.T, maxRetries int) *testEnv {
	t.Helper()
	store := memory.NewStore()
	publisher := &capturingPublisher{}

	finalize := NewFinalizeUseCase(store.Lots(), store.Bids(), store, publisher, maxRetries)
	registry := NewRegistryUseCase(store.Auctions(), store.Lots(), store.Bids(), store, publisher, finalize)
	placeBid := NewPlaceBidUseCase(store.Auctions(), store.Lots(), store.Bids(), store.Users(), store, publisher, maxRetries)

	return &testEnv{
		store:     store,
		publisher: publisher,
		registry:  registry,
		placeBid:  placeBid,
		finalize:  finalize,
		lotState:  NewGetLotStateUseCase(store.Lots(), store.Bids()),
		lotBids:   NewGetLotBidsUseCase(store.Lots(), store.Bids()),
	}
}

func (env *testEnv) newActor(t *testing.T, role string) auth.Actor {
	t.Helper()
	u := &userdomain.User{
		ID:          uuid.New(),
		DisplayName: "user-" + role,
		Role:        role,
		CreatedAt:   time.Now(),
	}
	check.Nil(t, env.store.Users().Save(context.Background(), u))
	return auth.Actor{ID: u.ID, Role: role}
}

// newAuctionWithLots creates an upcoming auction owned by a fresh
// auctioneer and attaches lotCount lots priced at 100 with increment 10.
func (env *testEnv) newAuctionWithLots(t *testing.T, kind domain.AuctionKind, teams []string, lotCount int) (auth.Actor, *domain.Auction, []*domain.Lot) {
	t.Helper()
	ctx := context.Background()
	creator := env.newActor(t, auth.RoleAuctioneer)

	start := time.Now().Add(time.Minute)
	auction, err := env.registry.CreateAuction(ctx, CreateAuctionDTO{
		Title:        "Test Auction",
		Description:  "fixture",
		Kind:         kind,
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		MinIncrement: decimal.NewFromInt(10),
		CreatorID:    creator.ID,
		Teams:        teams,
	})
	check.Nil(t, err)

	lots := make([]*domain.Lot, 0, lotCount)
	for i := 0; i < lotCount; i++ {
		lot, err := env.registry.AddLot(ctx, AddLotDTO{
			AuctionID:   auction.ID,
			Name:        "Lot " + string(rune('A'+i)),
			Description: "fixture lot",
			BasePrice:   decimal.NewFromInt(100),
		}, creator)
		check.Nil(t, err)
		lots = append(lots, lot)
	}
	return creator, auction, lots
}

// startLiveAuction builds a started auction whose first lot is live.
func (env *testEnv) startLiveAuction(t *testing.T, kind domain.AuctionKind, teams []string, lotCount int) (auth.Actor, *domain.Auction, []*domain.Lot) {
	t.Helper()
	ctx := context.Background()
	creator, auction, lots := env.newAuctionWithLots(t, kind, teams, lotCount)

	auction, err := env.registry.StartAuction(ctx, auction.ID, creator)
	check.Nil(t, err)

	refreshed, err := env.registry.ListAuctionLots(ctx, auction.ID)
	check.Nil(t, err)
	check.Equal(t, len(lots), len(refreshed))
	return creator, auction, refreshed
}

func (env *testEnv) bid(ctx context.Context, bidder auth.Actor, lotID uuid.UUID, amount int64, team string) (*domain.Bid, error) {
	return env.placeBid.Execute(ctx, PlaceBidDTO{
		LotID:    lotID,
		BidderID: bidder.ID,
		Team:     team,
		Amount:   decimal.NewFromInt(amount),
	})
}
