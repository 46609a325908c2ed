// Package memory provides in-memory implementations of the auction and
// user repository contracts. Transactions serialize on a store-wide mutex
// and journal their mutations so Rollback restores the prior state; the
// lot write keeps the same version compare-and-set semantics as the
// postgres adapter. Used by the application tests and handy for local runs
// without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bidstation/engine/internal/auction/domain"
	userdomain "github.com/bidstation/engine/internal/user/domain"
	"github.com/google/uuid"
)

type Store struct {
	mu sync.Mutex

	auctions map[uuid.UUID]*domain.Auction
	lots     map[uuid.UUID]*domain.Lot
	bids     map[uuid.UUID]*domain.Bid
	users    map[uuid.UUID]*userdomain.User

	// insertion counters keep creation order without relying on clock
	// resolution
	seq     int64
	lotSeq  map[uuid.UUID]int64
	bidSeq  map[uuid.UUID]int64
	auctSeq map[uuid.UUID]int64
}

func NewStore() *Store {
	return &Store{
		auctions: make(map[uuid.UUID]*domain.Auction),
		lots:     make(map[uuid.UUID]*domain.Lot),
		bids:     make(map[uuid.UUID]*domain.Bid),
		users:    make(map[uuid.UUID]*userdomain.User),
		lotSeq:   make(map[uuid.UUID]int64),
		bidSeq:   make(map[uuid.UUID]int64),
		auctSeq:  make(map[uuid.UUID]int64),
	}
}

// Begin locks the store for the duration of the transaction. One writer at
// a time: the in-memory equivalent of the per-lot row lock.
func (s *Store) Begin(ctx context.Context) (domain.Tx, error) {
	s.mu.Lock()
	return &memTx{store: s}, nil
}

type memTx struct {
	store *Store
	undo  []func()
	done  bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

func txFrom(tx domain.Tx) *memTx {
	return tx.(*memTx)
}

// ---- auction repository ----

type auctionRepo struct{ s *Store }

func (s *Store) Auctions() domain.AuctionRepository { return &auctionRepo{s: s} }

func (r *auctionRepo) Save(ctx context.Context, tx domain.Tx, a *domain.Auction) error {
	t := txFrom(tx)
	prev, existed := r.s.auctions[a.ID]
	t.undo = append(t.undo, func() {
		if existed {
			r.s.auctions[a.ID] = prev
		} else {
			delete(r.s.auctions, a.ID)
			delete(r.s.auctSeq, a.ID)
		}
	})
	if !existed {
		r.s.seq++
		r.s.auctSeq[a.ID] = r.s.seq
	}
	r.s.auctions[a.ID] = copyAuction(a)
	return nil
}

func (r *auctionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return copyAuction(a), nil
}

func (r *auctionRepo) List(ctx context.Context, status domain.AuctionStatus) ([]*domain.Auction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Auction
	for _, a := range r.s.auctions {
		if status == "" || a.Status == status {
			out = append(out, copyAuction(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.auctSeq[out[i].ID] > r.s.auctSeq[out[j].ID]
	})
	return out, nil
}

// ---- lot repository ----

type lotRepo struct{ s *Store }

func (s *Store) Lots() domain.LotRepository { return &lotRepo{s: s} }

func (r *lotRepo) Save(ctx context.Context, tx domain.Tx, lot *domain.Lot) error {
	t := txFrom(tx)
	id := lot.ID
	t.undo = append(t.undo, func() {
		delete(r.s.lots, id)
		delete(r.s.lotSeq, id)
	})
	r.s.seq++
	r.s.lotSeq[id] = r.s.seq
	stored := copyLot(lot)
	stored.CreatedAt = time.Now()
	r.s.lots[id] = stored
	return nil
}

func (r *lotRepo) Update(ctx context.Context, tx domain.Tx, lot *domain.Lot, expectedVersion int64) error {
	t := txFrom(tx)
	stored, ok := r.s.lots[lot.ID]
	if !ok {
		return domain.ErrLotNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	prev := stored
	t.undo = append(t.undo, func() { r.s.lots[lot.ID] = prev })

	next := copyLot(lot)
	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now()
	r.s.lots[lot.ID] = next
	lot.Version = next.Version
	return nil
}

func (r *lotRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lot, ok := r.s.lots[id]
	if !ok {
		return nil, domain.ErrLotNotFound
	}
	return copyLot(lot), nil
}

func (r *lotRepo) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*domain.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Lot
	for _, lot := range r.s.lots {
		if lot.AuctionID == auctionID {
			out = append(out, copyLot(lot))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.lotSeq[out[i].ID] < r.s.lotSeq[out[j].ID]
	})
	return out, nil
}

// ---- bid repository ----

type bidRepo struct{ s *Store }

func (s *Store) Bids() domain.BidRepository { return &bidRepo{s: s} }

func (r *bidRepo) Save(ctx context.Context, tx domain.Tx, bid *domain.Bid) error {
	t := txFrom(tx)
	id := bid.ID
	t.undo = append(t.undo, func() {
		delete(r.s.bids, id)
		delete(r.s.bidSeq, id)
	})
	r.s.seq++
	r.s.bidSeq[id] = r.s.seq
	r.s.bids[id] = copyBid(bid)
	return nil
}

func (r *bidRepo) ListByLot(ctx context.Context, lotID uuid.UUID) ([]*domain.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Bid
	for _, b := range r.s.bids {
		if b.LotID == lotID {
			out = append(out, copyBid(b))
		}
	}
	// newest first
	sort.Slice(out, func(i, j int) bool {
		return r.s.bidSeq[out[i].ID] > r.s.bidSeq[out[j].ID]
	})
	return out, nil
}

func (r *bidRepo) ActiveByLot(ctx context.Context, lotID uuid.UUID) (*domain.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bids {
		if b.LotID == lotID && b.Status == domain.BidActive {
			return copyBid(b), nil
		}
	}
	return nil, nil
}

func (r *bidRepo) SettleActive(ctx context.Context, tx domain.Tx, lotID uuid.UUID, to domain.BidStatus) error {
	t := txFrom(tx)
	for _, b := range r.s.bids {
		if b.LotID == lotID && b.Status == domain.BidActive {
			bid, prev := b, b.Status
			t.undo = append(t.undo, func() { bid.Status = prev })
			b.Status = to
		}
	}
	return nil
}

func (r *bidRepo) SettleRemaining(ctx context.Context, tx domain.Tx, lotID uuid.UUID) error {
	t := txFrom(tx)
	for _, b := range r.s.bids {
		if b.LotID == lotID && b.Status != domain.BidWon && b.Status != domain.BidLost {
			bid, prev := b, b.Status
			t.undo = append(t.undo, func() { bid.Status = prev })
			b.Status = domain.BidLost
		}
	}
	return nil
}

func (r *bidRepo) VoidByAuction(ctx context.Context, tx domain.Tx, auctionID uuid.UUID) error {
	t := txFrom(tx)
	for _, b := range r.s.bids {
		if b.AuctionID == auctionID && b.Status != domain.BidWon && b.Status != domain.BidLost {
			bid, prev := b, b.Status
			t.undo = append(t.undo, func() { bid.Status = prev })
			b.Status = domain.BidLost
		}
	}
	return nil
}

// ---- user repository ----

type userRepo struct{ s *Store }

func (s *Store) Users() userdomain.UserRepository { return &userRepo{s: s} }

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*userdomain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) Save(ctx context.Context, u *userdomain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

// ---- copies ----

func copyAuction(a *domain.Auction) *domain.Auction {
	cp := *a
	cp.Teams = append([]string(nil), a.Teams...)
	return &cp
}

func copyLot(l *domain.Lot) *domain.Lot {
	cp := *l
	if l.CurrentLeaderID != nil {
		id := *l.CurrentLeaderID
		cp.CurrentLeaderID = &id
	}
	if l.LastBidAt != nil {
		at := *l.LastBidAt
		cp.LastBidAt = &at
	}
	return &cp
}

func copyBid(b *domain.Bid) *domain.Bid {
	cp := *b
	return &cp
}
