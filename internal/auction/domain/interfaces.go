package domain

import (
	"context"

	"github.com/google/uuid"
)

// Tx is the unit-of-work handle passed to repository writes. Adapters wrap
// their native transaction (pgx.Tx for postgres, a store lock for the
// in-memory double).
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxStarter opens a transaction scoped to one logical lot update.
type TxStarter interface {
	Begin(ctx context.Context) (Tx, error)
}

type AuctionRepository interface {
	// Save inserts or updates the auction.
	Save(ctx context.Context, tx Tx, a *Auction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Auction, error)
	// List returns auctions filtered by status; empty status means all.
	List(ctx context.Context, status AuctionStatus) ([]*Auction, error)
}

type LotRepository interface {
	// Save inserts a new lot at version 1.
	Save(ctx context.Context, tx Tx, lot *Lot) error
	// Update writes the lot only if the stored version still equals
	// expectedVersion, bumping it by one. Returns ErrVersionConflict when
	// the row moved since it was read; callers retry with a fresh read.
	Update(ctx context.Context, tx Tx, lot *Lot, expectedVersion int64) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lot, error)
	// ListByAuction returns the auction's lots in creation order, which is
	// also the sequential bidding order.
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*Lot, error)
}

type BidRepository interface {
	Save(ctx context.Context, tx Tx, bid *Bid) error
	// ListByLot returns the lot's bid history, newest first.
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]*Bid, error)
	// ActiveByLot returns the current leading bid, or nil when none exists.
	ActiveByLot(ctx context.Context, lotID uuid.UUID) (*Bid, error)
	// SettleActive flips the lot's active bid (if any) to the given status.
	SettleActive(ctx context.Context, tx Tx, lotID uuid.UUID, to BidStatus) error
	// SettleRemaining flips every bid on the lot that has not won to lost.
	SettleRemaining(ctx context.Context, tx Tx, lotID uuid.UUID) error
	// VoidByAuction flips every unresolved bid in the auction to lost.
	VoidByAuction(ctx context.Context, tx Tx, auctionID uuid.UUID) error
}
