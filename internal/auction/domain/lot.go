package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LotStatus string

const (
	LotAvailable LotStatus = "available"
	LotLive      LotStatus = "live"
	LotSold      LotStatus = "sold"
	LotUnsold    LotStatus = "unsold"
)

// Lot is a single auctionable unit (a player or an item). Its status only
// moves forward: available → live → sold/unsold. CurrentPrice strictly
// increases with each accepted bid; Version is the compare-and-set token
// the persistence layer checks on every write.
type Lot struct {
	ID              uuid.UUID
	AuctionID       uuid.UUID
	Name            string
	Description     string
	BasePrice       decimal.Decimal
	CurrentPrice    decimal.Decimal
	Status          LotStatus
	CurrentLeaderID *uuid.UUID
	LastBidAt       *time.Time
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewLot(auctionID uuid.UUID, name, description string, basePrice decimal.Decimal) (*Lot, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if basePrice.Sign() <= 0 {
		return nil, &ValidationError{Field: "base_price", Reason: "must be positive"}
	}

	return &Lot{
		ID:           uuid.New(),
		AuctionID:    auctionID,
		Name:         name,
		Description:  description,
		BasePrice:    basePrice,
		CurrentPrice: basePrice, // price floor starts at the base price
		Status:       LotAvailable,
		Version:      1,
	}, nil
}

// Activate makes the lot the current one up for bidding.
func (l *Lot) Activate() error {
	if l.Status != LotAvailable {
		return &InvalidStateError{Entity: "lot", State: string(l.Status)}
	}
	l.Status = LotLive
	return nil
}

// ApplyBid validates the amount against the current floor and, on success,
// advances the lot state and returns the new leading bid. The caller is
// responsible for persisting lot and bid atomically through the versioned
// write path.
func (l *Lot) ApplyBid(bidderID uuid.UUID, amount decimal.Decimal, minIncrement decimal.Decimal) (*Bid, error) {
	if l.Status != LotLive {
		return nil, &InvalidStateError{Entity: "lot", State: string(l.Status)}
	}

	floor := l.CurrentPrice.Add(minIncrement)
	if amount.LessThan(floor) {
		return nil, &StaleBidError{CurrentPrice: l.CurrentPrice, MinIncrement: minIncrement}
	}

	now := time.Now()
	l.CurrentPrice = amount
	l.CurrentLeaderID = &bidderID
	l.LastBidAt = &now

	return NewBid(l.ID, l.AuctionID, bidderID, amount, now), nil
}

// Resolve settles the lot at auction end or on an explicit close: sold when
// a leader exists, unsold otherwise. Terminal states reject it.
func (l *Lot) Resolve() (LotStatus, error) {
	if l.Status == LotSold || l.Status == LotUnsold {
		return l.Status, &InvalidStateError{Entity: "lot", State: string(l.Status)}
	}
	if l.Status == LotLive && l.CurrentLeaderID != nil {
		l.Status = LotSold
	} else {
		l.Status = LotUnsold
	}
	return l.Status, nil
}

// Void settles the lot as unsold regardless of bid history. Used by the
// auction cancel path, where nothing may end up sold.
func (l *Lot) Void() error {
	if l.Status == LotSold || l.Status == LotUnsold {
		return &InvalidStateError{Entity: "lot", State: string(l.Status)}
	}
	l.Status = LotUnsold
	return nil
}

// Resolved reports whether the lot reached a terminal state.
func (l *Lot) Resolved() bool {
	return l.Status == LotSold || l.Status == LotUnsold
}
