package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BidStatus string

const (
	// BidActive is the current leading, unresolved bid on a lot.
	// At most one bid per lot carries this status at any time.
	BidActive BidStatus = "active"
	// BidOutbid was once active but has been superseded by a higher bid.
	BidOutbid BidStatus = "outbid"
	BidWon    BidStatus = "won"
	BidLost   BidStatus = "lost"
)

// Bid is one accepted entry in the append-only ledger of a lot.
type Bid struct {
	ID        uuid.UUID
	LotID     uuid.UUID
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
	Status    BidStatus
	CreatedAt time.Time
}

// NewBid creates the new leading bid for a lot.
func NewBid(lotID, auctionID, bidderID uuid.UUID, amount decimal.Decimal, at time.Time) *Bid {
	return &Bid{
		ID:        uuid.New(),
		LotID:     lotID,
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		Status:    BidActive,
		CreatedAt: at,
	}
}
