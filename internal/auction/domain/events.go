package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventBidAccepted          EventType = "bid_accepted"
	EventLotResolved          EventType = "lot_resolved"
	EventAuctionStatusChanged EventType = "auction_status_changed"
)

// Event is a committed state change fanned out to the subscribers of an
// auction room. Delivery is best-effort, at-least-once per connected
// subscriber; reconnecting clients re-fetch snapshots over the REST API.
// Lot-scoped events carry the lot version written by the committing
// transaction: publishes race each other between commit and delivery, so
// consumers keep the highest version seen per lot and drop anything older.
type Event struct {
	Type       EventType        `json:"type"`
	AuctionID  uuid.UUID        `json:"auction_id"`
	LotID      *uuid.UUID       `json:"lot_id,omitempty"`
	LotVersion *int64           `json:"lot_version,omitempty"`
	BidderID   *uuid.UUID       `json:"bidder_id,omitempty"`
	WinnerID   *uuid.UUID       `json:"winner_id,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Outcome    string           `json:"outcome,omitempty"`
	Status     string           `json:"status,omitempty"`
	At         time.Time        `json:"at"`
}

func NewBidAcceptedEvent(lot *Lot, bid *Bid) Event {
	price := bid.Amount
	version := lot.Version
	return Event{
		Type:       EventBidAccepted,
		AuctionID:  lot.AuctionID,
		LotID:      &lot.ID,
		LotVersion: &version,
		BidderID:   &bid.BidderID,
		Price:      &price,
		At:         time.Now(),
	}
}

func NewLotResolvedEvent(lot *Lot) Event {
	price := lot.CurrentPrice
	version := lot.Version
	return Event{
		Type:       EventLotResolved,
		AuctionID:  lot.AuctionID,
		LotID:      &lot.ID,
		LotVersion: &version,
		WinnerID:   lot.CurrentLeaderID,
		Price:      &price,
		Outcome:    string(lot.Status),
		At:         time.Now(),
	}
}

func NewAuctionStatusChangedEvent(a *Auction) Event {
	return Event{
		Type:      EventAuctionStatusChanged,
		AuctionID: a.ID,
		Status:    string(a.Status),
		At:        time.Now(),
	}
}

// EventPublisher fans a committed event out to the auction's channel.
// Implementations must never block or fail the write path: errors are
// logged and dropped.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}
