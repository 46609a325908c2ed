package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AuctionKind string

const (
	KindSportsPlayer AuctionKind = "sports_player"
	KindItem         AuctionKind = "item"
)

type AuctionStatus string

const (
	AuctionUpcoming  AuctionStatus = "upcoming"
	AuctionLive      AuctionStatus = "live"
	AuctionCompleted AuctionStatus = "completed"
	AuctionCancelled AuctionStatus = "cancelled"
)

// Auction is the aggregate root for a bidding session. Status transitions
// are monotonic: upcoming → live → completed, with cancelled reachable from
// upcoming or live only.
type Auction struct {
	ID           uuid.UUID
	Title        string
	Description  string
	Kind         AuctionKind
	Status       AuctionStatus
	StartTime    time.Time
	EndTime      time.Time
	MinIncrement decimal.Decimal
	CreatorID    uuid.UUID
	// Teams is the registered team list, sports_player auctions only.
	Teams     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAuction validates the spec and builds an upcoming auction.
func NewAuction(title, description string, kind AuctionKind, startTime, endTime time.Time, minIncrement decimal.Decimal, creatorID uuid.UUID, teams []string) (*Auction, error) {
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if description == "" {
		return nil, &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if kind != KindSportsPlayer && kind != KindItem {
		return nil, &ValidationError{Field: "kind", Reason: "must be sports_player or item"}
	}
	if !endTime.After(startTime) {
		return nil, &ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	if minIncrement.Sign() <= 0 {
		return nil, &ValidationError{Field: "min_increment", Reason: "must be positive"}
	}
	if kind == KindSportsPlayer && len(teams) == 0 {
		return nil, &ValidationError{Field: "teams", Reason: "must not be empty for sports_player auctions"}
	}
	if kind == KindItem {
		teams = nil
	}

	return &Auction{
		ID:           uuid.New(),
		Title:        title,
		Description:  description,
		Kind:         kind,
		Status:       AuctionUpcoming,
		StartTime:    startTime,
		EndTime:      endTime,
		MinIncrement: minIncrement,
		CreatorID:    creatorID,
		Teams:        teams,
	}, nil
}

// Start moves the auction live. Lot count is the registry's concern, the
// entity only guards the transition itself.
func (a *Auction) Start() error {
	if a.Status != AuctionUpcoming {
		return &InvalidStateError{Entity: "auction", State: string(a.Status)}
	}
	a.Status = AuctionLive
	return nil
}

// Complete terminates a live auction; finalization runs before this is
// persisted.
func (a *Auction) Complete() error {
	if a.Status != AuctionLive {
		return &InvalidStateError{Entity: "auction", State: string(a.Status)}
	}
	a.Status = AuctionCompleted
	return nil
}

// Cancel is reachable from upcoming or live only.
func (a *Auction) Cancel() error {
	if a.Status != AuctionUpcoming && a.Status != AuctionLive {
		return &InvalidStateError{Entity: "auction", State: string(a.Status)}
	}
	a.Status = AuctionCancelled
	return nil
}

// CanAcceptBids reports whether the auction-level gate lets bids through.
func (a *Auction) CanAcceptBids() bool {
	return a.Status == AuctionLive
}

// ValidateBidder applies the bidder-side authorization rules: the creator
// may not bid on their own auction, and sports_player auctions require a
// team selection from the registered list.
func (a *Auction) ValidateBidder(bidderID uuid.UUID, team string) error {
	if bidderID == a.CreatorID {
		return ErrNotAuthorized
	}
	if a.Kind == KindSportsPlayer {
		if team == "" {
			return ErrNotAuthorized
		}
		for _, t := range a.Teams {
			if t == team {
				return nil
			}
		}
		return ErrNotAuthorized
	}
	return nil
}
