package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrLotNotFound     = errors.New("auction lot not found")
	ErrBidderNotFound  = errors.New("bidder not found")

	// ErrNotAuthorized covers ownership and role violations: a non-creator
	// driving the lifecycle, the creator bidding on their own auction, a
	// sports bid without a registered team.
	ErrNotAuthorized = errors.New("operation not allowed for this actor")

	// ErrVersionConflict is returned by the lot compare-and-set write when
	// the row moved since it was read. The place-bid path retries on it.
	ErrVersionConflict = errors.New("lot was modified concurrently")
)

// ValidationError rejects bad input. Never retried, surfaced verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// InvalidStateError rejects an operation issued against the wrong lifecycle
// state. Carries the current state so the caller can resync.
type InvalidStateError struct {
	Entity string
	State  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is in state %q", e.Entity, e.State)
}

// StaleBidError rejects a bid below the current floor, either because the
// amount was too low at submission or because the caller lost the
// optimistic-concurrency race. Carries the authoritative current price so
// the client can immediately offer a corrected bid.
type StaleBidError struct {
	CurrentPrice decimal.Decimal
	MinIncrement decimal.Decimal
}

func (e *StaleBidError) Error() string {
	return fmt.Sprintf("bid is below the current floor, current price is %s (min increment %s)",
		e.CurrentPrice.StringFixed(2), e.MinIncrement.StringFixed(2))
}
