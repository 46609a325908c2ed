package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func newLiveLot(t *testing.T) *Lot {
	t.Helper()
	lot, err := NewLot(uuid.New(), "Striker", "opening lot", decimal.NewFromInt(100))
	check.Nil(t, err)
	check.Nil(t, lot.Activate())
	return lot
}

func TestNewLotValidation(t *testing.T) {
	auctionID := uuid.New()

	_, err := NewLot(auctionID, "", "desc", decimal.NewFromInt(100))
	var vErr *ValidationError
	check.True(t, errors.As(err, &vErr))
	check.Equal(t, "name", vErr.Field)

	_, err = NewLot(auctionID, "Striker", "desc", decimal.Zero)
	check.True(t, errors.As(err, &vErr))
	check.Equal(t, "base_price", vErr.Field)

	lot, err := NewLot(auctionID, "Striker", "desc", decimal.NewFromInt(100))
	check.Nil(t, err)
	check.Equal(t, LotAvailable, lot.Status)
	check.True(t, lot.CurrentPrice.Equal(lot.BasePrice))
	check.Equal(t, int64(1), lot.Version)
	check.Nil(t, lot.CurrentLeaderID)
}

func TestLotActivateOnlyFromAvailable(t *testing.T) {
	lot := newLiveLot(t)

	err := lot.Activate()
	var stateErr *InvalidStateError
	check.True(t, errors.As(err, &stateErr))
	check.Equal(t, "live", stateErr.State)
}

func TestApplyBidAdvancesPriceAndLeader(t *testing.T) {
	lot := newLiveLot(t)
	bidder := uuid.New()
	inc := decimal.NewFromInt(10)

	bid, err := lot.ApplyBid(bidder, decimal.NewFromInt(110), inc)
	check.Nil(t, err)
	check.NotNil(t, bid)
	check.Equal(t, BidActive, bid.Status)
	check.True(t, lot.CurrentPrice.Equal(decimal.NewFromInt(110)))
	check.Equal(t, bidder, *lot.CurrentLeaderID)
	check.NotNil(t, lot.LastBidAt)
}

func TestApplyBidBelowFloorIsStale(t *testing.T) {
	lot := newLiveLot(t)
	inc := decimal.NewFromInt(10)

	// floor is base + increment: 110
	_, err := lot.ApplyBid(uuid.New(), decimal.NewFromInt(109), inc)
	var staleErr *StaleBidError
	check.True(t, errors.As(err, &staleErr))
	check.True(t, staleErr.CurrentPrice.Equal(decimal.NewFromInt(100)))
	check.True(t, staleErr.MinIncrement.Equal(inc))

	// exactly the floor is accepted
	_, err = lot.ApplyBid(uuid.New(), decimal.NewFromInt(110), inc)
	check.Nil(t, err)

	// matching the new price is stale again
	_, err = lot.ApplyBid(uuid.New(), decimal.NewFromInt(110), inc)
	check.True(t, errors.As(err, &staleErr))
	check.True(t, staleErr.CurrentPrice.Equal(decimal.NewFromInt(110)))
}

func TestApplyBidRequiresLiveLot(t *testing.T) {
	lot, err := NewLot(uuid.New(), "Striker", "desc", decimal.NewFromInt(100))
	check.Nil(t, err)

	_, err = lot.ApplyBid(uuid.New(), decimal.NewFromInt(110), decimal.NewFromInt(10))
	var stateErr *InvalidStateError
	check.True(t, errors.As(err, &stateErr))
	check.Equal(t, "available", stateErr.State)
}

func TestResolveSoldWhenLeaderExists(t *testing.T) {
	lot := newLiveLot(t)
	_, err := lot.ApplyBid(uuid.New(), decimal.NewFromInt(110), decimal.NewFromInt(10))
	check.Nil(t, err)

	status, err := lot.Resolve()
	check.Nil(t, err)
	check.Equal(t, LotSold, status)
	check.True(t, lot.Resolved())
}

func TestResolveUnsoldWithoutBids(t *testing.T) {
	lot := newLiveLot(t)

	status, err := lot.Resolve()
	check.Nil(t, err)
	check.Equal(t, LotUnsold, status)
}

func TestResolveIsTerminal(t *testing.T) {
	lot := newLiveLot(t)
	_, err := lot.Resolve()
	check.Nil(t, err)

	_, err = lot.Resolve()
	var stateErr *InvalidStateError
	check.True(t, errors.As(err, &stateErr))
}

func TestVoidForcesUnsoldDespiteLeader(t *testing.T) {
	lot := newLiveLot(t)
	_, err := lot.ApplyBid(uuid.New(), decimal.NewFromInt(120), decimal.NewFromInt(10))
	check.Nil(t, err)

	check.Nil(t, lot.Void())
	check.Equal(t, LotUnsold, lot.Status)

	// terminal afterwards
	check.Error(t, lot.Void())
}

func TestNewBidDefaults(t *testing.T) {
	now := time.Now()
	bid := NewBid(uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(150), now)
	check.Equal(t, BidActive, bid.Status)
	check.Equal(t, now, bid.CreatedAt)
	check.True(t, bid.Amount.Equal(decimal.NewFromInt(150)))
}
