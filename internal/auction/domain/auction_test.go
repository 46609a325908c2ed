package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func validAuctionArgs() (string, string, AuctionKind, time.Time, time.Time, decimal.Decimal, uuid.UUID, []string) {
	start := time.Now().Add(time.Hour)
	return "IPL Season Draft", "player draft", KindSportsPlayer, start, start.Add(2 * time.Hour),
		decimal.NewFromInt(10), uuid.New(), []string{"Mumbai", "Chennai"}
}

func TestNewAuctionValidation(t *testing.T) {
	title, desc, kind, start, end, inc, creator, teams := validAuctionArgs()

	a, err := NewAuction(title, desc, kind, start, end, inc, creator, teams)
	check.Nil(t, err)
	check.Equal(t, AuctionUpcoming, a.Status)
	check.Equal(t, creator, a.CreatorID)

	var vErr *ValidationError

	_, err = NewAuction("", desc, kind, start, end, inc, creator, teams)
	check.True(t, errors.As(err, &vErr))
	check.Equal(t, "title", vErr.Field)

	_, err = NewAuction(title, desc, "garage_sale", start, end, inc, creator, teams)
	check.True(t, errors.As(err, &vErr))
	check.Equal(t, "kind", vErr.Field)

	_, err = NewAuction(title, desc, kind, start, start, inc, creator, teams)
	check.True(t, errors.As(err, &vErr))
	check.Equal(t, "end_time", vErr.Field)

	_, err = NewAuction(title, desc, kind, start, end, decimal.Zero, creator, teams)
	check.True(t, errors.As(err, &vErr))
	check.Equal(t, "min_increment", vErr.Field)

	_, err = NewAuction(title, desc, KindSportsPlayer, start, end, inc, creator, nil)
	check.True(t, errors.As(err, &vErr))
	check.Equal(t, "teams", vErr.Field)
}

func TestNewAuctionItemKindDropsTeams(t *testing.T) {
	title, desc, _, start, end, inc, creator, teams := validAuctionArgs()

	a, err := NewAuction(title, desc, KindItem, start, end, inc, creator, teams)
	check.Nil(t, err)
	check.Equal(t, 0, len(a.Teams))
}

func TestAuctionLifecycleTransitions(t *testing.T) {
	title, desc, kind, start, end, inc, creator, teams := validAuctionArgs()
	a, err := NewAuction(title, desc, kind, start, end, inc, creator, teams)
	check.Nil(t, err)

	// complete before start is rejected
	check.Error(t, a.Complete())

	check.Nil(t, a.Start())
	check.Equal(t, AuctionLive, a.Status)
	check.True(t, a.CanAcceptBids())

	// start is not re-entrant
	check.Error(t, a.Start())

	check.Nil(t, a.Complete())
	check.Equal(t, AuctionCompleted, a.Status)
	check.True(t, !a.CanAcceptBids())

	// completed is terminal
	check.Error(t, a.Cancel())
	check.Error(t, a.Start())
}

func TestAuctionCancelFromUpcomingAndLive(t *testing.T) {
	title, desc, kind, start, end, inc, creator, teams := validAuctionArgs()

	a, err := NewAuction(title, desc, kind, start, end, inc, creator, teams)
	check.Nil(t, err)
	check.Nil(t, a.Cancel())
	check.Equal(t, AuctionCancelled, a.Status)

	b, err := NewAuction(title, desc, kind, start, end, inc, creator, teams)
	check.Nil(t, err)
	check.Nil(t, b.Start())
	check.Nil(t, b.Cancel())
	check.Equal(t, AuctionCancelled, b.Status)

	// cancelled is terminal
	check.Error(t, b.Cancel())
}

func TestValidateBidderCreatorCannotBid(t *testing.T) {
	title, desc, kind, start, end, inc, creator, teams := validAuctionArgs()
	a, err := NewAuction(title, desc, kind, start, end, inc, creator, teams)
	check.Nil(t, err)

	check.True(t, errors.Is(a.ValidateBidder(creator, "Mumbai"), ErrNotAuthorized))
	check.Nil(t, a.ValidateBidder(uuid.New(), "Mumbai"))
}

func TestValidateBidderTeamRules(t *testing.T) {
	title, desc, kind, start, end, inc, creator, teams := validAuctionArgs()
	a, err := NewAuction(title, desc, kind, start, end, inc, creator, teams)
	check.Nil(t, err)
	bidder := uuid.New()

	check.True(t, errors.Is(a.ValidateBidder(bidder, ""), ErrNotAuthorized))
	check.True(t, errors.Is(a.ValidateBidder(bidder, "Kolkata"), ErrNotAuthorized))
	check.Nil(t, a.ValidateBidder(bidder, "Chennai"))

	// item auctions ignore the team field entirely
	item, err := NewAuction(title, desc, KindItem, start, end, inc, creator, nil)
	check.Nil(t, err)
	check.Nil(t, item.ValidateBidder(bidder, ""))
}
