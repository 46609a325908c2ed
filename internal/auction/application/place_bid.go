package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/bidstation/engine/internal/shared/logger"
	userdomain "github.com/bidstation/engine/internal/user/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// PlaceBidDTO carries everything needed to enter a bid for a lot. Team is
// required on sports_player auctions and ignored otherwise.
type PlaceBidDTO struct {
	LotID    uuid.UUID
	BidderID uuid.UUID
	Team     string
	Amount   decimal.Decimal
}

// PlaceBidUseCase is the single authoritative write path for bids. Two bids
// submitted concurrently for the same lot are serialized by the lot's
// version compare-and-set: exactly one becomes the active bid, the loser
// retries against the refreshed price up to maxRetries times and then
// surfaces a StaleBidError carrying the authoritative current price.
type PlaceBidUseCase struct {
	auctionRepo domain.AuctionRepository
	lotRepo     domain.LotRepository
	bidRepo     domain.BidRepository
	userRepo    userdomain.UserRepository
	txs         domain.TxStarter
	publisher   domain.EventPublisher
	maxRetries  int
}

func NewPlaceBidUseCase(
	auctionRepo domain.AuctionRepository,
	lotRepo domain.LotRepository,
	bidRepo domain.BidRepository,
	userRepo userdomain.UserRepository,
	txs domain.TxStarter,
	publisher domain.EventPublisher,
	maxRetries int,
) *PlaceBidUseCase {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &PlaceBidUseCase{
		auctionRepo: auctionRepo,
		lotRepo:     lotRepo,
		bidRepo:     bidRepo,
		userRepo:    userRepo,
		txs:         txs,
		publisher:   publisher,
		maxRetries:  maxRetries,
	}
}

func (uc *PlaceBidUseCase) Execute(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error) {
	if cmd.Amount.Sign() <= 0 {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	bidder, err := uc.userRepo.GetByID(ctx, cmd.BidderID)
	if err != nil {
		return nil, fmt.Errorf("place bid: failed to look up bidder %s: %w", cmd.BidderID, err)
	}
	if bidder == nil {
		return nil, domain.ErrBidderNotFound
	}

	var minIncrement decimal.Decimal
	for attempt := 0; attempt < uc.maxRetries; attempt++ {
		bid, inc, err := uc.attempt(ctx, cmd)
		if err == nil {
			log.Info("Bid accepted",
				zap.String("lotID", cmd.LotID.String()),
				zap.String("bidderID", cmd.BidderID.String()),
				zap.String("amount", cmd.Amount.StringFixed(2)),
				zap.Int("attempt", attempt),
			)
			return bid, nil
		}
		minIncrement = inc
		if errors.Is(err, domain.ErrVersionConflict) {
			// lost the race, re-read and try again against the new price
			log.Debug("Bid write conflicted, retrying",
				zap.String("lotID", cmd.LotID.String()),
				zap.Int("attempt", attempt),
			)
			continue
		}
		return nil, err
	}

	// Retries exhausted. Report the refreshed price so the client can
	// immediately offer a corrected bid.
	lot, err := uc.lotRepo.GetByID(ctx, cmd.LotID)
	if err != nil {
		return nil, fmt.Errorf("place bid: failed to re-read lot %s: %w", cmd.LotID, err)
	}
	return nil, &domain.StaleBidError{CurrentPrice: lot.CurrentPrice, MinIncrement: minIncrement}
}

// attempt runs one optimistic pass: read, validate, write behind the
// version check. Returns the auction's min increment alongside so the
// caller can build a useful stale-bid error.
func (uc *PlaceBidUseCase) attempt(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, decimal.Decimal, error) {
	lot, err := uc.lotRepo.GetByID(ctx, cmd.LotID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("place bid: failed to get lot %s: %w", cmd.LotID, err)
	}

	auction, err := uc.auctionRepo.GetByID(ctx, lot.AuctionID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("place bid: failed to get auction %s: %w", lot.AuctionID, err)
	}
	if !auction.CanAcceptBids() {
		return nil, auction.MinIncrement, &domain.InvalidStateError{Entity: "auction", State: string(auction.Status)}
	}
	if err := auction.ValidateBidder(cmd.BidderID, cmd.Team); err != nil {
		return nil, auction.MinIncrement, err
	}

	expectedVersion := lot.Version
	bid, err := lot.ApplyBid(cmd.BidderID, cmd.Amount, auction.MinIncrement)
	if err != nil {
		return nil, auction.MinIncrement, err
	}

	tx, err := uc.txs.Begin(ctx)
	if err != nil {
		return nil, auction.MinIncrement, fmt.Errorf("place bid: failed to begin transaction: %w", err)
	}

	// The versioned lot write goes first: it is the contended row, and a
	// conflict must abort before any bid row is touched.
	if err := uc.lotRepo.Update(ctx, tx, lot, expectedVersion); err != nil {
		_ = tx.Rollback(ctx)
		return nil, auction.MinIncrement, err
	}
	if err := uc.bidRepo.SettleActive(ctx, tx, lot.ID, domain.BidOutbid); err != nil {
		_ = tx.Rollback(ctx)
		return nil, auction.MinIncrement, fmt.Errorf("place bid: failed to flip previous leader: %w", err)
	}
	if err := uc.bidRepo.Save(ctx, tx, bid); err != nil {
		_ = tx.Rollback(ctx)
		return nil, auction.MinIncrement, fmt.Errorf("place bid: failed to save bid: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, auction.MinIncrement, fmt.Errorf("place bid: failed to commit transaction: %w", err)
	}

	uc.publisher.Publish(ctx, domain.NewBidAcceptedEvent(lot, bid))
	return bid, auction.MinIncrement, nil
}
