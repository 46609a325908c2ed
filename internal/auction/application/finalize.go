package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FinalizeUseCase is the terminal settlement pass run once an auction ends:
// the active bid on each unresolved lot becomes won and the lot sold, every
// other bid settles to lost, leaderless lots become unsold. Lots are
// processed concurrently, each in its own transaction through the same
// versioned write path as placeBid, so the whole pass is idempotent and
// safely retryable after a partial failure.
type FinalizeUseCase struct {
	lotRepo    domain.LotRepository
	bidRepo    domain.BidRepository
	txs        domain.TxStarter
	publisher  domain.EventPublisher
	maxRetries int
}

func NewFinalizeUseCase(
	lotRepo domain.LotRepository,
	bidRepo domain.BidRepository,
	txs domain.TxStarter,
	publisher domain.EventPublisher,
	maxRetries int,
) *FinalizeUseCase {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &FinalizeUseCase{
		lotRepo:    lotRepo,
		bidRepo:    bidRepo,
		txs:        txs,
		publisher:  publisher,
		maxRetries: maxRetries,
	}
}

func (uc *FinalizeUseCase) Execute(ctx context.Context, auctionID uuid.UUID) error {
	lots, err := uc.lotRepo.ListByAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("finalize: failed to list lots for auction %s: %w", auctionID, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, lot := range lots {
		if lot.Resolved() {
			// already settled on a previous run, leave it alone
			continue
		}
		lotID := lot.ID
		g.Go(func() error {
			return uc.settleLot(gctx, lotID)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("finalize: auction %s: %w", auctionID, err)
	}

	log.Info("Auction finalized", zap.String("auctionID", auctionID.String()))
	return nil
}

// settleLot resolves one lot inside a transaction. It contends on the same
// lot version as in-flight bids, so a bid committing concurrently forces a
// re-read and the settlement lands on the final price.
func (uc *FinalizeUseCase) settleLot(ctx context.Context, lotID uuid.UUID) error {
	return uc.settle(ctx, lotID, false)
}

// settleLotAndAdvance settles the lot and activates the next available lot
// of the same auction in the one transaction, so a close can never leave
// the auction stranded between settlement and activation.
func (uc *FinalizeUseCase) settleLotAndAdvance(ctx context.Context, lotID uuid.UUID) error {
	return uc.settle(ctx, lotID, true)
}

func (uc *FinalizeUseCase) settle(ctx context.Context, lotID uuid.UUID, advance bool) error {
	for attempt := 0; attempt < uc.maxRetries; attempt++ {
		lot, err := uc.lotRepo.GetByID(ctx, lotID)
		if err != nil {
			return fmt.Errorf("settle lot %s: %w", lotID, err)
		}
		if lot.Resolved() {
			return nil
		}

		expectedVersion := lot.Version
		if _, err := lot.Resolve(); err != nil {
			return fmt.Errorf("settle lot %s: %w", lotID, err)
		}

		var next *domain.Lot
		var nextExpected int64
		if advance {
			lots, err := uc.lotRepo.ListByAuction(ctx, lot.AuctionID)
			if err != nil {
				return fmt.Errorf("settle lot %s: failed to list lots: %w", lotID, err)
			}
			for _, candidate := range lots {
				if candidate.Status != domain.LotAvailable {
					continue
				}
				next = candidate
				nextExpected = candidate.Version
				if err := next.Activate(); err != nil {
					return fmt.Errorf("settle lot %s: %w", lotID, err)
				}
				break
			}
		}

		tx, err := uc.txs.Begin(ctx)
		if err != nil {
			return fmt.Errorf("settle lot %s: failed to begin transaction: %w", lotID, err)
		}

		if err := uc.lotRepo.Update(ctx, tx, lot, expectedVersion); err != nil {
			_ = tx.Rollback(ctx)
			if errors.Is(err, domain.ErrVersionConflict) {
				continue
			}
			return fmt.Errorf("settle lot %s: %w", lotID, err)
		}
		if lot.Status == domain.LotSold {
			if err := uc.bidRepo.SettleActive(ctx, tx, lot.ID, domain.BidWon); err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("settle lot %s: failed to mark winning bid: %w", lotID, err)
			}
		}
		if err := uc.bidRepo.SettleRemaining(ctx, tx, lot.ID); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("settle lot %s: failed to settle losing bids: %w", lotID, err)
		}
		if next != nil {
			if err := uc.lotRepo.Update(ctx, tx, next, nextExpected); err != nil {
				_ = tx.Rollback(ctx)
				if errors.Is(err, domain.ErrVersionConflict) {
					continue
				}
				return fmt.Errorf("settle lot %s: failed to activate next lot: %w", lotID, err)
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("settle lot %s: failed to commit: %w", lotID, err)
		}

		uc.publisher.Publish(ctx, domain.NewLotResolvedEvent(lot))
		log.Info("Lot settled",
			zap.String("lotID", lot.ID.String()),
			zap.String("outcome", string(lot.Status)),
			zap.String("finalPrice", lot.CurrentPrice.StringFixed(2)),
		)
		if next != nil {
			log.Info("Next lot activated",
				zap.String("auctionID", lot.AuctionID.String()),
				zap.String("lotID", next.ID.String()),
			)
		}
		return nil
	}
	return fmt.Errorf("settle lot %s: %w", lotID, domain.ErrVersionConflict)
}
