package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/bidstation/engine/internal/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateAuctionDTO is the input for auction creation. CreatorID comes from
// the authenticated actor, never from the request body.
type CreateAuctionDTO struct {
	Title        string
	Description  string
	Kind         domain.AuctionKind
	StartTime    time.Time
	EndTime      time.Time
	MinIncrement decimal.Decimal
	CreatorID    uuid.UUID
	Teams        []string
}

type AddLotDTO struct {
	AuctionID   uuid.UUID
	Name        string
	Description string
	BasePrice   decimal.Decimal
}

// RegistryUseCase drives the auction lifecycle: creation, lot intake while
// upcoming, the live transition, sequential lot closing, ending and
// cancelling. It owns the one-live-lot-per-auction rule.
type RegistryUseCase struct {
	auctionRepo domain.AuctionRepository
	lotRepo     domain.LotRepository
	bidRepo     domain.BidRepository
	txs         domain.TxStarter
	publisher   domain.EventPublisher
	finalizeUC  *FinalizeUseCase
}

func NewRegistryUseCase(
	auctionRepo domain.AuctionRepository,
	lotRepo domain.LotRepository,
	bidRepo domain.BidRepository,
	txs domain.TxStarter,
	publisher domain.EventPublisher,
	finalizeUC *FinalizeUseCase,
) *RegistryUseCase {
	return &RegistryUseCase{
		auctionRepo: auctionRepo,
		lotRepo:     lotRepo,
		bidRepo:     bidRepo,
		txs:         txs,
		publisher:   publisher,
		finalizeUC:  finalizeUC,
	}
}

func (uc *RegistryUseCase) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error) {
	auction, err := domain.NewAuction(cmd.Title, cmd.Description, cmd.Kind, cmd.StartTime, cmd.EndTime, cmd.MinIncrement, cmd.CreatorID, cmd.Teams)
	if err != nil {
		return nil, err
	}

	if err := uc.saveAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("create auction: %w", err)
	}

	log.Info("Auction created",
		zap.String("auctionID", auction.ID.String()),
		zap.String("kind", string(auction.Kind)),
		zap.String("creatorID", auction.CreatorID.String()),
	)
	return auction, nil
}

// AddLot attaches a lot to an upcoming auction. Live or completed auctions
// reject it.
func (uc *RegistryUseCase) AddLot(ctx context.Context, cmd AddLotDTO, actor auth.Actor) (*domain.Lot, error) {
	auction, err := uc.auctionRepo.GetByID(ctx, cmd.AuctionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeManager(auction, actor); err != nil {
		return nil, err
	}
	if auction.Status != domain.AuctionUpcoming {
		return nil, &domain.InvalidStateError{Entity: "auction", State: string(auction.Status)}
	}

	lot, err := domain.NewLot(auction.ID, cmd.Name, cmd.Description, cmd.BasePrice)
	if err != nil {
		return nil, err
	}

	tx, err := uc.txs.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("add lot: failed to begin transaction: %w", err)
	}
	if err := uc.lotRepo.Save(ctx, tx, lot); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("add lot: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("add lot: failed to commit: %w", err)
	}

	log.Info("Lot added",
		zap.String("auctionID", auction.ID.String()),
		zap.String("lotID", lot.ID.String()),
		zap.String("basePrice", lot.BasePrice.StringFixed(2)),
	)
	return lot, nil
}

// StartAuction moves the auction live and activates its first lot.
func (uc *RegistryUseCase) StartAuction(ctx context.Context, auctionID uuid.UUID, actor auth.Actor) (*domain.Auction, error) {
	auction, err := uc.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeManager(auction, actor); err != nil {
		return nil, err
	}

	lots, err := uc.lotRepo.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("start auction: failed to list lots: %w", err)
	}
	if len(lots) == 0 {
		return nil, &domain.ValidationError{Field: "lots", Reason: "auction needs at least one lot before starting"}
	}

	if err := auction.Start(); err != nil {
		return nil, err
	}

	first := lots[0]
	expectedVersion := first.Version
	if err := first.Activate(); err != nil {
		return nil, err
	}

	tx, err := uc.txs.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("start auction: failed to begin transaction: %w", err)
	}
	if err := uc.auctionRepo.Save(ctx, tx, auction); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("start auction: %w", err)
	}
	if err := uc.lotRepo.Update(ctx, tx, first, expectedVersion); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("start auction: failed to activate first lot: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("start auction: failed to commit: %w", err)
	}

	uc.publisher.Publish(ctx, domain.NewAuctionStatusChangedEvent(auction))
	log.Info("Auction started",
		zap.String("auctionID", auction.ID.String()),
		zap.String("firstLotID", first.ID.String()),
	)
	return auction, nil
}

// EndAuction settles every unresolved lot and completes the auction.
func (uc *RegistryUseCase) EndAuction(ctx context.Context, auctionID uuid.UUID, actor auth.Actor) (*domain.Auction, error) {
	auction, err := uc.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeManager(auction, actor); err != nil {
		return nil, err
	}
	if auction.Status != domain.AuctionLive {
		return nil, &domain.InvalidStateError{Entity: "auction", State: string(auction.Status)}
	}

	// Finalization runs before the status flips: once it has settled a lot,
	// the lot's terminal state rejects any late bid regardless.
	if err := uc.finalizeUC.Execute(ctx, auctionID); err != nil {
		return nil, err
	}

	if err := auction.Complete(); err != nil {
		return nil, err
	}
	if err := uc.saveAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("end auction: %w", err)
	}

	uc.publisher.Publish(ctx, domain.NewAuctionStatusChangedEvent(auction))
	log.Info("Auction completed", zap.String("auctionID", auction.ID.String()))
	return auction, nil
}

// CancelAuction voids the whole auction: every unresolved lot becomes
// unsold, every unresolved bid becomes lost, nothing is sold.
func (uc *RegistryUseCase) CancelAuction(ctx context.Context, auctionID uuid.UUID, actor auth.Actor) (*domain.Auction, error) {
	auction, err := uc.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeManager(auction, actor); err != nil {
		return nil, err
	}
	if err := auction.Cancel(); err != nil {
		return nil, err
	}

	lots, err := uc.lotRepo.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("cancel auction: failed to list lots: %w", err)
	}

	tx, err := uc.txs.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cancel auction: failed to begin transaction: %w", err)
	}
	voided := make([]*domain.Lot, 0, len(lots))
	for _, lot := range lots {
		if lot.Resolved() {
			continue
		}
		expectedVersion := lot.Version
		if err := lot.Void(); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("cancel auction: %w", err)
		}
		if err := uc.lotRepo.Update(ctx, tx, lot, expectedVersion); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("cancel auction: failed to void lot %s: %w", lot.ID, err)
		}
		voided = append(voided, lot)
	}
	if err := uc.bidRepo.VoidByAuction(ctx, tx, auctionID); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("cancel auction: failed to void bids: %w", err)
	}
	if err := uc.auctionRepo.Save(ctx, tx, auction); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("cancel auction: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("cancel auction: failed to commit: %w", err)
	}

	for _, lot := range voided {
		uc.publisher.Publish(ctx, domain.NewLotResolvedEvent(lot))
	}
	uc.publisher.Publish(ctx, domain.NewAuctionStatusChangedEvent(auction))
	log.Info("Auction cancelled", zap.String("auctionID", auction.ID.String()))
	return auction, nil
}

// CloseLot resolves the current live lot and activates the next available
// one, keeping a single live lot per auction. When no lot remains the
// auction stays live until EndAuction.
func (uc *RegistryUseCase) CloseLot(ctx context.Context, lotID uuid.UUID, actor auth.Actor) (*domain.Lot, error) {
	lot, err := uc.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	auction, err := uc.auctionRepo.GetByID(ctx, lot.AuctionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeManager(auction, actor); err != nil {
		return nil, err
	}
	if auction.Status != domain.AuctionLive {
		return nil, &domain.InvalidStateError{Entity: "auction", State: string(auction.Status)}
	}
	if lot.Status != domain.LotLive {
		return nil, &domain.InvalidStateError{Entity: "lot", State: string(lot.Status)}
	}

	// settlement and next-lot activation commit together; a failure leaves
	// the current lot live and the close retryable
	if err := uc.finalizeUC.settleLotAndAdvance(ctx, lotID); err != nil {
		return nil, err
	}

	return uc.lotRepo.GetByID(ctx, lotID)
}

func (uc *RegistryUseCase) GetAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return uc.auctionRepo.GetByID(ctx, id)
}

func (uc *RegistryUseCase) ListAuctions(ctx context.Context, status domain.AuctionStatus) ([]*domain.Auction, error) {
	return uc.auctionRepo.List(ctx, status)
}

func (uc *RegistryUseCase) ListAuctionLots(ctx context.Context, auctionID uuid.UUID) ([]*domain.Lot, error) {
	if _, err := uc.auctionRepo.GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return uc.lotRepo.ListByAuction(ctx, auctionID)
}

func (uc *RegistryUseCase) saveAuction(ctx context.Context, auction *domain.Auction) error {
	tx, err := uc.txs.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := uc.auctionRepo.Save(ctx, tx, auction); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// authorizeManager gates the lifecycle operations: only the creator or an
// admin may drive an auction.
func authorizeManager(auction *domain.Auction, actor auth.Actor) error {
	if actor.ID == auction.CreatorID || actor.IsAdmin() {
		return nil
	}
	return domain.ErrNotAuthorized
}
