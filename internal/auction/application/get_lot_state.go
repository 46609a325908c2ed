package application

import (
	"context"
	"time"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotStateDTO is the output DTO exposing the lot snapshot to the UI/WS.
// Reconnecting subscribers fetch this instead of replaying events.
type LotStateDTO struct {
	LotID           uuid.UUID       `json:"lot_id"`
	AuctionID       uuid.UUID       `json:"auction_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	BasePrice       decimal.Decimal `json:"base_price"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	Status          string          `json:"status"`
	CurrentLeaderID *uuid.UUID      `json:"current_leader_id,omitempty"`
	LastBidAt       *time.Time      `json:"last_bid_at,omitempty"`
	BidCount        int             `json:"bid_count"`
}

// GetLotStateUseCase retrieves the current state of an auction lot.
type GetLotStateUseCase struct {
	lotRepo domain.LotRepository
	bidRepo domain.BidRepository
}

func NewGetLotStateUseCase(lotRepo domain.LotRepository, bidRepo domain.BidRepository) *GetLotStateUseCase {
	return &GetLotStateUseCase{
		lotRepo: lotRepo,
		bidRepo: bidRepo,
	}
}

func (uc *GetLotStateUseCase) Execute(ctx context.Context, lotID uuid.UUID) (*LotStateDTO, error) {
	lot, err := uc.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	bids, err := uc.bidRepo.ListByLot(ctx, lotID)
	if err != nil {
		return nil, err
	}

	return &LotStateDTO{
		LotID:           lot.ID,
		AuctionID:       lot.AuctionID,
		Name:            lot.Name,
		Description:     lot.Description,
		BasePrice:       lot.BasePrice,
		CurrentPrice:    lot.CurrentPrice,
		Status:          string(lot.Status),
		CurrentLeaderID: lot.CurrentLeaderID,
		LastBidAt:       lot.LastBidAt,
		BidCount:        len(bids),
	}, nil
}
