package application

import (
	"context"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/google/uuid"
)

// GetLotBidsUseCase reads the bid history of a lot, newest first. Read-only
// and bounded by the lot's bid count.
type GetLotBidsUseCase struct {
	lotRepo domain.LotRepository
	bidRepo domain.BidRepository
}

func NewGetLotBidsUseCase(lotRepo domain.LotRepository, bidRepo domain.BidRepository) *GetLotBidsUseCase {
	return &GetLotBidsUseCase{
		lotRepo: lotRepo,
		bidRepo: bidRepo,
	}
}

func (uc *GetLotBidsUseCase) Execute(ctx context.Context, lotID uuid.UUID) ([]*domain.Bid, error) {
	// existence check first so an unknown lot is a 404, not an empty list
	if _, err := uc.lotRepo.GetByID(ctx, lotID); err != nil {
		return nil, err
	}
	return uc.bidRepo.ListByLot(ctx, lotID)
}
