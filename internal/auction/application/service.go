package application

import (
	"context"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/bidstation/engine/internal/auth"
	"github.com/google/uuid"
)

// AuctionService is the application-layer interface of the auction module,
// consumed by the HTTP and websocket adapters.
type AuctionService interface {
	CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error)
	AddLot(ctx context.Context, cmd AddLotDTO, actor auth.Actor) (*domain.Lot, error)
	StartAuction(ctx context.Context, auctionID uuid.UUID, actor auth.Actor) (*domain.Auction, error)
	EndAuction(ctx context.Context, auctionID uuid.UUID, actor auth.Actor) (*domain.Auction, error)
	CancelAuction(ctx context.Context, auctionID uuid.UUID, actor auth.Actor) (*domain.Auction, error)
	CloseLot(ctx context.Context, lotID uuid.UUID, actor auth.Actor) (*domain.Lot, error)

	PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error)
	GetLotBids(ctx context.Context, lotID uuid.UUID) ([]*domain.Bid, error)

	GetAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error)
	ListAuctions(ctx context.Context, status domain.AuctionStatus) ([]*domain.Auction, error)
	ListAuctionLots(ctx context.Context, auctionID uuid.UUID) ([]*domain.Lot, error)
	GetLotState(ctx context.Context, lotID uuid.UUID) (*LotStateDTO, error)

	Finalize(ctx context.Context, auctionID uuid.UUID) error
}

type auctionService struct {
	registryUC    *RegistryUseCase
	placeBidUC    *PlaceBidUseCase
	finalizeUC    *FinalizeUseCase
	getLotStateUC *GetLotStateUseCase
	getLotBidsUC  *GetLotBidsUseCase
}

func NewAuctionService(
	registryUC *RegistryUseCase,
	placeBidUC *PlaceBidUseCase,
	finalizeUC *FinalizeUseCase,
	getLotStateUC *GetLotStateUseCase,
	getLotBidsUC *GetLotBidsUseCase,
) AuctionService {
	return &auctionService{
		registryUC:    registryUC,
		placeBidUC:    placeBidUC,
		finalizeUC:    finalizeUC,
		getLotStateUC: getLotStateUC,
		getLotBidsUC:  getLotBidsUC,
	}
}

func (as *auctionService) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error) {
	return as.registryUC.CreateAuction(ctx, cmd)
}

func (as *auctionService) AddLot(ctx context.Context, cmd AddLotDTO, actor auth.Actor) (*domain.Lot, error) {
	return as.registryUC.AddLot(ctx, cmd, actor)
}

func (as *auctionService) StartAuction(ctx context.Context, auctionID uuid.UUID, actor auth.Actor) (*domain.Auction, error) {
	return as.registryUC.StartAuction(ctx, auctionID, actor)
}

func (as *auctionService) EndAuction(ctx context.Context, auctionID uuid.UUID, actor auth.Actor) (*domain.Auction, error) {
	return as.registryUC.EndAuction(ctx, auctionID, actor)
}

func (as *auctionService) CancelAuction(ctx context.Context, auctionID uuid.UUID, actor auth.Actor) (*domain.Auction, error) {
	return as.registryUC.CancelAuction(ctx, auctionID, actor)
}

func (as *auctionService) CloseLot(ctx context.Context, lotID uuid.UUID, actor auth.Actor) (*domain.Lot, error) {
	return as.registryUC.CloseLot(ctx, lotID, actor)
}

func (as *auctionService) PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error) {
	return as.placeBidUC.Execute(ctx, cmd)
}

func (as *auctionService) GetLotBids(ctx context.Context, lotID uuid.UUID) ([]*domain.Bid, error) {
	return as.getLotBidsUC.Execute(ctx, lotID)
}

func (as *auctionService) GetAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return as.registryUC.GetAuction(ctx, id)
}

func (as *auctionService) ListAuctions(ctx context.Context, status domain.AuctionStatus) ([]*domain.Auction, error) {
	return as.registryUC.ListAuctions(ctx, status)
}

func (as *auctionService) ListAuctionLots(ctx context.Context, auctionID uuid.UUID) ([]*domain.Lot, error) {
	return as.registryUC.ListAuctionLots(ctx, auctionID)
}

func (as *auctionService) GetLotState(ctx context.Context, lotID uuid.UUID) (*LotStateDTO, error) {
	return as.getLotStateUC.Execute(ctx, lotID)
}

func (as *auctionService) Finalize(ctx context.Context, auctionID uuid.UUID) error {
	return as.finalizeUC.Execute(ctx, auctionID)
}
