package http

import (
	"time"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createAuctionRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Kind         string          `json:"kind"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	MinIncrement decimal.Decimal `json:"min_increment"`
	Teams        []string        `json:"teams,omitempty"`
}

type addLotRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price"`
}

type placeBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Team   string          `json:"team,omitempty"`
}

type auctionResponse struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Kind         string          `json:"kind"`
	Status       string          `json:"status"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	MinIncrement decimal.Decimal `json:"min_increment"`
	CreatorID    uuid.UUID       `json:"creator_id"`
	Teams        []string        `json:"teams,omitempty"`
}

func toAuctionResponse(a *domain.Auction) auctionResponse {
	return auctionResponse{
		ID:           a.ID,
		Title:        a.Title,
		Description:  a.Description,
		Kind:         string(a.Kind),
		Status:       string(a.Status),
		StartTime:    a.StartTime,
		EndTime:      a.EndTime,
		MinIncrement: a.MinIncrement,
		CreatorID:    a.CreatorID,
		Teams:        a.Teams,
	}
}

type lotResponse struct {
	ID              uuid.UUID       `json:"id"`
	AuctionID       uuid.UUID       `json:"auction_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	BasePrice       decimal.Decimal `json:"base_price"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	Status          string          `json:"status"`
	CurrentLeaderID *uuid.UUID      `json:"current_leader_id,omitempty"`
	LastBidAt       *time.Time      `json:"last_bid_at,omitempty"`
}

func toLotResponse(l *domain.Lot) lotResponse {
	return lotResponse{
		ID:              l.ID,
		AuctionID:       l.AuctionID,
		Name:            l.Name,
		Description:     l.Description,
		BasePrice:       l.BasePrice,
		CurrentPrice:    l.CurrentPrice,
		Status:          string(l.Status),
		CurrentLeaderID: l.CurrentLeaderID,
		LastBidAt:       l.LastBidAt,
	}
}

type bidResponse struct {
	ID        uuid.UUID       `json:"id"`
	LotID     uuid.UUID       `json:"lot_id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func toBidResponse(b *domain.Bid) bidResponse {
	return bidResponse{
		ID:        b.ID,
		LotID:     b.LotID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
	}
}
