package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bidstation/engine/internal/auction/application"
	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/bidstation/engine/internal/auth"
	"github.com/bidstation/engine/internal/shared/logger"
	sharedws "github.com/bidstation/engine/internal/shared/websocket"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionWSHandler owns the auction side of the ws traffic: subscriptions
// to auction rooms, the initial snapshot, and inbound client_bid messages.
type AuctionWSHandler struct {
	auctionService application.AuctionService
	hub            *sharedws.Hub
}

func NewAuctionWSHandler(auctionService application.AuctionService, hub *sharedws.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{
		auctionService: auctionService,
		hub:            hub,
	}
}

// Serve is the connection handler mounted behind the authenticated
// /ws/auctions/:id route. It registers the client in the auction room,
// pushes the initial snapshot and runs the pumps.
func (h *AuctionWSHandler) Serve(ctx context.Context) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		actor, ok := conn.Locals("actor").(auth.Actor)
		if !ok {
			_ = conn.Close()
			return
		}
		auctionID, err := uuid.Parse(conn.Params("id"))
		if err != nil {
			_ = conn.Close()
			return
		}

		client := &sharedws.Client{
			Hub:       h.hub,
			Conn:      conn,
			Send:      make(chan []byte, 16),
			AuctionID: auctionID.String(),
			ID:        uuid.NewString(),
			UserID:    actor.ID.String(),
		}
		h.hub.RegisterClient(client)

		h.sendInitialState(ctx, client, auctionID)

		go client.WritePump(ctx)
		client.ReadPump(ctx) // blocks until the connection drops
	}
}

// ListenForMessages consumes the hub's inbound channel and processes every
// message. Runs as one goroutine for the process lifetime.
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("AuctionWSHandler listening for inbound ws messages")
	for {
		select {
		case <-ctx.Done():
			log.Info("AuctionWSHandler stopped")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

func (h *AuctionWSHandler) processMessage(ctx context.Context, client *sharedws.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendErrorToClient(client, "invalid message format", "")
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid:
		h.handleClientBidMessage(ctx, client, data)
	default:
		h.sendErrorToClient(client, "unknown message type", "")
	}
}

func (h *AuctionWSHandler) handleClientBidMessage(ctx context.Context, client *sharedws.Client, data []byte) {
	var bidMsg ClientBidMessage
	if err := json.Unmarshal(data, &bidMsg); err != nil {
		h.sendErrorToClient(client, "invalid bid message format", "")
		return
	}

	bidderID, err := uuid.Parse(client.UserID)
	if err != nil {
		h.sendErrorToClient(client, "invalid session", "")
		return
	}

	cmd := application.PlaceBidDTO{
		LotID:    bidMsg.Payload.LotID,
		BidderID: bidderID,
		Team:     bidMsg.Payload.Team,
		Amount:   bidMsg.Payload.Amount,
	}
	if _, err := h.auctionService.PlaceBid(ctx, cmd); err != nil {
		var stale *domain.StaleBidError
		if errors.As(err, &stale) {
			h.sendErrorToClient(client, err.Error(), stale.CurrentPrice.StringFixed(2))
			return
		}
		h.sendErrorToClient(client, err.Error(), "")
		return
	}
	// the accepted bid reaches every room subscriber through the publisher,
	// nothing extra to send here
}

func (h *AuctionWSHandler) sendInitialState(ctx context.Context, client *sharedws.Client, auctionID uuid.UUID) {
	auction, err := h.auctionService.GetAuction(ctx, auctionID)
	if err != nil {
		h.sendErrorToClient(client, "auction not found", "")
		return
	}
	lots, err := h.auctionService.ListAuctionLots(ctx, auctionID)
	if err != nil {
		h.sendErrorToClient(client, "failed to load auction lots", "")
		return
	}

	msg := ServerInitialStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerInitialState},
	}
	msg.Payload.AuctionID = auction.ID
	msg.Payload.Status = string(auction.Status)
	for _, lot := range lots {
		state, err := h.auctionService.GetLotState(ctx, lot.ID)
		if err != nil {
			continue
		}
		msg.Payload.Lots = append(msg.Payload.Lots, state)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal initial state", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("client send channel full, initial state dropped",
			zap.String("clientID", client.ID))
	}
}

func (h *AuctionWSHandler) sendErrorToClient(client *sharedws.Client, errorMessage, currentPrice string) {
	errMsg := ServerErrorMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerError},
	}
	errMsg.Payload.Error = errorMessage
	errMsg.Payload.CurrentPrice = currentPrice
	data, err := json.Marshal(errMsg)
	if err != nil {
		log.Error("failed to marshal ServerErrorMessage", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("client send channel full or closed, could not send error msg")
	}
}
