package websocket

import (
	"context"
	"encoding/json"

	"github.com/bidstation/engine/internal/auction/domain"
	sharedws "github.com/bidstation/engine/internal/shared/websocket"
	"go.uber.org/zap"
)

// HubPublisher fans committed events out to the local hub's auction rooms.
// Fire-and-forget: a marshal failure is logged and the event dropped, the
// bid path never sees it.
type HubPublisher struct {
	hub *sharedws.Hub
}

func NewHubPublisher(hub *sharedws.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(ctx context.Context, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to marshal event for broadcast",
			zap.String("auctionID", event.AuctionID.String()),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
		return
	}
	p.hub.BroadcastToAuction(event.AuctionID.String(), data)
}
