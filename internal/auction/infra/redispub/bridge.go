package redispub

import (
	"context"
	"fmt"
	"strings"
	"time"

	sharedws "github.com/bidstation/engine/internal/shared/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bridge subscribes to every auction event channel and replays the raw
// payloads into the local hub, so clients connected to this node receive
// events regardless of which node committed them.
type Bridge struct {
	client *redis.Client
	hub    *sharedws.Hub
}

func NewBridge(addr, password string, db int, hub *sharedws.Hub) (*Bridge, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Bridge{client: rdb, hub: hub}, nil
}

// Run blocks consuming the pattern subscription until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	log.Info("Redis event bridge started")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis subscription channel closed")
			}
			auctionID := AuctionIDFromChannel(msg.Channel)
			if auctionID == "" {
				log.Warn("ignoring message on unexpected channel", zap.String("channel", msg.Channel))
				continue
			}
			b.hub.BroadcastToAuction(auctionID, []byte(msg.Payload))
		}
	}
}

func (b *Bridge) Close() error {
	return b.client.Close()
}

// AuctionIDFromChannel extracts the auction ID from a channel name, e.g.
// "auction_events:4f1c..." -> "4f1c...". Empty when the prefix is missing.
func AuctionIDFromChannel(channel string) string {
	if !strings.HasPrefix(channel, channelPrefix) {
		return ""
	}
	return strings.TrimPrefix(channel, channelPrefix)
}
