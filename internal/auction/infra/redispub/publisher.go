// Package redispub carries the auction event stream over Redis Pub/Sub so
// that websocket subscribers on any node see events committed on any other
// node. The publisher replaces the in-process hub publisher when REDIS_ADDR
// is configured; the bridge feeds the local hub from the shared channel.
package redispub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/bidstation/engine/internal/shared/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const channelPrefix = "auction_events:"

// Publisher implements domain.EventPublisher over Redis Pub/Sub. Publish is
// best-effort: a Redis failure is logged and dropped, never surfaced to the
// bid path.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(addr, password string, db int) (*Publisher, error) {
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

	return &Publisher{client: rdb}, nil
}

func (p *Publisher) Publish(ctx context.Context, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to marshal event for redis publish",
			zap.String("auctionID", event.AuctionID.String()),
			zap.Error(err),
		)
		return
	}
	channel := channelPrefix + event.AuctionID.String()
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		log.Error("failed to publish event to redis",
			zap.String("channel", channel),
			zap.Error(err),
		)
	}
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
