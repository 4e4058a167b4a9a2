// Package relay forwards flushed match events to Redis pub/sub so external
// consumers (overlays, stat collectors) can follow a match live.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"team-deathmatch/internal/eventlog"
)

// Publisher abstracts the pub/sub client for testability
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// RedisPublisher implements Publisher on a go-redis client
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher connects to the Redis instance at url and verifies it
// answers a ping.
func NewRedisPublisher(ctx context.Context, url string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisPublisher{client: client}, nil
}

// Publish sends one message to channel
func (p *RedisPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	return p.client.Publish(ctx, channel, message).Err()
}

// Close releases the client connection pool
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// Relay is an eventlog.Sink publishing each event to <prefix>:<matchID>
type Relay struct {
	pub    Publisher
	prefix string
	log    *zap.SugaredLogger
}

// New creates a relay over pub
func New(pub Publisher, prefix string, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		pub:    pub,
		prefix: prefix,
		log:    logger.Sugar().Named("relay"),
	}
}

// Channel returns the channel events of matchID are published to
func (r *Relay) Channel(matchID string) string {
	return r.prefix + ":" + matchID
}

// Publish implements eventlog.Sink. Every event is attempted; failures are
// joined into the returned error.
func (r *Relay) Publish(ctx context.Context, batch []eventlog.Event) error {
	var errs []error
	for _, ev := range batch {
		data, err := json.Marshal(ev)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode event %d: %w", ev.Sequence, err))
			continue
		}
		if err := r.pub.Publish(ctx, r.Channel(ev.MatchID), data); err != nil {
			errs = append(errs, fmt.Errorf("publish event %d: %w", ev.Sequence, err))
		}
	}
	if len(errs) > 0 {
		r.log.Debugw("Relay batch partially failed", "failed", len(errs), "events", len(batch))
	}
	return errors.Join(errs...)
}
