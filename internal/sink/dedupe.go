package sink

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/praneshkm/evconv/internal/event"
	"github.com/praneshkm/evconv/internal/metrics"
)

// Deduper wraps another sink with a Redis SETNX guard keyed by message_id:
// a message_id that was already published within the TTL window is skipped.
// On Redis failure it fails open and publishes anyway, since an occasional
// duplicate is cheaper than losing an event.
type Deduper struct {
	next Sink
	rdb  *redis.Client
	ttl  time.Duration
}

// NewDeduper creates a Deduper in front of next, using the Redis at addr.
func NewDeduper(next Sink, addr string, ttl time.Duration) *Deduper {
	return &Deduper{
		next: next,
		rdb:  redis.NewClient(&redis.Options{Addr: addr}),
		ttl:  ttl,
	}
}

// DedupeKey returns the Redis key guarding one message_id.
func DedupeKey(messageID string) string {
	return "evconv:published:" + messageID
}

func (d *Deduper) Publish(ctx context.Context, messageID string, ev *event.Event) error {
	fresh, err := d.rdb.SetNX(ctx, DedupeKey(messageID), 1, d.ttl).Result()
	if err != nil {
		slog.Warn("dedupe guard unavailable, publishing anyway",
			"message_id", messageID, "err", err)
		return d.next.Publish(ctx, messageID, ev)
	}
	if !fresh {
		metrics.DuplicatesSuppressed.Inc()
		slog.Debug("duplicate event suppressed", "message_id", messageID)
		return nil
	}
	return d.next.Publish(ctx, messageID, ev)
}

func (d *Deduper) Close() error {
	if err := d.rdb.Close(); err != nil {
		return err
	}
	return d.next.Close()
}
