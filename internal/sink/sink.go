// Package sink delivers converted events to their downstream consumer: a
// Kafka topic in production, the structured log in development. Persistence
// is idempotent keyed by the notification's message_id; the Deduper wrapper
// enforces that with a Redis guard.
package sink

import (
	"context"
	"log/slog"

	"github.com/praneshkm/evconv/internal/event"
)

// Sink receives converted events for persistence or republication.
type Sink interface {
	// Publish delivers one event, keyed by the source notification's
	// message_id.
	Publish(ctx context.Context, messageID string, ev *event.Event) error
	Close() error
}

// LogSink writes each event to the structured log. It is the default when no
// broker is configured.
type LogSink struct {
	Log *slog.Logger
}

func (s *LogSink) Publish(ctx context.Context, messageID string, ev *event.Event) error {
	s.Log.Info("event",
		"message_id", messageID,
		"event_type", ev.Type,
		"generated", ev.Generated,
		"traits", len(ev.Traits),
	)
	return nil
}

func (s *LogSink) Close() error { return nil }
