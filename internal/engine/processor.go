// Package engine runs the pure conversion core behind a bounded worker pool
// and routes the outcome of each notification: converted events go to the
// sink, unmatched notifications are logged and counted as drops, coercion
// failures are quarantined without stopping the stream.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/praneshkm/evconv/internal/config"
	"github.com/praneshkm/evconv/internal/convert"
	"github.com/praneshkm/evconv/internal/event"
	"github.com/praneshkm/evconv/internal/metrics"
	"github.com/praneshkm/evconv/internal/notification"
	"github.com/praneshkm/evconv/internal/sink"
)

// Result is the outcome of processing a single notification.
type Result struct {
	MessageID  string       `json:"message_id"`
	EventType  string       `json:"event_type"`
	DurationMs int64        `json:"duration_ms"`
	Dropped    bool         `json:"dropped"`
	Event      *event.Event `json:"event,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Processor feeds notifications through the conversion engine and on to the
// sink. The engine pointer is swapped atomically on hot-reload; everything
// behind it is immutable.
type Processor struct {
	conv atomic.Pointer[convert.Engine]
	out  sink.Sink
	pool *workerPool[*work]
	conf *config.EngineConf
}

type work struct {
	body    notification.Body
	resultC chan *Result
}

// New creates a Processor using conf and starts its worker pool.
func New(ctx context.Context, conv *convert.Engine, out sink.Sink, conf config.EngineConf) *Processor {
	p := &Processor{out: out, conf: &conf}
	p.conv.Store(conv)
	p.pool = newWorkerPool(ctx, conf.Workers, conf.QueueDepth, func(ctx context.Context, w *work) {
		res := p.process(ctx, w.body)
		if w.resultC != nil {
			w.resultC <- res
		}
	})
	return p
}

// SwapEngine atomically replaces the conversion engine (used on hot-reload).
func (p *Processor) SwapEngine(conv *convert.Engine) {
	p.conv.Store(conv)
}

// RuleCount returns the size of the active rule table.
func (p *Processor) RuleCount() int {
	return p.conv.Load().RuleCount()
}

// ProcessSync converts a notification and waits for the result.
func (p *Processor) ProcessSync(ctx context.Context, body notification.Body) (*Result, error) {
	resultC := make(chan *Result, 1)
	if !p.pool.Submit(&work{body: body, resultC: resultC}) {
		metrics.NotificationsRejected.Inc()
		return nil, fmt.Errorf("conversion queue full (capacity %d)", p.conf.QueueDepth)
	}
	metrics.NotificationsEnqueued.Inc()

	timeout := time.Duration(p.conf.ConvertTimeoutMs) * time.Millisecond
	select {
	case res := <-resultC:
		return res, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("conversion timeout after %v", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessAsync enqueues a notification for background conversion. Returns
// false if the queue is full.
func (p *Processor) ProcessAsync(body notification.Body) bool {
	if !p.pool.Submit(&work{body: body}) {
		metrics.NotificationsRejected.Inc()
		return false
	}
	metrics.NotificationsEnqueued.Inc()
	return true
}

// QueueUtilization returns queue used / capacity (0–1).
func (p *Processor) QueueUtilization() float64 {
	if p.pool.QueueCap() == 0 {
		return 0
	}
	return float64(p.pool.QueueLen()) / float64(p.pool.QueueCap())
}

func (p *Processor) process(ctx context.Context, body notification.Body) *Result {
	start := time.Now()
	res := &Result{
		MessageID: body.MessageID(),
		EventType: body.EventType(),
	}

	ev, err := p.conv.Load().Convert(body)
	switch {
	case err != nil:
		// Per-message failure: quarantine this notification, keep the
		// stream moving.
		metrics.ConversionErrors.WithLabelValues(res.EventType).Inc()
		slog.Warn("notification conversion failed",
			"event_type", res.EventType, "message_id", res.MessageID, "err", err)
		res.Error = err.Error()
	case ev == nil:
		metrics.NotificationsDropped.Inc()
		slog.Debug("dropping notification",
			"event_type", res.EventType, "message_id", res.MessageID)
		res.Dropped = true
	default:
		metrics.EventsConverted.Inc()
		res.Event = ev
		if err := p.out.Publish(ctx, res.MessageID, ev); err != nil {
			metrics.EventsPublished.WithLabelValues("error").Inc()
			slog.Error("event publish failed",
				"event_type", ev.Type, "message_id", res.MessageID, "err", err)
			res.Error = err.Error()
		} else {
			metrics.EventsPublished.WithLabelValues("success").Inc()
		}
	}

	res.DurationMs = time.Since(start).Milliseconds()
	metrics.ConversionDuration.Observe(float64(res.DurationMs))
	return res
}

// Shutdown drains the pool gracefully.
func (p *Processor) Shutdown() {
	p.pool.Drain()
}
