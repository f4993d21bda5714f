package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evconv_notifications_enqueued_total",
		Help: "Total number of notifications placed on the conversion queue.",
	})

	NotificationsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evconv_notifications_rejected_total",
		Help: "Total number of notifications rejected due to a full queue.",
	})

	EventsConverted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evconv_events_converted_total",
		Help: "Total number of notifications successfully converted to events.",
	})

	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evconv_notifications_dropped_total",
		Help: "Total number of notifications dropped because no definition matched.",
	})

	ConversionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evconv_conversion_errors_total",
		Help: "Total number of per-notification conversion failures, labelled by event type.",
	}, []string{"event_type"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evconv_events_published_total",
		Help: "Total number of events handed to the sink, labelled by status.",
	}, []string{"status"})

	DuplicatesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evconv_duplicates_suppressed_total",
		Help: "Total number of events skipped by the idempotency guard.",
	})

	ConversionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evconv_conversion_duration_ms",
		Help:    "End-to-end conversion latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evconv_queue_utilization_ratio",
		Help: "Current conversion queue utilization (0–1).",
	})
)
