// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	FramesReceived     prometheus.Counter
	FramesDropped      prometheus.Counter
	MessagesReceived   prometheus.Counter
	MessagesSent       prometheus.Counter
	ReconnectAttempts  prometheus.Counter
	ReconnectExhausted prometheus.Counter
	SettingsWrites     prometheus.Counter

	// Histograms (seconds)
	HTTPRequestDuration prometheus.Observer

	// Gauges
	ConnectedGauge prometheus.Gauge // 1=connected, 0=not
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		FramesReceived = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_frames_received_total", Help: "Number of wire frames received"})
		FramesDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_frames_dropped_total", Help: "Number of malformed frames dropped"})
		MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_received_total", Help: "Number of chat messages received"})
		MessagesSent = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_sent_total", Help: "Number of chat messages sent"})
		ReconnectAttempts = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_reconnect_attempts_total", Help: "Number of automatic reconnection attempts"})
		ReconnectExhausted = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_reconnect_exhausted_total", Help: "Number of times the reconnect attempt cap was reached"})
		SettingsWrites = promauto.NewCounter(prometheus.CounterOpts{Name: "settings_writes_total", Help: "Number of settings write operations"})
		HTTPRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration seconds", Buckets: prometheus.DefBuckets})
		ConnectedGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_connected", Help: "Chat connection up=1 down=0"})
	})
}

// SetConnected updates the connection gauge.
func SetConnected(up bool) {
	if ConnectedGauge != nil {
		if up {
			ConnectedGauge.Set(1)
		} else {
			ConnectedGauge.Set(0)
		}
	}
}

// CountFrameReceived increments the received-frame counter.
func CountFrameReceived() {
	if FramesReceived != nil {
		FramesReceived.Inc()
	}
}

// CountFrameDropped increments the dropped-frame counter.
func CountFrameDropped() {
	if FramesDropped != nil {
		FramesDropped.Inc()
	}
}

// CountMessageReceived increments the inbound message counter.
func CountMessageReceived() {
	if MessagesReceived != nil {
		MessagesReceived.Inc()
	}
}

// CountMessageSent increments the outbound message counter.
func CountMessageSent() {
	if MessagesSent != nil {
		MessagesSent.Inc()
	}
}

// CountReconnectAttempt increments the reconnect attempt counter.
func CountReconnectAttempt() {
	if ReconnectAttempts != nil {
		ReconnectAttempts.Inc()
	}
}

// CountReconnectExhausted increments the exhaustion counter.
func CountReconnectExhausted() {
	if ReconnectExhausted != nil {
		ReconnectExhausted.Inc()
	}
}

// CountSettingsWrite increments the settings write counter.
func CountSettingsWrite() {
	if SettingsWrites != nil {
		SettingsWrites.Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
