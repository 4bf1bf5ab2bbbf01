// Package server exposes the HTTP control surface: health, activity status,
// settings, message history, and metrics. It includes permissive CORS for
// development and injects correlation IDs into request contexts for
// consistent logging.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lolnuked/streamguard/telemetry"
)

// NewMux returns the HTTP handler with all routes.
// The provided context is used for rate limiter cleanup goroutine lifecycle.
func NewMux(ctx context.Context, deps Deps) http.Handler {
	authCfg := loadAuthConfig()
	corsCfg := loadCORSConfig()
	rateLimiter := newIPRateLimiter(ctx, loadRateLimiterConfig())

	handlers := NewHandlers(deps)

	mux := http.NewServeMux()

	// Metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/readyz", handlers.HandleReadyz)

	// Activity status for the control surface
	mux.HandleFunc("/status", handlers.HandleStatus)

	// Settings endpoints
	mux.HandleFunc("/settings", handlers.HandleSettings)
	mux.HandleFunc("/settings/replies", handlers.HandleReplies)
	mux.HandleFunc("/settings/replies/defaults", handlers.HandleDefaultReplies)

	// Chat endpoints
	mux.HandleFunc("/messages", handlers.HandleMessages)
	mux.HandleFunc("/messages/latest", handlers.HandleLatestMessage)
	mux.HandleFunc("/send", handlers.HandleSend)
	mux.HandleFunc("/activate", handlers.HandleActivate)

	// Runtime config overrides
	mux.HandleFunc("/config", handlers.HandleConfig)

	// Mutating endpoints get admin auth plus rate limiting; reads are open.
	selectiveHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isMutating(r) {
			adminAuth(rateLimitMiddleware(mux, rateLimiter), authCfg).ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	// Wrap with correlation ID injector and tracing middleware
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Reuse corr header if provided else generate
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path,
			telemetry.HTTPMethodAttr(r.Method),
			telemetry.HTTPRouteAttr(r.URL.Path),
			telemetry.HTTPURLAttr(r.URL.String()),
		)
		defer span.End()

		telemetry.LoggerWithCorr(ctx).Debug("request start", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("component", "http"))

		wrappedWriter := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		selectiveHandler.ServeHTTP(wrappedWriter, r.WithContext(ctx))
		if telemetry.HTTPRequestDuration != nil {
			telemetry.HTTPRequestDuration.Observe(time.Since(start).Seconds())
		}

		telemetry.SetSpanHTTPStatus(span, wrappedWriter.statusCode)
		if wrappedWriter.statusCode >= 400 {
			code, msg := telemetry.ErrorStatus(fmt.Sprintf("HTTP %d", wrappedWriter.statusCode))
			span.SetStatus(code, msg)
		}
	})
	return withCORSConfig(handler, corsCfg)
}

// isMutating selects the endpoints protected by admin auth and rate limiting.
func isMutating(r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodOptions || r.Method == http.MethodHead {
		return false
	}
	switch {
	case r.URL.Path == "/send", r.URL.Path == "/activate":
		return true
	case r.URL.Path == "/config":
		return true
	case strings.HasPrefix(r.URL.Path, "/settings"):
		return true
	}
	return false
}

// statusRecorder wraps ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, deps Deps, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewMux(ctx, deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// Use WithoutCancel to inherit context values but allow shutdown to complete
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
