// Command streamguard runs the chat moderation sidecar.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects the realtime chat client to the configured room and keeps a
//     bounded message history with automatic reconnection.
//   - Persists operational settings (action mode, auto-reply rules) in an
//     external key-value store shared with enforcement consumers.
//   - Archives inbound messages to Postgres when a database is available.
//   - Exposes an HTTP control surface with /healthz, /status, /settings,
//     /messages and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lolnuked/streamguard/chat"
	"github.com/lolnuked/streamguard/config"
	"github.com/lolnuked/streamguard/db"
	"github.com/lolnuked/streamguard/server"
	"github.com/lolnuked/streamguard/settings"
	"github.com/lolnuked/streamguard/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("streamguard", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Message archive (optional; the daemon runs without it)
	database, err := db.Connect(cfg.DBDsn)
	if err == nil {
		migrateCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = db.Migrate(migrateCtx, database)
		cancel()
	}
	if err != nil {
		slog.Warn("message archive disabled", slog.Any("err", err))
		database = nil
	} else {
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
	}

	// Settings store: redis when configured, in-memory fallback otherwise
	var store settings.Store
	if cfg.RedisAddr != "" {
		rs, err := settings.NewRedisStore(settings.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			slog.Error("settings store unavailable", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := rs.Close(); err != nil {
				slog.Error("failed to close settings store", slog.Any("err", err))
			}
		}()
		store = rs
	} else {
		slog.Warn("REDIS_ADDR not set; settings are not persisted across restarts")
		store = settings.NewMemStore()
	}
	settingsSvc := settings.NewService(store)

	// Chat client + monitor
	client := chat.New(chat.Options{
		Endpoint:            cfg.ChatEndpoint,
		RoomID:              cfg.ChatRoomID,
		Username:            cfg.ChatUsername,
		MessageHistoryLimit: cfg.ChatHistoryLimit,
	})
	monitor := chat.NewMonitor(client)
	settingsSvc.Subscribe(monitor)

	if database != nil {
		chat.StartRecorder(ctx, database, client)
	}

	if err := cfg.ValidateChatReady(); err != nil {
		slog.Info("chat monitor idle until a room is joined", slog.Any("reason", err))
	} else {
		monitor.Start(ctx)
	}

	// HTTP server (health/status/settings/messages/metrics)
	slog.Info("starting http server", slog.String("addr", cfg.HTTPAddr))
	deps := server.Deps{DB: database, Settings: settingsSvc, Client: client, Monitor: monitor}
	if err := server.Start(ctx, deps, cfg.HTTPAddr); err != nil {
		os.Exit(1)
	}
}
