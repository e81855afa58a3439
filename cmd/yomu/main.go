// Command yomu is the entry point for the yomu text-to-speech reader bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yomubot/yomu/internal/config"
	discordbot "github.com/yomubot/yomu/internal/discord"
	"github.com/yomubot/yomu/internal/health"
	"github.com/yomubot/yomu/internal/locale"
	"github.com/yomubot/yomu/internal/observe"
	"github.com/yomubot/yomu/internal/profile"
	"github.com/yomubot/yomu/internal/session"
	"github.com/yomubot/yomu/internal/voices"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "yomu: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "yomu: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.Level(),
	}))
	slog.SetDefault(logger)

	slog.Info("yomu starting",
		"config", *configPath,
		"log_level", cfg.Server.LogLevel,
		"profiles", len(cfg.Profiles),
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "yomu"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Profile repository ────────────────────────────────────────────────────
	var repo profile.Repository
	var pool *pgxpool.Pool
	if cfg.Database.DSN != "" {
		pool, err = pgxpool.New(ctx, cfg.Database.DSN)
		if err != nil {
			slog.Error("failed to connect to postgres", "err", err)
			return 1
		}
		defer pool.Close()

		pg := profile.NewPostgresRepository(pool)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("failed to migrate profile schema", "err", err)
			return 1
		}
		repo = pg
		slog.Info("profile repository ready", "backend", "postgres")
	} else {
		repo = profile.NewMemoryRepository()
		slog.Warn("no database configured, voice preferences will not survive restarts")
	}

	// ── Voice presets ─────────────────────────────────────────────────────────
	buildOpts := voices.BuildOptions{Metrics: metrics}
	if needsGoogle(cfg) {
		client, err := texttospeech.NewClient(ctx)
		if err != nil {
			slog.Error("failed to create Google Cloud TTS client", "err", err)
			return 1
		}
		defer client.Close()
		buildOpts.Google = client
	}

	registry, err := voices.Build(cfg, buildOpts)
	if err != nil {
		slog.Error("failed to build voice registry", "err", err)
		return 1
	}
	slog.Info("voice registry ready", "presets", registry.Len())

	// ── Localization ──────────────────────────────────────────────────────────
	locales, err := locale.Load(cfg.Reader.Locale)
	if err != nil {
		slog.Error("failed to load message catalogs", "err", err)
		return 1
	}

	// ── Discord bot ───────────────────────────────────────────────────────────
	sessions := session.NewRegistry()
	resolver := profile.NewResolver(repo, cfg.Reader.DefaultProfile)

	bot, err := discordbot.New(ctx, cfg.Discord.Token, discordbot.Deps{
		Sessions:     sessions,
		Voices:       registry,
		Profiles:     repo,
		Resolver:     resolver,
		Locales:      locales,
		Metrics:      metrics,
		MessageLimit: cfg.Reader.MessageLimit,
	})
	if err != nil {
		slog.Error("failed to create Discord bot", "err", err)
		return 1
	}

	// ── Metrics and health endpoints ──────────────────────────────────────────
	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		checkers := []health.Checker{
			{Name: "discord", Check: func(_ context.Context) error {
				if bot.Session().State.User == nil {
					return errors.New("gateway not ready")
				}
				return nil
			}},
		}
		if pool != nil {
			checkers = append(checkers, health.Checker{Name: "database", Check: pool.Ping})
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		health.New(sessions.Len, checkers...).Register(mux)

		metricsSrv = &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux}
		go func() {
			slog.Info("metrics endpoint listening", "addr", cfg.Server.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "err", err)
			}
		}()
	}

	slog.Info("bot ready — press Ctrl+C to shut down")

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	// Ask every live session to say goodbye before the gateway drops.
	for _, guildID := range sessions.GuildIDs() {
		if info, ok := sessions.Get(guildID); ok {
			if err := info.Handle.Leave(shutdownCtx); err != nil {
				slog.Warn("session leave failed during shutdown", "guild_id", guildID, "err", err)
			}
			sessions.Remove(guildID)
		}
	}

	if err := bot.Close(); err != nil {
		slog.Warn("discord bot close error", "err", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown error", "err", err)
		}
	}

	slog.Info("goodbye")
	return 0
}

// needsGoogle reports whether any preset uses the Google Cloud backend.
func needsGoogle(cfg *config.Config) bool {
	for _, p := range cfg.Profiles {
		if p.Google != nil {
			return true
		}
	}
	return false
}
