package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/breachops/ghostnet/go/internal/config"
	"github.com/breachops/ghostnet/go/internal/game"
	"github.com/breachops/ghostnet/go/internal/game/gateway"
	"github.com/breachops/ghostnet/go/internal/game/puzzle"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(logLevel())

	configPath := os.Getenv("GHOSTNET_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}

	ladder := make([]game.Node, len(cfg.Ladder))
	for i, node := range cfg.Ladder {
		ladder[i] = game.Node{ID: node.ID, Name: node.Name, RequiredHacks: node.RequiredHacks}
	}

	engine, err := puzzle.NewEngine(cfg.Puzzles)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build puzzle engine")
	}

	registry := gateway.NewRegistry()
	broadcaster := gateway.NewBroadcaster(registry)

	rules := game.Rules{
		TimeBudgetSec: cfg.Session.TimeBudgetSec,
		MaxLives:      cfg.Session.MaxLives,
		CorrectPoints: cfg.Session.CorrectPoints,
		NodeBonus:     cfg.Session.NodeBonus,
	}
	coordinator := game.NewCoordinator(ladder, rules, engine, broadcaster, clockwork.NewRealClock())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := coordinator.Run(ctx); err != nil {
			log.Error().Err(err).Msg("coordinator stopped with error")
		}
	}()

	handler := gateway.NewHandler(registry, coordinator, connectionConfig(cfg))
	server, listener, err := setupServer(cfg, handler)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up server")
	}

	log.Info().
		Str("session_id", coordinator.SessionID().String()).
		Str("port", cfg.Server.Port).
		Int("nodes", len(ladder)).
		Msg("starting ghostnet session server")

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

func logLevel() zerolog.Level {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		log.Warn().Str("log_level", raw).Msg("unknown log level, using info")
		return zerolog.InfoLevel
	}
	return level
}

func connectionConfig(cfg *config.Config) gateway.ConnectionConfig {
	connCfg := gateway.DefaultConnectionConfig()
	if len(cfg.Server.AllowedOrigins) > 0 && cfg.Server.AllowedOrigins[0] != "*" {
		allowed := make(map[string]bool, len(cfg.Server.AllowedOrigins))
		for _, origin := range cfg.Server.AllowedOrigins {
			allowed[origin] = true
		}
		connCfg.CheckOrigin = func(r *http.Request) bool {
			return allowed[r.Header.Get("Origin")]
		}
	}
	return connCfg
}
