package main

import (
	"fmt"
	"net"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/netutil"

	"github.com/breachops/ghostnet/go/internal/config"
	"github.com/breachops/ghostnet/go/internal/game/gateway"
)

func setupServer(cfg *config.Config, handler *gateway.Handler) (*http.Server, net.Listener, error) {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	handler.RegisterRoutes(mux)
	setupHealthCheck(mux)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.Port))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on port %s: %w", cfg.Server.Port, err)
	}

	// Cap concurrent transports at the listener; the registry only ever
	// holds two, but upgrade attempts should not pile up unbounded.
	if cfg.Server.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.Server.MaxConnections)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: c.Handler(mux),
	}

	return server, listener, nil
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
