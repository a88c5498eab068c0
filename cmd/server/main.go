package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Wyydra/ya-signal/internal/adapter/driven/gateway/ws"
	repo "github.com/Wyydra/ya-signal/internal/adapter/driven/persistence/memory"
	handler "github.com/Wyydra/ya-signal/internal/adapter/driving/http"
	"github.com/Wyydra/ya-signal/internal/config"
	"github.com/Wyydra/ya-signal/internal/core/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogger(cfg config.Config) {
	var w io.Writer = os.Stdout
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Caller().Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg)

	peers := repo.NewPeerRegistry()
	sessions := repo.NewSessionRepository()
	hub := ws.NewHub()

	signaling := service.NewSignalingService(peers, sessions, hub)
	h := handler.NewHandler(hub, cfg)

	go hub.Run(signaling)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: h.NewRouter(),
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("ws_path", cfg.WSPath).Msg("Starting signaling server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Info().Msg("Shutting down server...")

	// hijacked websocket connections are not tracked by Shutdown, stop the hub first
	hub.Stop()
	<-hub.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Int("sessions", sessions.Count()).Msg("Server exited")
}
