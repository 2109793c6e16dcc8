package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/youneskazemi/chatcord/internal/adapters/http"
	signalws "github.com/youneskazemi/chatcord/internal/adapters/signal"
	"github.com/youneskazemi/chatcord/internal/app"
	"github.com/youneskazemi/chatcord/internal/auth"
	"github.com/youneskazemi/chatcord/internal/config"
	"github.com/youneskazemi/chatcord/internal/store"
	"github.com/youneskazemi/chatcord/internal/turnserver"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("failed to open store")
	}

	authSvc := auth.NewService(st, cfg.JWTSecret, cfg.TokenTTL)

	bus := app.NewBus()
	registry := app.NewRegistry(bus)
	rooms := app.NewRooms(bus)
	relay := app.NewRelay(registry)
	voice := app.NewVoice(rooms, relay)
	calls := app.NewCallManager(registry, relay, st, st, bus)

	var turn *turnserver.Server
	if cfg.Turn.Enabled {
		turn, err = turnserver.Start(cfg.Turn.Port, cfg.Turn.Realm, cfg.Turn.PublicIP)
		if err != nil {
			log.Error().Err(err).Msg("TURN server failed to start, continuing without relay")
			turn = nil
		} else {
			defer turn.Close()
		}
	}

	ctrl := &signalws.Controller{
		Cfg:      cfg,
		Auth:     authSvc,
		Store:    st,
		Registry: registry,
		Rooms:    rooms,
		Voice:    voice,
		Calls:    calls,
		Relay:    relay,
	}

	r := router.SetupRouter(ctx, cfg, authSvc, st, turn, ctrl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("chatcord server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
