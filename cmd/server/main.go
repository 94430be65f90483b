package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blockedby/autorecruit/internal/api"
	"github.com/blockedby/autorecruit/internal/config"
	"github.com/blockedby/autorecruit/internal/database"
	"github.com/blockedby/autorecruit/internal/logger"
	"github.com/blockedby/autorecruit/internal/nats"
	"github.com/blockedby/autorecruit/internal/publisher"
	"github.com/blockedby/autorecruit/internal/repository"
	"github.com/blockedby/autorecruit/internal/web"
)

const (
	title       = "AutoRecruit"
	description = "Outreach run history and live delivery progress"
	version     = "0.1.0"
)

func main() {
	// 1. Load config
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting dashboard server")

	// 3. Setup context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Connect to database
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	history := repository.NewHistoryRepository(db.GORM, log)

	// 5. WebSocket hub
	hub := web.NewHub()
	go hub.Run()
	defer hub.Stop()

	// 6. Relay outreach events from NATS to the hub
	if cfg.NatsURL != "" {
		nc, err := nats.New(ctx, cfg.NatsURL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to nats, live progress disabled")
		} else {
			defer nc.Close()
			if err := nc.EnsureStream(ctx, publisher.StreamName, []string{publisher.SubjectAll}); err != nil {
				log.Fatal().Err(err).Msg("failed to ensure outreach stream")
			}
			cc, err := nc.Subscribe(ctx, publisher.StreamName, "dashboard", publisher.SubjectAll, web.RelayHandler(hub))
			if err != nil {
				log.Fatal().Err(err).Msg("failed to subscribe to outreach events")
			}
			defer cc.Stop()
		}
	}

	// 7. JSON API (fuego) mounted on the dashboard router
	apiServer := api.NewServer(&api.Config{
		Port:        cfg.HTTPPort,
		Title:       title,
		Description: description,
		Version:     version,
	}, &api.Dependencies{
		HistoryRepo: history,
		StatsRepo:   history,
		Hub:         hub,
	})

	server, err := web.NewServer(&web.Config{Port: cfg.HTTPPort, Title: title}, history, hub)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create web server")
	}
	server.Mount("/api", apiServer.Handler())
	apiServer.MountDocsOn(server.Router(), title, description)

	// 8. Serve until a signal arrives, then shut down
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("url", server.BaseURL()).Msg("listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}

	log.Info().Msg("shutdown complete")
}
