package main

import (
	"bookshelf/internal/config"
	"bookshelf/internal/core/service"
	"bookshelf/internal/logger"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(buildApp).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app is everything a command needs. close releases the store and the recommender.
type app struct {
	lib   *service.Library
	close func() error
}

type appBuilder func(ctx context.Context, configPath, logLevel string) (*app, error)

func buildApp(ctx context.Context, configPath, logLevel string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if err := logger.Init(level, cfg.LogFormat); err != nil {
		return nil, err
	}

	store := service.CreateBookStore(cfg)
	searcher := service.CreateCatalogSearcher(cfg)
	rec, closeRec, err := service.CreateRecommender(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	log.Debug().
		Str("component", "main").
		Str("store", cfg.StoreBackend).
		Str("path", cfg.StorePath()).
		Str("catalog", cfg.CatalogSource).
		Str("recommender", cfg.Recommender).
		Msg("bookshelf initialized")

	return &app{
		lib: service.NewLibrary(store, searcher, rec),
		close: func() error {
			return errors.Join(closeRec(), store.Close())
		},
	}, nil
}
