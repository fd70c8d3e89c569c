package service

import (
	"bookshelf/internal/adapters/catalog"
	"bookshelf/internal/adapters/recommender"
	"bookshelf/internal/adapters/seed"
	"bookshelf/internal/adapters/store/badgerstore"
	"bookshelf/internal/adapters/store/bunstore"
	"bookshelf/internal/adapters/store/filestore"
	"bookshelf/internal/adapters/util"
	"bookshelf/internal/config"
	"bookshelf/internal/core/domain/ports"
	"bookshelf/internal/resilience"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

func CreateBookStore(cfg *config.Config) ports.BookStore {
	seeds := seed.New(cfg.SeedFile)
	path := cfg.StorePath()

	switch cfg.StoreBackend {
	case config.StoreBadger:
		return badgerstore.New(path, seeds)
	case config.StoreFile:
		return filestore.New(path, seeds)
	default:
		return bunstore.New(path, seeds)
	}
}

func CreateCatalogSearcher(cfg *config.Config) ports.CatalogSearcher {
	client := util.NewHTTPClient(cfg.HTTPTimeout, cfg.HTTPMaxRetries)

	var searcher ports.CatalogSearcher
	switch cfg.CatalogSource {
	case config.CatalogOPDS:
		searcher = catalog.NewOPDSClient(cfg.OPDSSearchURL, cfg.OPDSUsername, cfg.OPDSPassword, cfg.SearchMaxResults, client)
	default:
		searcher = catalog.NewGoogleBooksClient(cfg.GoogleBooksURL, client,
			catalog.WithAPIKey(cfg.GoogleBooksAPIKey),
			catalog.WithLanguage(cfg.SearchLanguage),
			catalog.WithMaxResults(cfg.SearchMaxResults),
		)
	}

	return resilience.GuardSearcher(searcher, resilience.NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown))
}

// CreateRecommender builds the configured recommender. The returned close
// function releases backend resources and is never nil. A missing Gemini key
// is not fatal: recommendations are then reported as unavailable.
func CreateRecommender(ctx context.Context, cfg *config.Config) (ports.Recommender, func() error, error) {
	noop := func() error { return nil }

	var (
		gen     recommender.TextGenerator
		closeFn = noop
	)
	switch cfg.Recommender {
	case config.RecommenderOllama:
		gen = recommender.NewOllamaGenerator(cfg.OllamaHost, cfg.OllamaModel, util.NewHTTPClient(cfg.HTTPTimeout, 0))
	default:
		gemini, err := recommender.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if errors.Is(err, recommender.ErrMissingAPIKey) {
			log.Warn().Str("component", "factory").Msg("gemini api key not set, recommendations disabled")
			return recommender.Unavailable{Reason: "gemini api key is not configured"}, noop, nil
		}
		if err != nil {
			return nil, noop, fmt.Errorf("failed to initialize recommender: %w", err)
		}
		gen, closeFn = gemini, gemini.Close
	}

	client := recommender.NewClient(gen, cfg.RecommendationCount)
	return resilience.GuardRecommender(client, resilience.NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown)), closeFn, nil
}
