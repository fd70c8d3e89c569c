package resilience

import (
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// countsAgainstBreaker ignores cancellations; the remote side did nothing wrong.
func countsAgainstBreaker(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// GuardedSearcher wraps a CatalogSearcher with a circuit breaker.
type GuardedSearcher struct {
	next    ports.CatalogSearcher
	breaker *CircuitBreaker
}

func GuardSearcher(next ports.CatalogSearcher, breaker *CircuitBreaker) *GuardedSearcher {
	return &GuardedSearcher{next: next, breaker: breaker}
}

func (g *GuardedSearcher) Search(ctx context.Context, query string, authorOnly bool) ([]models.RawBook, error) {
	var books []models.RawBook
	err := g.breaker.Execute(func() error {
		var err error
		books, err = g.next.Search(ctx, query, authorOnly)
		return err
	})
	if errors.Is(err, ErrCircuitOpen) {
		log.Warn().Str("component", "resilience").Msg("catalog circuit open, rejecting search")
		return nil, fmt.Errorf("%w: %w", ports.ErrServiceUnavailable, err)
	}
	return books, err
}

// GuardedRecommender wraps a Recommender with a circuit breaker.
type GuardedRecommender struct {
	next    ports.Recommender
	breaker *CircuitBreaker
}

func GuardRecommender(next ports.Recommender, breaker *CircuitBreaker) *GuardedRecommender {
	return &GuardedRecommender{next: next, breaker: breaker}
}

func (g *GuardedRecommender) Recommend(ctx context.Context, books []models.BookRef) ([]models.Recommendation, error) {
	var recs []models.Recommendation
	err := g.breaker.Execute(func() error {
		var err error
		recs, err = g.next.Recommend(ctx, books)
		return err
	})
	if errors.Is(err, ErrCircuitOpen) {
		log.Warn().Str("component", "resilience").Msg("recommender circuit open, rejecting request")
		return nil, fmt.Errorf("%w: %w", ports.ErrRecommendationFailed, err)
	}
	return recs, err
}

// NewBreaker builds a breaker that ignores caller cancellations.
func NewBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(threshold, cooldown, WithFailureFilter(countsAgainstBreaker))
}
