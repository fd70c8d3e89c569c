package service

import (
	"bookshelf/internal/adapters/recommender"
	"bookshelf/internal/adapters/store/badgerstore"
	"bookshelf/internal/adapters/store/bunstore"
	"bookshelf/internal/adapters/store/filestore"
	"bookshelf/internal/config"
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"bookshelf/internal/resilience"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataDir:             t.TempDir(),
		StoreBackend:        config.StoreFile,
		CatalogSource:       config.CatalogGoogle,
		SearchMaxResults:    10,
		Recommender:         config.RecommenderGemini,
		RecommendationCount: 5,
		HTTPTimeout:         time.Second,
		BreakerThreshold:    3,
		BreakerCooldown:     time.Minute,
	}
}

func TestCreateBookStore(t *testing.T) {
	cfg := testConfig(t)

	cfg.StoreBackend = config.StoreSQLite
	assert.IsType(t, &bunstore.BunStore{}, CreateBookStore(cfg))
	cfg.StoreBackend = config.StoreBadger
	assert.IsType(t, &badgerstore.BadgerStore{}, CreateBookStore(cfg))
	cfg.StoreBackend = config.StoreFile
	assert.IsType(t, &filestore.FileStore{}, CreateBookStore(cfg))
}

func TestCreateBookStore_SeedsFromEmbeddedDataset(t *testing.T) {
	ctx := context.Background()
	store := CreateBookStore(testConfig(t))
	defer store.Close()

	require.NoError(t, store.Initialize(ctx))
	books, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, books)
}

func TestCreateCatalogSearcher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [{"id": "v1", "volumeInfo": {"title": "Solaris"}}]}`)
	}))
	defer ts.Close()

	cfg := testConfig(t)
	cfg.GoogleBooksURL = ts.URL

	searcher := CreateCatalogSearcher(cfg)
	assert.IsType(t, &resilience.GuardedSearcher{}, searcher)

	books, err := searcher.Search(context.Background(), "solaris", false)
	require.NoError(t, err)
	assert.Equal(t, []models.RawBook{{
		ID:          "v1",
		Title:       "Solaris",
		Author:      models.UnknownAuthor,
		Description: models.NoDescription,
		Publisher:   models.UnknownPublisher,
	}}, books)
}

func TestCreateRecommender_MissingGeminiKey(t *testing.T) {
	rec, closeFn, err := CreateRecommender(context.Background(), testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	assert.NoError(t, closeFn())
	assert.IsType(t, recommender.Unavailable{}, rec)

	_, err = rec.Recommend(context.Background(), []models.BookRef{{Title: "A", Author: "B"}})
	assert.ErrorIs(t, err, ports.ErrRecommendationFailed)
}

func TestCreateRecommender_Ollama(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": "[{\"title\": \"Hyperion\", \"author\": \"Dan Simmons\", \"reason\": \"r\"}]"}`)
	}))
	defer ts.Close()

	cfg := testConfig(t)
	cfg.Recommender = config.RecommenderOllama
	cfg.OllamaHost = ts.URL

	rec, closeFn, err := CreateRecommender(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	recs, err := rec.Recommend(context.Background(), []models.BookRef{{Title: "Dune", Author: "Frank Herbert"}})
	require.NoError(t, err)
	assert.Equal(t, []models.Recommendation{{Title: "Hyperion", Author: "Dan Simmons", Reason: "r"}}, recs)
}
