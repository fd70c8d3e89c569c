// Package storetest holds the behaviour every ports.BookStore backend must share.
package storetest

import (
	"bookshelf/internal/adapters/seed"
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory builds a fresh, empty store seeded from seeds.
type Factory func(t *testing.T, seeds ports.SeedSource) ports.BookStore

type brokenSeeds struct{}

func (brokenSeeds) Load(ctx context.Context) ([]models.Book, error) {
	return nil, errors.New("seed resource unavailable")
}

// Seeds is a small dataset used by the seeding cases.
var Seeds = seed.Static{
	{ID: "s1", Title: "Solaris", Author: "Stanisław Lem", Description: "Ocean planet", Publisher: "Faber", Category: models.CategoryRead, PhysicalStatus: models.PhysicalStatusOwned},
	{ID: "s2", Title: "Roadside Picnic", Author: "Strugatsky", Category: models.CategoryReading},
	{ID: "s3", Title: "We", Author: "Zamyatin", Series: "Classics", Category: models.CategoryWantToRead, PhysicalStatus: models.PhysicalStatusWantToBuy},
}

// Run executes the shared cases against newStore.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("SeedsEmptyStore", func(t *testing.T) {
		s := newStore(t, Seeds)
		require.NoError(t, s.Initialize(ctx))

		books, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []models.Book(Seeds), books)
	})

	t.Run("InitializeIsIdempotent", func(t *testing.T) {
		s := newStore(t, Seeds)
		require.NoError(t, s.Initialize(ctx))
		require.NoError(t, s.Delete(ctx, "s1"))
		require.NoError(t, s.Initialize(ctx))

		books, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, books, 2)
	})

	t.Run("SeedFailureLeavesStoreEmpty", func(t *testing.T) {
		s := newStore(t, brokenSeeds{})
		require.NoError(t, s.Initialize(ctx))

		books, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		s := newStore(t, nil)
		require.NoError(t, s.Initialize(ctx))

		b := models.Book{
			ID:             "g-42",
			Title:          "Мастер и Маргарита",
			Author:         "Михаил Булгаков",
			Description:    "Описание",
			Publisher:      "АСТ",
			Series:         "Эксклюзивная классика",
			Category:       models.CategoryReading,
			PhysicalStatus: models.PhysicalStatusOwned,
		}
		require.NoError(t, s.Add(ctx, b))

		books, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, b, books[0])
	})

	t.Run("AddDuplicateFails", func(t *testing.T) {
		s := newStore(t, nil)
		first := models.Book{ID: "dup", Title: "First", Author: "A", Category: models.CategoryRead}
		second := models.Book{ID: "dup", Title: "Second", Author: "B", Category: models.CategoryReading}

		require.NoError(t, s.Add(ctx, first))
		err := s.Add(ctx, second)
		require.ErrorIs(t, err, ports.ErrDuplicateKey)

		books, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, first, books[0])
	})

	t.Run("UpdateIsUpsert", func(t *testing.T) {
		s := newStore(t, nil)
		b := models.Book{ID: "u1", Title: "T", Author: "A", Category: models.CategoryWantToRead, PhysicalStatus: models.PhysicalStatusWantToBuy}
		require.NoError(t, s.Update(ctx, b))

		b.Category = models.CategoryRead
		b.PhysicalStatus = models.PhysicalStatusNone
		require.NoError(t, s.Update(ctx, b))

		books, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, b, books[0])
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		s := newStore(t, nil)
		require.NoError(t, s.Add(ctx, models.Book{ID: "d1", Title: "T", Author: "A", Category: models.CategoryRead}))
		require.NoError(t, s.Add(ctx, models.Book{ID: "d2", Title: "T2", Author: "A", Category: models.CategoryRead}))

		require.NoError(t, s.Delete(ctx, "d1"))
		require.NoError(t, s.Delete(ctx, "d1"))
		require.NoError(t, s.Delete(ctx, "never-existed"))

		books, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "d2", books[0].ID)
	})

	t.Run("OperationsOpenLazily", func(t *testing.T) {
		s := newStore(t, Seeds)
		books, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, books, "only Initialize seeds")
	})
}
