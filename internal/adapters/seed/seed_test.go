package seed

import (
	"bookshelf/internal/core/domain/models"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct{}

func (failingSource) Load(ctx context.Context) ([]models.Book, error) {
	return nil, errors.New("boom")
}

func TestEmbedded_IsValid(t *testing.T) {
	books, err := Embedded{}.Load(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, books)

	for _, b := range books {
		assert.NoError(t, b.Validate(), b.ID)
	}
	assert.Len(t, LoadValid(context.Background(), Embedded{}), len(books))
}

func TestFile_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"x","title":"X","author":"Y","category":"READ"}]`), 0o644))

	books, err := New(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, models.CategoryRead, books[0].Category)
	assert.Equal(t, models.PhysicalStatusNone, books[0].PhysicalStatus)
}

func TestLoadValid_SwallowsFailures(t *testing.T) {
	assert.Empty(t, LoadValid(context.Background(), failingSource{}))
	assert.Empty(t, LoadValid(context.Background(), File{Path: filepath.Join(t.TempDir(), "missing.json")}))
	assert.Empty(t, LoadValid(context.Background(), nil))

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	assert.Empty(t, LoadValid(context.Background(), File{Path: path}))
}

func TestLoadValid_SkipsInvalidAndDuplicates(t *testing.T) {
	src := Static{
		{ID: "a", Title: "A", Author: "X", Category: models.CategoryRead},
		{ID: "", Title: "No id", Author: "X", Category: models.CategoryRead},
		{ID: "a", Title: "A again", Author: "X", Category: models.CategoryReading},
		{ID: "b", Title: "B", Author: "X", Category: "DROPPED"},
	}

	got := LoadValid(context.Background(), src)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)
}
