// Package seed provides the initial dataset written into an empty book store.
package seed

import (
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

//go:embed initial-books.json
var bundled []byte

var (
	_ ports.SeedSource = (*Embedded)(nil)
	_ ports.SeedSource = (*File)(nil)
	_ ports.SeedSource = Static(nil)
)

// Embedded serves the dataset bundled into the binary.
type Embedded struct{}

func (Embedded) Load(ctx context.Context) ([]models.Book, error) {
	return decode(bundled)
}

// File reads the dataset from a JSON file on disk.
type File struct {
	Path string
}

func (f File) Load(ctx context.Context) ([]models.Book, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return decode(data)
}

// Static serves an in-memory dataset.
type Static []models.Book

func (s Static) Load(ctx context.Context) ([]models.Book, error) {
	out := make([]models.Book, len(s))
	copy(out, s)
	return out, nil
}

// New returns the file source when path is set, the bundled dataset otherwise.
func New(path string) ports.SeedSource {
	if path != "" {
		return File{Path: path}
	}
	return Embedded{}
}

func decode(data []byte) ([]models.Book, error) {
	var books []models.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return books, nil
}

// LoadValid loads the seed dataset for a store that was found empty. Seeding is
// best effort: a load or parse failure is logged and yields no records, and
// records that fail validation are skipped.
func LoadValid(ctx context.Context, src ports.SeedSource) []models.Book {
	if src == nil {
		return nil
	}

	books, err := src.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Str("component", "seed").Msg("could not load initial books, starting with an empty library")
		return nil
	}

	valid := make([]models.Book, 0, len(books))
	seen := make(map[string]bool, len(books))
	for _, b := range books {
		if err := b.Validate(); err != nil {
			log.Warn().Err(err).Str("component", "seed").Str("id", b.ID).Msg("skipping invalid seed record")
			continue
		}
		if seen[b.ID] {
			log.Warn().Str("component", "seed").Str("id", b.ID).Msg("skipping duplicate seed record")
			continue
		}
		seen[b.ID] = true
		valid = append(valid, b)
	}

	log.Info().Str("component", "seed").Int("books", len(valid)).Msg("library is empty, seeding initial books")
	return valid
}
