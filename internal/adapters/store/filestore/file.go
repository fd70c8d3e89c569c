package filestore

import (
	"bookshelf/internal/adapters/seed"
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// Ensure FileStore implements BookStore
var _ ports.BookStore = (*FileStore)(nil)

// FileStore keeps the whole library as one JSON array in a local file.
// GetAll returns books in insertion order.
type FileStore struct {
	filepath string
	seeds    ports.SeedSource

	mu     sync.RWMutex
	loaded bool
	books  []models.Book
}

// New returns a store persisted at path. The file is read on first access.
func New(path string, seeds ports.SeedSource) *FileStore {
	return &FileStore{filepath: path, seeds: seeds}
}

// load must be called with the write lock held.
func (s *FileStore) load() error {
	if s.loaded {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.filepath), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrStoreOpenFailed, err)
	}

	f, err := os.Open(s.filepath)
	if errors.Is(err, os.ErrNotExist) {
		s.books = nil
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ports.ErrStoreOpenFailed, err)
	}
	defer f.Close()

	var books []models.Book
	if err := json.NewDecoder(f).Decode(&books); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: decode %s: %w", ports.ErrStoreOpenFailed, s.filepath, err)
	}

	log.Debug().Str("component", "filestore").Str("path", s.filepath).Int("books", len(books)).Msg("library file loaded")
	s.books = books
	s.loaded = true
	return nil
}

// save writes the library atomically: temp file then rename. Callers hold the write lock.
func (s *FileStore) save(books []models.Book) (err error) {
	tmpFile := s.filepath + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmpFile)
		}
	}()

	if books == nil {
		books = []models.Book{}
	}
	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(books); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpFile, s.filepath); err != nil {
		return err
	}
	s.books = books
	return nil
}

func (s *FileStore) indexOf(id string) int {
	for i, b := range s.books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (s *FileStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	if len(s.books) > 0 {
		return nil
	}

	books := seed.LoadValid(ctx, s.seeds)
	if len(books) == 0 {
		return nil
	}
	if err := s.save(books); err != nil {
		return fmt.Errorf("seed books: %w", err)
	}
	return nil
}

func (s *FileStore) GetAll(ctx context.Context) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([]models.Book, len(s.books))
	copy(out, s.books)
	return out, nil
}

func (s *FileStore) Add(ctx context.Context, book models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	if s.indexOf(book.ID) >= 0 {
		return fmt.Errorf("%w: %s", ports.ErrDuplicateKey, book.ID)
	}

	next := make([]models.Book, len(s.books), len(s.books)+1)
	copy(next, s.books)
	if err := s.save(append(next, book)); err != nil {
		return fmt.Errorf("insert book %s: %w", book.ID, err)
	}
	return nil
}

func (s *FileStore) Update(ctx context.Context, book models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	next := make([]models.Book, len(s.books), len(s.books)+1)
	copy(next, s.books)
	if i := s.indexOf(book.ID); i >= 0 {
		next[i] = book
	} else {
		next = append(next, book)
	}
	if err := s.save(next); err != nil {
		return fmt.Errorf("put book %s: %w", book.ID, err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		return nil
	}

	next := make([]models.Book, 0, len(s.books)-1)
	next = append(next, s.books[:i]...)
	next = append(next, s.books[i+1:]...)
	if err := s.save(next); err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	return nil
}

// Close is a no-op; every mutation is already on disk.
func (s *FileStore) Close() error {
	return nil
}
