package badgerstore

import (
	"bookshelf/internal/adapters/seed"
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

var _ ports.BookStore = (*BadgerStore)(nil)

const bookPrefix = "book:"

func bookKey(id string) []byte {
	return []byte(bookPrefix + id)
}

// BadgerStore keeps one key per book. GetAll returns books in ascending id order.
type BadgerStore struct {
	opts  badger.Options
	seeds ports.SeedSource

	mu sync.Mutex
	db *badger.DB
}

// New returns a store persisted in the directory dir.
func New(dir string, seeds ports.SeedSource) *BadgerStore {
	opts := badger.DefaultOptions(dir)
	opts.SyncWrites = true
	return newStore(opts, seeds)
}

// NewInMemory returns a store that keeps everything in memory.
func NewInMemory(seeds ports.SeedSource) *BadgerStore {
	return newStore(badger.DefaultOptions("").WithInMemory(true), seeds)
}

func newStore(opts badger.Options, seeds ports.SeedSource) *BadgerStore {
	opts.Logger = nil
	return &BadgerStore{opts: opts, seeds: seeds}
}

func (s *BadgerStore) open() (*badger.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	db, err := badger.Open(s.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrStoreOpenFailed, err)
	}

	log.Debug().Str("component", "badgerstore").Str("dir", s.opts.Dir).Bool("in_memory", s.opts.InMemory).Msg("badger database opened")
	s.db = db
	return db, nil
}

func (s *BadgerStore) Initialize(ctx context.Context) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	empty := true
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(bookPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Rewind()
		empty = !it.Valid()
		return nil
	})
	if err != nil {
		return fmt.Errorf("count books: %w", err)
	}
	if !empty {
		return nil
	}

	books := seed.LoadValid(ctx, s.seeds)
	if len(books) == 0 {
		return nil
	}

	wb := db.NewWriteBatch()
	defer wb.Cancel()
	for _, b := range books {
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal seed book %s: %w", b.ID, err)
		}
		if err := wb.Set(bookKey(b.ID), data); err != nil {
			return fmt.Errorf("seed books: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("seed books: %w", err)
	}
	return nil
}

func (s *BadgerStore) GetAll(ctx context.Context) ([]models.Book, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}

	books := []models.Book{}
	prefix := []byte(bookPrefix)

	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var book models.Book
				if err := json.Unmarshal(val, &book); err != nil {
					return err
				}
				books = append(books, book)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (s *BadgerStore) Add(ctx context.Context, book models.Book) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("marshal book: %w", err)
	}

	return db.Update(func(txn *badger.Txn) error {
		key := bookKey(book.ID)
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", ports.ErrDuplicateKey, book.ID)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return fmt.Errorf("check book exists: %w", err)
		}
		return txn.Set(key, data)
	})
}

func (s *BadgerStore) Update(ctx context.Context, book models.Book) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("marshal book: %w", err)
	}

	if err := db.Update(func(txn *badger.Txn) error {
		return txn.Set(bookKey(book.ID), data)
	}); err != nil {
		return fmt.Errorf("put book %s: %w", book.ID, err)
	}
	return nil
}

func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	if err := db.Update(func(txn *badger.Txn) error {
		return txn.Delete(bookKey(id))
	}); err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
