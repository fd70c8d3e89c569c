package bunstore

import (
	"bookshelf/internal/adapters/seed"
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var _ ports.BookStore = (*BunStore)(nil)

// bookRow is the persisted form of models.Book.
type bookRow struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID             string `bun:"id,pk"`
	Title          string `bun:"title,notnull"`
	Author         string `bun:"author,notnull"`
	Description    string `bun:"description,notnull"`
	Publisher      string `bun:"publisher,notnull"`
	Series         string `bun:"series,notnull"`
	Category       string `bun:"category,notnull"`
	PhysicalStatus string `bun:"physical_status,nullzero"`
}

func toRow(b models.Book) *bookRow {
	return &bookRow{
		ID:             b.ID,
		Title:          b.Title,
		Author:         b.Author,
		Description:    b.Description,
		Publisher:      b.Publisher,
		Series:         b.Series,
		Category:       string(b.Category),
		PhysicalStatus: string(b.PhysicalStatus),
	}
}

func (r *bookRow) toBook() models.Book {
	return models.Book{
		ID:             r.ID,
		Title:          r.Title,
		Author:         r.Author,
		Description:    r.Description,
		Publisher:      r.Publisher,
		Series:         r.Series,
		Category:       models.Category(r.Category),
		PhysicalStatus: models.PhysicalStatus(r.PhysicalStatus),
	}
}

// BunStore keeps the library in a single SQLite table. GetAll returns books in
// insertion order.
type BunStore struct {
	path  string
	seeds ports.SeedSource

	mu sync.Mutex
	db *bun.DB
}

// New returns a store backed by the SQLite file at path. The file is created
// on first access.
func New(path string, seeds ports.SeedSource) *BunStore {
	return &BunStore{path: path, seeds: seeds}
}

func (s *BunStore) open(ctx context.Context) (*bun.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrStoreOpenFailed, err)
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrStoreOpenFailed, err)
	}
	// SQLite allows a single writer; one connection keeps writes serialized.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := db.NewCreateTable().Model((*bookRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create books table: %w", ports.ErrStoreOpenFailed, err)
	}

	log.Debug().Str("component", "bunstore").Str("path", s.path).Msg("sqlite database opened")
	s.db = db
	return db, nil
}

func (s *BunStore) Initialize(ctx context.Context) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}

	count, err := db.NewSelect().Model((*bookRow)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count books: %w", err)
	}
	if count > 0 {
		return nil
	}

	books := seed.LoadValid(ctx, s.seeds)
	if len(books) == 0 {
		return nil
	}

	rows := make([]*bookRow, 0, len(books))
	for _, b := range books {
		rows = append(rows, toRow(b))
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&rows).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("seed books: %w", err)
		}
		return nil
	})
}

func (s *BunStore) GetAll(ctx context.Context) ([]models.Book, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	var rows []bookRow
	if err := db.NewSelect().Model(&rows).OrderExpr("rowid ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	books := make([]models.Book, 0, len(rows))
	for i := range rows {
		books = append(books, rows[i].toBook())
	}
	return books, nil
}

func (s *BunStore) Add(ctx context.Context, book models.Book) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}

	res, err := db.NewInsert().Model(toRow(book)).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert book %s: %w", book.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ports.ErrDuplicateKey, book.ID)
	}
	return nil
}

func (s *BunStore) Update(ctx context.Context, book models.Book) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewInsert().Model(toRow(book)).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("author = EXCLUDED.author").
		Set("description = EXCLUDED.description").
		Set("publisher = EXCLUDED.publisher").
		Set("series = EXCLUDED.series").
		Set("category = EXCLUDED.category").
		Set("physical_status = EXCLUDED.physical_status").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("put book %s: %w", book.ID, err)
	}
	return nil
}

func (s *BunStore) Delete(ctx context.Context, id string) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}

	if _, err := db.NewDelete().Model((*bookRow)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	return nil
}

func (s *BunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
