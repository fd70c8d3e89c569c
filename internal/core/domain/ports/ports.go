package ports

import (
	"bookshelf/internal/core/domain/models"
	"context"
)

// BookStore is the durable mapping from book id to book record.
// Implementations open their storage lazily on first access.
type BookStore interface {
	// Initialize opens the storage and seeds it when empty.
	Initialize(ctx context.Context) error
	GetAll(ctx context.Context) ([]models.Book, error)
	// Add fails with ErrDuplicateKey when the id is already stored.
	Add(ctx context.Context, book models.Book) error
	// Update stores the book under its id, inserting it when absent.
	Update(ctx context.Context, book models.Book) error
	// Delete removes the book; deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	Close() error
}

// SeedSource provides the initial dataset for an empty store.
type SeedSource interface {
	Load(ctx context.Context) ([]models.Book, error)
}

// CatalogSearcher turns a text query into book candidates.
type CatalogSearcher interface {
	Search(ctx context.Context, query string, authorOnly bool) ([]models.RawBook, error)
}

// Recommender suggests new books from the books a user has read or is reading.
type Recommender interface {
	Recommend(ctx context.Context, books []models.BookRef) ([]models.Recommendation, error)
}
