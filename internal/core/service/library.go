package service

import (
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Library holds the in-memory view of the user's books and coordinates the
// store, the catalog and the recommender. It is safe for concurrent use; the
// lock is never held while waiting on I/O.
type Library struct {
	store       ports.BookStore
	catalog     ports.CatalogSearcher
	recommender ports.Recommender
	newID       func() string

	mu    sync.Mutex
	state Snapshot
	// Bumped on every search or recommendation request; a response whose
	// generation is no longer current is discarded.
	searchGen uint64
	recGen    uint64
}

type Option func(*Library)

// WithIDGenerator overrides how ids of manually entered books are generated.
func WithIDGenerator(fn func() string) Option {
	return func(l *Library) { l.newID = fn }
}

func NewLibrary(store ports.BookStore, catalog ports.CatalogSearcher, recommender ports.Recommender, opts ...Option) *Library {
	l := &Library{
		store:       store,
		catalog:     catalog,
		recommender: recommender,
		newID:       func() string { return models.ManualIDPrefix + uuid.NewString() },
		state: Snapshot{
			View: ViewLibrary,
			Tab:  models.CategoryReading,
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Snapshot returns a deep copy of the current state.
func (l *Library) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

// LoadLibrary opens the store, seeding it on first run, and loads every book into memory.
func (l *Library) LoadLibrary(ctx context.Context) error {
	l.mu.Lock()
	l.state.Load = loading()
	l.mu.Unlock()

	err := l.store.Initialize(ctx)
	var books []models.Book
	if err == nil {
		books, err = l.store.GetAll(ctx)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Str("component", "library").Msg("failed to load library")
		l.state.Books = nil
		l.state.Load = failed(MsgLoadFailed)
		return fmt.Errorf("load library: %w", err)
	}

	l.state.Books = books
	l.state.Load = success()
	log.Debug().Str("component", "library").Int("books", len(books)).Msg("library loaded")
	return nil
}

// SearchCatalog queries the catalog and replaces the current results. A blank
// query clears the results without calling the catalog.
func (l *Library) SearchCatalog(ctx context.Context, query string, authorOnly bool) ([]models.RawBook, error) {
	query = strings.TrimSpace(query)

	l.mu.Lock()
	l.searchGen++
	gen := l.searchGen
	l.state.Search.Query = query
	l.state.Search.AuthorOnly = authorOnly
	l.state.Search.Results = nil
	if query == "" {
		l.state.Search.State = idle()
		l.mu.Unlock()
		return []models.RawBook{}, nil
	}
	l.state.Search.State = loading()
	l.mu.Unlock()

	results, err := l.catalog.Search(ctx, query, authorOnly)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.searchGen {
		return nil, ports.ErrSuperseded
	}
	if err != nil {
		log.Warn().Err(err).Str("component", "library").Str("query", query).Msg("catalog search failed")
		l.state.Search.State = failed(searchMessage(err))
		return nil, err
	}

	l.state.Search.Results = results
	l.state.Search.State = success()
	return slices.Clone(results), nil
}

func searchMessage(err error) string {
	if errors.Is(err, ports.ErrConnectivity) {
		return MsgSearchConnectivity
	}
	return MsgSearchUnavailable
}

// ResetSearch clears the query, the results and any search error. An in-flight
// search is discarded when it completes.
func (l *Library) ResetSearch() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.searchGen++
	l.state.Search = SearchState{}
}

// SelectCandidate opens the add-to-library dialog for a search result.
func (l *Library) SelectCandidate(raw models.RawBook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Candidate = &raw
}

func (l *Library) OpenManualAdd() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.ManualAddOpen = true
}

// SelectBook opens the details dialog for a library book.
func (l *Library) SelectBook(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ports.ErrNotFound, id)
	}
	b := l.state.Books[i]
	l.state.Details = &b
	return nil
}

func (l *Library) CloseModals() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Candidate = nil
	l.state.Details = nil
	l.state.ManualAddOpen = false
}

// SubmitManualEntry turns a hand-filled form into a candidate with a fresh
// manual id and moves on to the add-to-library dialog.
func (l *Library) SubmitManualEntry(entry models.ManualEntry) (models.RawBook, error) {
	raw, err := entry.Candidate(l.newID())
	if err != nil {
		return models.RawBook{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.ManualAddOpen = false
	l.state.Candidate = &raw
	return raw, nil
}

// CommitCandidate places a candidate on a shelf and adds it to the library.
func (l *Library) CommitCandidate(ctx context.Context, raw models.RawBook, category models.Category, status models.PhysicalStatus) (bool, error) {
	added, err := l.AddToLibrary(ctx, raw.WithShelf(category, status))
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	l.state.Candidate = nil
	l.mu.Unlock()
	return added, nil
}

// AddToLibrary persists a new book. It reports false without touching the
// store when a book with the same id is already in the library.
func (l *Library) AddToLibrary(ctx context.Context, book models.Book) (bool, error) {
	if err := book.Validate(); err != nil {
		return false, err
	}

	l.mu.Lock()
	exists := l.indexOf(book.ID) >= 0
	l.mu.Unlock()
	if exists {
		return false, nil
	}

	if err := l.store.Add(ctx, book); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			log.Debug().Str("component", "library").Str("id", book.ID).Msg("book already stored")
			return false, nil
		}
		return false, fmt.Errorf("add %s: %w", book.ID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexOf(book.ID) >= 0 {
		return false, nil
	}
	l.state.Books = append(l.state.Books, book)
	log.Info().Str("component", "library").Str("id", book.ID).Str("category", string(book.Category)).Msg("book added")
	return true, nil
}

// UpdateInLibrary stores the book under its id and refreshes the in-memory copy.
func (l *Library) UpdateInLibrary(ctx context.Context, book models.Book) error {
	if err := book.Validate(); err != nil {
		return err
	}
	if err := l.store.Update(ctx, book); err != nil {
		return fmt.Errorf("update %s: %w", book.ID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(book.ID); i >= 0 {
		l.state.Books[i] = book
	} else {
		l.state.Books = append(l.state.Books, book)
	}
	if l.state.Details != nil && l.state.Details.ID == book.ID {
		b := book
		l.state.Details = &b
	}
	return nil
}

// RemoveFromLibrary deletes the book from the store and from memory.
// Removing an unknown id is a no-op.
func (l *Library) RemoveFromLibrary(ctx context.Context, id string) error {
	if err := l.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Books = slices.DeleteFunc(l.state.Books, func(b models.Book) bool { return b.ID == id })
	if l.state.Details != nil && l.state.Details.ID == id {
		l.state.Details = nil
	}
	return nil
}

// RequestRecommendations asks the recommender for books similar to the ones
// being read or already read.
func (l *Library) RequestRecommendations(ctx context.Context) ([]models.RecommendationWithStatus, error) {
	l.mu.Lock()
	l.recGen++
	gen := l.recGen
	refs := l.readingRefs()
	l.state.Recommendations.Items = nil
	if len(refs) == 0 {
		l.state.Recommendations.State = idle()
		l.state.Recommendations.Notice = MsgNeedReadBooks
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: no books in Reading or Read", ports.ErrPreconditionNotMet)
	}
	l.state.Recommendations.Notice = ""
	l.state.Recommendations.State = loading()
	l.mu.Unlock()

	recs, err := l.recommender.Recommend(ctx, refs)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.recGen {
		return nil, ports.ErrSuperseded
	}
	if err != nil {
		log.Warn().Err(err).Str("component", "library").Msg("recommendation request failed")
		l.state.Recommendations.State = failed(MsgRecommendationsFailed)
		return nil, err
	}

	items := make([]models.RecommendationWithStatus, 0, len(recs))
	for _, r := range recs {
		items = append(items, models.RecommendationWithStatus{Recommendation: r})
	}
	l.state.Recommendations.Items = items
	l.state.Recommendations.State = success()
	return slices.Clone(items), nil
}

func (l *Library) readingRefs() []models.BookRef {
	var refs []models.BookRef
	for _, b := range l.state.Books {
		if b.Category == models.CategoryRead || b.Category == models.CategoryReading {
			refs = append(refs, models.BookRef{Title: b.Title, Author: b.Author})
		}
	}
	return refs
}

// AcceptRecommendation adds the recommended book to the want-to-read shelf
// unless it is already there, and marks every recommendation with the same
// title as added. The marks are set even when the add fails.
func (l *Library) AcceptRecommendation(ctx context.Context, rec models.Recommendation) (bool, error) {
	added, err := l.AddToLibrary(ctx, rec.ToBook())

	l.mu.Lock()
	for i := range l.state.Recommendations.Items {
		if l.state.Recommendations.Items[i].Title == rec.Title {
			l.state.Recommendations.Items[i].IsAddedToWantToRead = true
		}
	}
	l.mu.Unlock()

	if err != nil {
		return false, err
	}
	return added, nil
}

// ByCategory returns the books in the category, in library order.
func (l *Library) ByCategory(c models.Category) []models.Book {
	return l.filter(func(b models.Book) bool { return b.Category == c })
}

// ByPhysicalStatus returns the books with the status, in library order.
func (l *Library) ByPhysicalStatus(s models.PhysicalStatus) []models.Book {
	return l.filter(func(b models.Book) bool { return b.PhysicalStatus == s })
}

func (l *Library) filter(keep func(models.Book) bool) []models.Book {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.Book{}
	for _, b := range l.state.Books {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (l *Library) Book(id string) (models.Book, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(id); i >= 0 {
		return l.state.Books[i], true
	}
	return models.Book{}, false
}

func (l *Library) SetView(v View) error {
	if !slices.Contains(Views, v) {
		return fmt.Errorf("unknown view %q", v)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.View = v
	return nil
}

func (l *Library) SetTab(c models.Category) error {
	if !c.Valid() {
		return fmt.Errorf("unknown category %q", c)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Tab = c
	return nil
}

// indexOf must be called with l.mu held.
func (l *Library) indexOf(id string) int {
	return slices.IndexFunc(l.state.Books, func(b models.Book) bool { return b.ID == id })
}
