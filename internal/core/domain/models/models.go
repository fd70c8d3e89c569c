package models

import (
	"fmt"
	"strings"
)

// Category is the reading-progress classification of a book.
type Category string

const (
	CategoryReading    Category = "READING"
	CategoryRead       Category = "READ"
	CategoryWantToRead Category = "WANT_TO_READ"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryReading, CategoryRead, CategoryWantToRead}

// Label returns the human readable name of the category.
func (c Category) Label() string {
	switch c {
	case CategoryReading:
		return "Reading"
	case CategoryRead:
		return "Read"
	case CategoryWantToRead:
		return "Want to read"
	default:
		return string(c)
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// PhysicalStatus is the ownership classification of a book, independent of its category.
// The zero value means ownership is not tracked.
type PhysicalStatus string

const (
	PhysicalStatusNone      PhysicalStatus = ""
	PhysicalStatusOwned     PhysicalStatus = "OWNED"
	PhysicalStatusWantToBuy PhysicalStatus = "WANT_TO_BUY"
)

// PhysicalStatuses lists every settable physical status.
var PhysicalStatuses = []PhysicalStatus{PhysicalStatusOwned, PhysicalStatusWantToBuy}

func (s PhysicalStatus) Label() string {
	switch s {
	case PhysicalStatusOwned:
		return "Owned"
	case PhysicalStatusWantToBuy:
		return "Want to buy"
	case PhysicalStatusNone:
		return "Not tracked"
	default:
		return string(s)
	}
}

// Valid reports whether s is unset or one of the known statuses.
func (s PhysicalStatus) Valid() bool {
	if s == PhysicalStatusNone {
		return true
	}
	for _, known := range PhysicalStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts the enum value, a kebab/snake/lower-case spelling or the label.
func ParseCategory(s string) (Category, error) {
	norm := normalizeEnum(s)
	for _, c := range Categories {
		if norm == string(c) || norm == normalizeEnum(c.Label()) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ParsePhysicalStatus works like ParseCategory. An empty string or "none" yields PhysicalStatusNone.
func ParsePhysicalStatus(s string) (PhysicalStatus, error) {
	norm := normalizeEnum(s)
	if norm == "" || norm == "NONE" {
		return PhysicalStatusNone, nil
	}
	for _, st := range PhysicalStatuses {
		if norm == string(st) || norm == normalizeEnum(st.Label()) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown physical status %q", s)
}

func normalizeEnum(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// Placeholders for values the source did not provide.
const (
	UnknownAuthor        = "Unknown author"
	NoDescription        = "No description available."
	UnknownPublisher     = "Unknown publisher"
	UnspecifiedPublisher = "Not specified"
)

// Book is a persisted entry in the user's library.
type Book struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Author         string         `json:"author"`
	Description    string         `json:"description"`
	Publisher      string         `json:"publisher"`
	Series         string         `json:"series"`
	Category       Category       `json:"category"`
	PhysicalStatus PhysicalStatus `json:"physicalStatus,omitempty"`
}

// Raw strips the shelf placement from the book.
func (b Book) Raw() RawBook {
	return RawBook{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		Publisher:   b.Publisher,
		Series:      b.Series,
	}
}

// RawBook is a search candidate that has not been committed to the library yet.
type RawBook struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Publisher   string `json:"publisher"`
	Series      string `json:"series"`
}

// WithShelf turns the candidate into a library record.
func (r RawBook) WithShelf(category Category, status PhysicalStatus) Book {
	return Book{
		ID:             r.ID,
		Title:          r.Title,
		Author:         r.Author,
		Description:    r.Description,
		Publisher:      r.Publisher,
		Series:         r.Series,
		Category:       category,
		PhysicalStatus: status,
	}
}

// BookRef is the minimal description of a book sent to the recommender.
type BookRef struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Recommendation is a suggested book with the reason it was suggested.
type Recommendation struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Reason string `json:"reason"`
}

// RecommendationWithStatus tracks whether the suggestion was already put on the want-to-read shelf.
type RecommendationWithStatus struct {
	Recommendation
	IsAddedToWantToRead bool `json:"isAddedToWantToRead"`
}

// RecommendationIDPrefix namespaces ids of books accepted from recommendations.
const RecommendationIDPrefix = "ai-"

// RecommendationID derives a stable id from a recommended title by removing all whitespace.
func RecommendationID(title string) string {
	return RecommendationIDPrefix + strings.Join(strings.Fields(title), "")
}

// ToBook converts an accepted recommendation into a want-to-read record.
// A blank author or reason is replaced with its placeholder.
func (r Recommendation) ToBook() Book {
	return Book{
		ID:          RecommendationID(r.Title),
		Title:       r.Title,
		Author:      placeholder(r.Author, UnknownAuthor),
		Description: placeholder(r.Reason, NoDescription),
		Publisher:   UnspecifiedPublisher,
		Category:    CategoryWantToRead,
	}
}

// ManualIDPrefix namespaces ids of books entered by hand.
const ManualIDPrefix = "manual-"

// ManualEntry is the form a user fills in to add a book the catalog does not know.
type ManualEntry struct {
	Title       string
	Author      string
	Description string
	Publisher   string
	Series      string
}

func placeholder(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
