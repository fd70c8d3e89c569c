package models

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrInvalidBook        = errors.New("invalid book record")
	ErrInvalidManualEntry = errors.New("title and author are required")
)

var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be blank")
	}
	return nil
})

// Validate checks the record invariants: required display fields, exactly one
// category and at most one physical status.
func (b Book) Validate() error {
	err := validation.ValidateStruct(&b,
		validation.Field(&b.ID, validation.Required, notBlank),
		validation.Field(&b.Title, validation.Required, notBlank),
		validation.Field(&b.Author, validation.Required, notBlank),
		validation.Field(&b.Category, validation.Required,
			validation.In(CategoryReading, CategoryRead, CategoryWantToRead)),
		validation.Field(&b.PhysicalStatus,
			validation.In(PhysicalStatusOwned, PhysicalStatusWantToBuy)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBook, err)
	}
	return nil
}

// Candidate trims the entry, checks the required fields and fills placeholders.
func (e ManualEntry) Candidate(id string) (RawBook, error) {
	e = ManualEntry{
		Title:       strings.TrimSpace(e.Title),
		Author:      strings.TrimSpace(e.Author),
		Description: strings.TrimSpace(e.Description),
		Publisher:   strings.TrimSpace(e.Publisher),
		Series:      strings.TrimSpace(e.Series),
	}

	err := validation.ValidateStruct(&e,
		validation.Field(&e.Title, validation.Required),
		validation.Field(&e.Author, validation.Required),
	)
	if err != nil {
		return RawBook{}, fmt.Errorf("%w: %v", ErrInvalidManualEntry, err)
	}

	raw := RawBook{
		ID:          id,
		Title:       e.Title,
		Author:      e.Author,
		Description: e.Description,
		Publisher:   e.Publisher,
		Series:      e.Series,
	}
	if raw.Description == "" {
		raw.Description = NoDescription
	}
	if raw.Publisher == "" {
		raw.Publisher = UnknownPublisher
	}
	return raw, nil
}
