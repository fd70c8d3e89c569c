package ports

import "errors"

var (
	// ErrStoreOpenFailed means the underlying storage could not be opened or created.
	ErrStoreOpenFailed = errors.New("book store could not be opened")
	ErrDuplicateKey    = errors.New("book with this id already exists")
	ErrNotFound        = errors.New("book not found")

	ErrPreconditionNotMet = errors.New("precondition not met")

	// ErrServiceUnavailable and ErrConnectivity are the two kinds of search failure.
	ErrServiceUnavailable = errors.New("search service unavailable")
	ErrConnectivity       = errors.New("search service unreachable")

	ErrRecommendationFailed = errors.New("recommendation failed")

	// ErrSuperseded is returned when a newer request of the same kind was issued
	// while this one was in flight; its result was discarded.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// IsSearchFailed reports whether err is either kind of search failure.
func IsSearchFailed(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrConnectivity)
}
