package service

import (
	"bookshelf/internal/core/domain/models"
	"slices"
)

// Status is the lifecycle of an asynchronous operation.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// OperationState is the status of the latest operation of one kind plus the
// message shown to the user when it failed.
type OperationState struct {
	Status  Status
	Message string
}

func idle() OperationState { return OperationState{Status: StatusIdle} }
func loading() OperationState { return OperationState{Status: StatusLoading} }
func success() OperationState { return OperationState{Status: StatusSuccess} }

func failed(msg string) OperationState {
	return OperationState{Status: StatusError, Message: msg}
}

// View is the screen the user is looking at.
type View string

const (
	ViewLibrary         View = "LIBRARY"
	ViewSearch          View = "SEARCH"
	ViewRecommendations View = "RECOMMENDATIONS"
	ViewWishlist        View = "WISHLIST"
	ViewCollection      View = "COLLECTION"
)

var Views = []View{ViewLibrary, ViewSearch, ViewRecommendations, ViewWishlist, ViewCollection}

// User-facing messages.
const (
	MsgLoadFailed            = "Could not open your library."
	MsgSearchUnavailable     = "The search service is temporarily unavailable. Try again later."
	MsgSearchConnectivity    = "Search failed. Check your internet connection."
	MsgNeedReadBooks         = "Add at least one book to Reading or Read to get recommendations."
	MsgRecommendationsFailed = "Could not get recommendations. Try again later."
)

type SearchState struct {
	Query      string
	AuthorOnly bool
	Results    []models.RawBook
	State      OperationState
}

type RecommendationState struct {
	Items []models.RecommendationWithStatus
	State OperationState
	// Notice guides the user when recommendations cannot be requested yet.
	Notice string
}

// Snapshot is a point-in-time copy of everything the UI renders.
type Snapshot struct {
	Books []models.Book
	Load  OperationState

	View View
	Tab  models.Category

	Search          SearchState
	Recommendations RecommendationState

	Candidate     *models.RawBook
	Details       *models.Book
	ManualAddOpen bool
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Books = slices.Clone(s.Books)
	out.Search.Results = slices.Clone(s.Search.Results)
	out.Recommendations.Items = slices.Clone(s.Recommendations.Items)
	if s.Candidate != nil {
		c := *s.Candidate
		out.Candidate = &c
	}
	if s.Details != nil {
		d := *s.Details
		out.Details = &d
	}
	return out
}
