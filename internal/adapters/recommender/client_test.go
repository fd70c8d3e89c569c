package recommender

import (
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	answer string
	err    error
	prompt string
	calls  int
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.answer, s.err
}

func (s *stubGenerator) Name() string { return "stub" }

var readBooks = []models.BookRef{
	{Title: "Solaris", Author: "Stanisław Lem"},
	{Title: "Dune", Author: "Frank Herbert"},
}

func TestClient_Recommend(t *testing.T) {
	gen := &stubGenerator{answer: `[
		{"title": "Hyperion", "author": "Dan Simmons", "reason": "Layered space opera."},
		{"title": " The Left Hand of Darkness ", "author": "Ursula K. Le Guin", "reason": "Anthropological SF."}
	]`}

	recs, err := NewClient(gen, 5).Recommend(context.Background(), readBooks)
	require.NoError(t, err)

	assert.Equal(t, []models.Recommendation{
		{Title: "Hyperion", Author: "Dan Simmons", Reason: "Layered space opera."},
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Reason: "Anthropological SF."},
	}, recs)
	assert.Contains(t, gen.prompt, "Solaris (Stanisław Lem), Dune (Frank Herbert)")
	assert.Contains(t, gen.prompt, "Recommend 5 new books")
}

func TestClient_TruncatesToCount(t *testing.T) {
	gen := &stubGenerator{answer: `[
		{"title": "A", "author": "x", "reason": "r"},
		{"title": "B", "author": "x", "reason": "r"},
		{"title": "C", "author": "x", "reason": "r"}
	]`}

	recs, err := NewClient(gen, 2).Recommend(context.Background(), readBooks)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "B", recs[1].Title)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
	}{
		{name: "generator error", err: errors.New("boom")},
		{name: "empty", answer: "   "},
		{name: "not json", answer: "Here are some books you may like"},
		{name: "object instead of array", answer: `{"title": "A", "author": "B", "reason": "C"}`},
		{name: "missing key", answer: `[{"title": "A", "author": "B"}]`},
		{name: "extra key", answer: `[{"title": "A", "author": "B", "reason": "C", "year": 1990}]`},
		{name: "wrong type", answer: `[{"title": 1, "author": "B", "reason": "C"}]`},
		{name: "blank title", answer: `[{"title": " ", "author": "B", "reason": "C"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(&stubGenerator{answer: tt.answer, err: tt.err}, 5).Recommend(context.Background(), readBooks)
			assert.ErrorIs(t, err, ports.ErrRecommendationFailed)
		})
	}
}

func TestClient_NoBooks(t *testing.T) {
	gen := &stubGenerator{}
	_, err := NewClient(gen, 0).Recommend(context.Background(), nil)
	assert.ErrorIs(t, err, ports.ErrRecommendationFailed)
	assert.Zero(t, gen.calls)
}

func TestParseRecommendations_CodeFence(t *testing.T) {
	recs, err := ParseRecommendations("```json\n[{\"title\": \"A\", \"author\": \"B\", \"reason\": \"C\"}]\n```")
	require.NoError(t, err)
	assert.Equal(t, []models.Recommendation{{Title: "A", Author: "B", Reason: "C"}}, recs)
}

func TestParseRecommendations_EmptyArray(t *testing.T) {
	recs, err := ParseRecommendations("[]")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{Reason: "no api key"}.Recommend(context.Background(), readBooks)
	assert.ErrorIs(t, err, ports.ErrRecommendationFailed)
	assert.Contains(t, err.Error(), "no api key")
}
