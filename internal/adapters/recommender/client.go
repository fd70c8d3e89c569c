package recommender

import (
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultCount is how many books are requested when no count is configured.
const DefaultCount = 5

// TextGenerator produces a completion for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

var _ ports.Recommender = (*Client)(nil)

// Client builds the recommendation prompt and enforces the JSON answer contract
// on top of any TextGenerator.
type Client struct {
	gen   TextGenerator
	count int
}

func NewClient(gen TextGenerator, count int) *Client {
	if count <= 0 {
		count = DefaultCount
	}
	return &Client{gen: gen, count: count}
}

func (c *Client) Recommend(ctx context.Context, books []models.BookRef) ([]models.Recommendation, error) {
	if len(books) == 0 {
		return nil, fmt.Errorf("%w: no books to base recommendations on", ports.ErrRecommendationFailed)
	}

	logger := log.With().Str("component", "recommender").Str("backend", c.gen.Name()).Logger()
	logger.Debug().Int("books", len(books)).Int("count", c.count).Msg("requesting recommendations")

	text, err := c.gen.Generate(ctx, BuildPrompt(books, c.count))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrRecommendationFailed, err)
	}

	recs, err := ParseRecommendations(text)
	if err != nil {
		logger.Warn().Err(err).Msg("model answer rejected")
		return nil, fmt.Errorf("%w: %w", ports.ErrRecommendationFailed, err)
	}
	if len(recs) > c.count {
		recs = recs[:c.count]
	}

	logger.Info().Int("recommendations", len(recs)).Msg("recommendations received")
	return recs, nil
}

// BuildPrompt asks for count books similar to the given ones.
func BuildPrompt(books []models.BookRef, count int) string {
	list := make([]string, 0, len(books))
	for _, b := range books {
		list = append(list, fmt.Sprintf("%s (%s)", b.Title, b.Author))
	}
	return fmt.Sprintf("Based on these books I have read: %s. "+
		"Recommend %d new books I might enjoy. "+
		"For each book give the title, the author and a short one-sentence explanation of why it suits me. "+
		`Answer with a JSON array of objects, each with exactly the keys "title", "author" and "reason".`,
		strings.Join(list, ", "), count)
}

type answerItem struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	Reason *string `json:"reason"`
}

var errBadAnswer = errors.New("malformed recommendation answer")

// ParseRecommendations decodes a model answer. The answer must be a JSON array of
// objects carrying exactly the string keys title, author and reason.
func ParseRecommendations(text string) ([]models.Recommendation, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty answer", errBadAnswer)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadAnswer, err)
	}

	recs := make([]models.Recommendation, 0, len(raw))
	for i, msg := range raw {
		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.DisallowUnknownFields()

		var item answerItem
		if err := dec.Decode(&item); err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", errBadAnswer, i, err)
		}
		if item.Title == nil || item.Author == nil || item.Reason == nil {
			return nil, fmt.Errorf("%w: item %d: missing title, author or reason", errBadAnswer, i)
		}
		if strings.TrimSpace(*item.Title) == "" {
			return nil, fmt.Errorf("%w: item %d: empty title", errBadAnswer, i)
		}
		recs = append(recs, models.Recommendation{
			Title:  strings.TrimSpace(*item.Title),
			Author: strings.TrimSpace(*item.Author),
			Reason: strings.TrimSpace(*item.Reason),
		})
	}
	return recs, nil
}

// stripCodeFence removes a surrounding ```json fence some local models add.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// Unavailable is the recommender used when no backend is configured.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Recommend(context.Context, []models.BookRef) ([]models.Recommendation, error) {
	return nil, fmt.Errorf("%w: %s", ports.ErrRecommendationFailed, u.Reason)
}
