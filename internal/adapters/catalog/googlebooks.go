package catalog

import (
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultGoogleBooksURL is the public Google Books API root.
const DefaultGoogleBooksURL = "https://www.googleapis.com/books/v1"

var _ ports.CatalogSearcher = (*GoogleBooksClient)(nil)

// GoogleBooksClient searches the Google Books volumes API.
type GoogleBooksClient struct {
	baseURL    string
	apiKey     string
	language   string
	maxResults int
	client     *http.Client
}

type GoogleBooksOption func(*GoogleBooksClient)

func WithAPIKey(key string) GoogleBooksOption {
	return func(c *GoogleBooksClient) { c.apiKey = key }
}

// WithLanguage restricts results to an ISO 639-1 language code.
func WithLanguage(lang string) GoogleBooksOption {
	return func(c *GoogleBooksClient) { c.language = lang }
}

func WithMaxResults(n int) GoogleBooksOption {
	return func(c *GoogleBooksClient) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

func NewGoogleBooksClient(baseURL string, client *http.Client, opts ...GoogleBooksOption) *GoogleBooksClient {
	if baseURL == "" {
		baseURL = DefaultGoogleBooksURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	c := &GoogleBooksClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxResults: 10,
		client:     client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type volumesResponse struct {
	Items []volume `json:"items"`
}

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title       string   `json:"title"`
		Authors     []string `json:"authors"`
		Description string   `json:"description"`
		Publisher   string   `json:"publisher"`
	} `json:"volumeInfo"`
}

func (c *GoogleBooksClient) Search(ctx context.Context, query string, authorOnly bool) ([]models.RawBook, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.RawBook{}, nil
	}

	q := query
	if authorOnly {
		q = fmt.Sprintf("inauthor:%q", query)
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("maxResults", strconv.Itoa(c.maxResults))
	if c.language != "" {
		params.Set("langRestrict", c.language)
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/volumes?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ports.ErrServiceUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrConnectivity, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: google books returned status %d: %s", ports.ErrServiceUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode google books response: %w", ports.ErrServiceUnavailable, err)
	}

	books := make([]models.RawBook, 0, len(data.Items))
	for _, item := range data.Items {
		if item.ID == "" || strings.TrimSpace(item.VolumeInfo.Title) == "" {
			continue
		}
		books = append(books, models.RawBook{
			ID:          item.ID,
			Title:       item.VolumeInfo.Title,
			Author:      orDefault(strings.Join(item.VolumeInfo.Authors, ", "), models.UnknownAuthor),
			Description: orDefault(item.VolumeInfo.Description, models.NoDescription),
			Publisher:   orDefault(item.VolumeInfo.Publisher, models.UnknownPublisher),
			// The API has no reliable series field.
			Series: "",
		})
	}

	log.Debug().Str("component", "googlebooks").Str("query", q).Int("results", len(books)).Msg("catalog search finished")
	return books, nil
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
