package catalog

import (
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed/atom"
	"github.com/rs/zerolog/log"
)

const (
	searchTermsSlot = "{searchTerms}"
	authorSlot      = "{atom:author}"
	relNext         = "next"
	maxOPDSPages    = 5
)

var _ ports.CatalogSearcher = (*OPDSClient)(nil)

// OPDSClient searches an OPDS catalog through its OpenSearch URL template,
// e.g. https://example.org/opds/search?q={searchTerms}&author={atom:author}.
type OPDSClient struct {
	template   string
	username   string
	password   string
	maxResults int
	client     *http.Client
}

func NewOPDSClient(template, username, password string, maxResults int, client *http.Client) *OPDSClient {
	if client == nil {
		client = http.DefaultClient
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	return &OPDSClient{
		template:   template,
		username:   username,
		password:   password,
		maxResults: maxResults,
		client:     client,
	}
}

func (c *OPDSClient) Search(ctx context.Context, query string, authorOnly bool) ([]models.RawBook, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.RawBook{}, nil
	}
	if !strings.Contains(c.template, searchTermsSlot) {
		return nil, fmt.Errorf("%w: opds search url has no %s slot", ports.ErrServiceUnavailable, searchTermsSlot)
	}

	// Without an author slot the query goes in as free text and results are filtered afterwards.
	filterByAuthor := authorOnly && !strings.Contains(c.template, authorSlot)

	target := c.searchURL(query, authorOnly)
	visited := make(map[string]bool)
	var books []models.RawBook

	for page := 0; target != "" && page < maxOPDSPages && len(books) < c.maxResults; page++ {
		if visited[target] {
			break
		}
		visited[target] = true

		entries, next, err := c.fetchPage(ctx, target)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			// Keep what the earlier pages produced.
			log.Warn().Err(err).Str("component", "opds").Str("page", target).Msg("stopping pagination")
			break
		}

		for _, b := range entries {
			if filterByAuthor && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(query)) {
				continue
			}
			books = append(books, b)
			if len(books) == c.maxResults {
				break
			}
		}
		target = next
	}

	if books == nil {
		books = []models.RawBook{}
	}
	log.Debug().Str("component", "opds").Str("query", query).Bool("author_only", authorOnly).Int("results", len(books)).Msg("catalog search finished")
	return books, nil
}

func (c *OPDSClient) searchURL(query string, authorOnly bool) string {
	terms, author := query, ""
	if authorOnly && strings.Contains(c.template, authorSlot) {
		terms, author = "", query
	}
	return strings.NewReplacer(
		searchTermsSlot, url.QueryEscape(terms),
		authorSlot, url.QueryEscape(author),
	).Replace(c.template)
}

func (c *OPDSClient) fetchPage(ctx context.Context, target string) ([]models.RawBook, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: build request: %w", ports.ErrServiceUnavailable, err)
	}
	req.Header.Set("Accept", "application/atom+xml")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ports.ErrConnectivity, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, "", fmt.Errorf("%w: opds feed returned status %d", ports.ErrServiceUnavailable, resp.StatusCode)
	}

	feed, err := (&atom.Parser{}).Parse(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: parse opds feed: %w", ports.ErrServiceUnavailable, err)
	}

	baseURL, _ := url.Parse(target)
	books := make([]models.RawBook, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if entry.ID == "" || strings.TrimSpace(entry.Title) == "" {
			continue
		}
		books = append(books, entryToRawBook(entry))
	}

	next := ""
	for _, link := range feed.Links {
		if link.Rel != relNext {
			continue
		}
		if ref, err := url.Parse(link.Href); err == nil {
			next = baseURL.ResolveReference(ref).String()
		}
		break
	}

	return books, next, nil
}

func entryToRawBook(entry *atom.Entry) models.RawBook {
	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	description := entry.Summary
	if strings.TrimSpace(description) == "" && entry.Content != nil {
		description = entry.Content.Value
	}

	return models.RawBook{
		ID:          entry.ID,
		Title:       strings.TrimSpace(entry.Title),
		Author:      orDefault(strings.Join(authors, ", "), models.UnknownAuthor),
		Description: orDefault(strings.TrimSpace(description), models.NoDescription),
		Publisher:   orDefault(dcValue(entry, "publisher"), models.UnknownPublisher),
	}
}

// dcValue returns the first Dublin Core element with the given name.
func dcValue(entry *atom.Entry, name string) string {
	for _, prefix := range []string{"dc", "dcterms"} {
		if exts, ok := entry.Extensions[prefix][name]; ok && len(exts) > 0 {
			return strings.TrimSpace(exts[0].Value)
		}
	}
	return ""
}
