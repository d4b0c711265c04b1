// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry implements the bibliographic registry client. It talks
// to the CrossRef REST API, enforces a shared rate limit across all
// lookups in a job, and maps registry works onto ExternalRecord values.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/reference-engine/internal/httputil"
	"github.com/pdiddy/reference-engine/internal/parse"
	"github.com/pdiddy/reference-engine/pkg/types"
)

// APIBase is the CrossRef REST API base URL. Tests point it at a local
// server.
var APIBase = "https://api.crossref.org"

var (
	// ErrNotFound means the registry has no record for the query. Callers
	// fall back to a title search (DOI lookups) or reject the entry.
	ErrNotFound = errors.New("registry: record not found")

	// ErrTransient means the lookup failed for reasons unrelated to the
	// record itself: network errors, timeouts, or persistent 5xx/429 after
	// retries. Callers reject with reason "network".
	ErrTransient = errors.New("registry: transient failure")
)

// Cache memoizes DOI lookups so repeated runs over the same bibliography
// skip the network. Implementations are best-effort; the client ignores
// cache errors.
type Cache interface {
	Get(ctx context.Context, doi string) (*types.ExternalRecord, bool, error)
	Put(ctx context.Context, doi string, rec *types.ExternalRecord) error
}

// Client is a rate-limited CrossRef API client. All methods share one
// limiter, so total request throughput stays capped no matter how many
// goroutines call in.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	cfg        types.RegistryConfig
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API base URL (for testing).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithCache attaches a lookup cache.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient creates a registry client from cfg. A zero MinInterval
// disables rate limiting.
func NewClient(cfg types.RegistryConfig, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		cfg:        cfg,
		baseURL:    APIBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupByDOI fetches the registry record identified by doi. It returns
// ErrNotFound when the registry has no such record and ErrTransient for
// network or server failures that survived retries.
func (c *Client) LookupByDOI(ctx context.Context, doi string) (*types.ExternalRecord, error) {
	doi = parse.NormalizeDOI(doi)
	if doi == "" {
		return nil, ErrNotFound
	}

	if c.cache != nil {
		if rec, ok, err := c.cache.Get(ctx, doi); err == nil && ok {
			return rec, nil
		}
	}

	apiURL := c.baseURL + "/works/" + url.PathEscape(doi) + "?" + c.politeParams().Encode()
	var cr crossrefResponse
	if err := c.getJSON(ctx, apiURL, &cr); err != nil {
		return nil, err
	}

	rec := mapWork(&cr.Message)
	if c.cache != nil {
		_ = c.cache.Put(ctx, doi, rec)
	}
	return rec, nil
}

// SearchByTitle queries the registry for works matching title, optionally
// biased by an author surname hint. Candidates come back in registry
// relevance order. An empty result list is not an error.
func (c *Client) SearchByTitle(ctx context.Context, title, authorHint string) ([]types.ExternalRecord, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}

	rows := c.cfg.SearchRows
	if rows <= 0 {
		rows = 10
	}
	params := c.politeParams()
	params.Set("query.title", title)
	params.Set("rows", strconv.Itoa(rows))
	params.Set("sort", "relevance")
	if authorHint != "" {
		params.Set("query.author", authorHint)
	}

	apiURL := c.baseURL + "/works?" + params.Encode()
	var cr crossrefListResponse
	if err := c.getJSON(ctx, apiURL, &cr); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	records := make([]types.ExternalRecord, 0, len(cr.Message.Items))
	for i := range cr.Message.Items {
		records = append(records, *mapWork(&cr.Message.Items[i]))
	}
	return records, nil
}

// getJSON performs a rate-limited GET with retries and decodes the
// response body into v.
func (c *Client) getJSON(ctx context.Context, apiURL string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", ErrTransient, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.PlusToken != "" {
		req.Header.Set("Crossref-Plus-API-Token", "Bearer "+c.cfg.PlusToken)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: registry returned HTTP %d", ErrTransient, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: parsing registry response: %v", ErrTransient, err)
	}
	return nil
}

// politeParams returns the query parameters shared by every request. A
// mailto address enrolls requests in the registry's polite pool.
func (c *Client) politeParams() url.Values {
	params := url.Values{}
	if c.cfg.Mailto != "" {
		params.Set("mailto", c.cfg.Mailto)
	}
	return params
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefListResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	Title           []string         `json:"title"`
	Author          []crossrefAuthor `json:"author"`
	ContainerTitle  []string         `json:"container-title"`
	Volume          string           `json:"volume"`
	Issue           string           `json:"issue"`
	Page            string           `json:"page"`
	ArticleNumber   string           `json:"article-number"`
	DOI             string           `json:"DOI"`
	PublishedPrint  crossrefDate     `json:"published-print"`
	PublishedOnline crossrefDate     `json:"published-online"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// mapWork converts a registry work into an ExternalRecord. Fields absent
// from the work stay empty; the print date wins over the online date when
// both are present.
func mapWork(w *crossrefWork) *types.ExternalRecord {
	rec := &types.ExternalRecord{
		Volume: w.Volume,
		Issue:  w.Issue,
		Pages:  w.Page,
		DOI:    strings.ToLower(w.DOI),
	}
	if len(w.Title) > 0 {
		rec.Title = strings.TrimSpace(w.Title[0])
	}
	if len(w.ContainerTitle) > 0 {
		rec.Venue = strings.TrimSpace(w.ContainerTitle[0])
	}
	if rec.Pages == "" {
		rec.Pages = w.ArticleNumber
	}
	for _, a := range w.Author {
		rec.Authors = append(rec.Authors, types.ExternalAuthor{
			Given:  strings.TrimSpace(a.Given),
			Family: strings.TrimSpace(a.Family),
		})
	}
	rec.Year = yearOf(w.PublishedPrint)
	if rec.Year == 0 {
		rec.Year = yearOf(w.PublishedOnline)
	}
	return rec
}

func yearOf(d crossrefDate) int {
	if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
		return d.DateParts[0][0]
	}
	return 0
}
