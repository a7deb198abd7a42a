// Package nyt provides the HTTP client for the NYT Article Search API,
// with response caching, request metrics, and outcome classification.
package nyt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iJarvis/nyt-article-loader/pkg/cache"
)

// json is a drop-in replacement for encoding/json with better performance.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Prometheus metrics for Article Search requests.
var (
	nytRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nyt_requests_total",
		Help: "Total Article Search requests by outcome",
	}, []string{"outcome"})

	nytRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nyt_request_duration_seconds",
		Help:    "Article Search request duration in seconds by outcome",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"outcome"})

	nytDocumentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nyt_documents_total",
		Help: "Total documents returned across all search pages",
	})
)

// Provider constants for the Article Search API.
const (
	// DefaultBaseURL is the Article Search endpoint.
	DefaultBaseURL = "https://api.nytimes.com/svc/search/v2/articlesearch.json"

	// DefaultSort orders results oldest-first, which incremental loading
	// depends on for watermark advancement.
	DefaultSort = "oldest"

	// PageCeiling is the maximum page count the provider allows per
	// query/filter combination (pages 0-99).
	PageCeiling = 100

	// statusError is the status value the provider uses for unrecoverable
	// request errors (malformed query, bad URL).
	statusError = "ERROR"
)

// Config holds the client configuration.
type Config struct {
	// APIKey authenticates requests (api-key parameter). Required.
	APIKey string

	// Query is the free-text search query (q parameter). Required.
	Query string

	// BaseURL overrides the Article Search endpoint (for testing).
	BaseURL string

	// Sort is the result ordering. Defaults to "oldest".
	Sort string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// Cache, when set, serves repeated page requests from Redis.
	Cache *cache.Manager
}

// Client issues one bounded query to the Article Search API per call.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates an Article Search client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Sort == "" {
		cfg.Sort = DefaultSort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: log.With().Str("component", "nyt-client").Logger(),
	}, nil
}

// Search fetches one result page scoped by the pub_date lower bound.
// The page offset must be in [0, PageCeiling).
//
// Transport and decode failures are returned as errors; every provider-level
// condition (fault, error status, zero hits, documents) is reported on the
// Result so the caller can drive its own recovery.
func (c *Client) Search(ctx context.Context, pubDateFloor string, page int) (*Result, error) {
	if page < 0 || page >= PageCeiling {
		return nil, fmt.Errorf("page %d out of range [0, %d)", page, PageCeiling)
	}

	filter := "pub_date:>=" + pubDateFloor

	start := time.Now()
	body, cached, err := c.fetchBody(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	result, err := decodeResult(body)
	if err != nil {
		nytRequestsTotal.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	outcome := result.Outcome()
	nytRequestsTotal.WithLabelValues(outcome).Inc()
	nytRequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	c.logger.Debug().
		Str("filter", filter).
		Int("page", page).
		Str("outcome", outcome).
		Int("hits", result.Hits).
		Int("docs", len(result.Docs)).
		Bool("cache_hit", cached).
		Dur("duration", time.Since(start)).
		Msg("Search page fetched")

	// Only healthy pages are worth caching.
	if c.config.Cache != nil && !cached && len(result.Docs) > 0 {
		key := c.cacheKey(filter, page)
		if err := c.config.Cache.Set(ctx, key, body); err != nil {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to cache search page")
		}
	}

	if len(result.Docs) > 0 {
		nytDocumentsTotal.Add(float64(len(result.Docs)))
	}

	return result, nil
}

// fetchBody returns the raw response body for one page, from cache when
// possible. The second return reports whether the body came from cache.
func (c *Client) fetchBody(ctx context.Context, filter string, page int) ([]byte, bool, error) {
	if c.config.Cache != nil {
		key := c.cacheKey(filter, page)
		body, err := c.config.Cache.Get(ctx, key)
		if err == nil {
			return body, true, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache get error")
		}
	}

	params := url.Values{}
	params.Set("q", c.config.Query)
	params.Set("api-key", c.config.APIKey)
	params.Set("sort", c.config.Sort)
	params.Set("fq", filter)
	params.Set("page", strconv.Itoa(page))

	requestURL := c.config.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		nytRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, false, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		nytRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, false, fmt.Errorf("read response body: %w", err)
	}

	// Quota faults arrive as JSON bodies on non-2xx statuses, so the status
	// code alone does not decide success. A non-2xx status with a body the
	// decoder cannot make sense of is reported as an APIError.
	if resp.StatusCode >= 400 && !looksLikeSearchResponse(body) {
		nytRequestsTotal.WithLabelValues("http_error").Inc()
		return nil, false, &APIError{
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
		}
	}

	return body, false, nil
}

// cacheKey builds the cache key for one search page.
func (c *Client) cacheKey(filter string, page int) cache.Key {
	return cache.Key{
		Query:  c.config.Query,
		Filter: filter,
		Sort:   c.config.Sort,
		Page:   page,
	}
}

// looksLikeSearchResponse reports whether the body carries one of the shapes
// the provider documents: {status, response: {...}} or {fault: {...}}.
func looksLikeSearchResponse(body []byte) bool {
	var probe struct {
		Status string         `json:"status"`
		Fault  map[string]any `json:"fault"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return probe.Status != "" || probe.Fault != nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
