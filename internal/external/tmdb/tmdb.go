package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/glefebvre/mediacatalog/internal/circuitbreaker"
	apperrors "github.com/glefebvre/mediacatalog/internal/errors"
	"github.com/glefebvre/mediacatalog/internal/logger"
	"github.com/glefebvre/mediacatalog/internal/metrics"
	"github.com/glefebvre/mediacatalog/internal/models"
	"github.com/glefebvre/mediacatalog/internal/retry"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	defaultTimeout = 15 * time.Second
	serviceName    = "tmdb"

	// MaxTrendingPages is the deepest page the upstream serves
	MaxTrendingPages = 500

	appendToResponse = "videos,images,similar"
)

// Client handles TMDB API interactions
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	logger     *logger.Logger
	circuitBrk *circuitbreaker.CircuitBreaker
	limiter    *rate.Limiter
	retryCfg   retry.Config
}

// Config holds TMDB client configuration
type Config struct {
	APIKey   string
	BaseURL  string
	Language string // e.g. "en-US"
	Timeout  time.Duration

	// RequestsPerSecond throttles outgoing calls; 0 disables throttling
	RequestsPerSecond float64

	// Retry overrides the default retry policy
	Retry *retry.Config
}

// NewClient creates a new TMDB API client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	log := logger.AppLogger()

	cb := circuitbreaker.New(circuitbreaker.Config{
		Name:        serviceName,
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		IsSuccessful: func(err error) bool {
			return err == nil || apperrors.IsNotFound(err)
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.SetCircuitBreakerState(name, int(to))
			log.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}

	retryCfg := retry.DefaultConfig()
	if cfg.Retry != nil {
		retryCfg = *cfg.Retry
	}

	return &Client{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		language: cfg.Language,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:     log,
		circuitBrk: cb,
		limiter:    limiter,
		retryCfg:   retryCfg,
	}
}

// Trending fetches one page of /trending/{kind}/{window}
func (c *Client) Trending(ctx context.Context, kind models.Kind, window models.Window, page int) (*TrendingPage, error) {
	params := url.Values{}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}

	var response TrendingPage
	endpoint := fmt.Sprintf("/trending/%s/%s", kind, window)
	if err := c.makeRequest(ctx, "trending", endpoint, params, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// TrendingAll walks every page of a trending listing, sequentially and in rank order.
// Pages beyond MaxTrendingPages are never requested. Any page failure aborts the listing.
func (c *Client) TrendingAll(ctx context.Context, kind models.Kind, window models.Window) (*Listing, error) {
	first, err := c.Trending(ctx, kind, window, 1)
	if err != nil {
		return nil, fmt.Errorf("trending page 1: %w", err)
	}

	listing := &Listing{
		Items:      append([]TrendingItem{}, first.Results...),
		TotalPages: first.TotalPages,
		Pages:      clampPages(first.TotalPages),
	}

	for page := 2; page <= listing.Pages; page++ {
		next, err := c.Trending(ctx, kind, window, page)
		if err != nil {
			return nil, fmt.Errorf("trending page %d: %w", page, err)
		}
		listing.Items = append(listing.Items, next.Results...)

		c.logger.WithFields(map[string]interface{}{
			"kind":  kind,
			"page":  page,
			"pages": listing.Pages,
		}).DebugContext(ctx, "Fetched trending page")
	}

	return listing, nil
}

func clampPages(total int) int {
	if total < 1 {
		return 1
	}
	if total > MaxTrendingPages {
		return MaxTrendingPages
	}
	return total
}

// MovieDetails retrieves /movie/{id} with videos, images and similar appended
func (c *Client) MovieDetails(ctx context.Context, id int64) (*MovieDetails, error) {
	params := url.Values{}
	params.Set("append_to_response", appendToResponse)

	var details MovieDetails
	if err := c.makeRequest(ctx, "movie", fmt.Sprintf("/movie/%d", id), params, &details); err != nil {
		return nil, err
	}
	if details.ID == 0 {
		return nil, apperrors.New(apperrors.CodeMalformedData, "movie payload without id").WithContext("id", id)
	}
	return &details, nil
}

// SeriesDetails retrieves /tv/{id} with videos, images and similar appended
func (c *Client) SeriesDetails(ctx context.Context, id int64) (*SeriesDetails, error) {
	params := url.Values{}
	params.Set("append_to_response", appendToResponse)

	var details SeriesDetails
	if err := c.makeRequest(ctx, "tv", fmt.Sprintf("/tv/%d", id), params, &details); err != nil {
		return nil, err
	}
	if details.ID == 0 {
		return nil, apperrors.New(apperrors.CodeMalformedData, "tv payload without id").WithContext("id", id)
	}
	return &details, nil
}

// FetchMovie returns the normalized movie, or nil when it cannot be fetched or parsed
func (c *Client) FetchMovie(ctx context.Context, id int64) *models.Movie {
	details, err := c.MovieDetails(ctx, id)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{"id": id, "kind": models.KindMovie}).
			ErrorContext(ctx, "Failed to fetch movie details", err)
		return nil
	}
	return NormalizeMovie(details)
}

// FetchSeries returns the normalized series, or nil when it cannot be fetched or parsed
func (c *Client) FetchSeries(ctx context.Context, id int64) *models.Series {
	details, err := c.SeriesDetails(ctx, id)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{"id": id, "kind": models.KindSeries}).
			ErrorContext(ctx, "Failed to fetch series details", err)
		return nil
	}
	return NormalizeSeries(details)
}

// retryAfter carries a Retry-After delay through the retry helper
type retryAfter time.Duration

func (r retryAfter) Error() string             { return fmt.Sprintf("retry after %s", time.Duration(r)) }
func (r retryAfter) RetryAfter() time.Duration { return time.Duration(r) }

// makeRequest performs an HTTP request to the TMDB API with rate limiting, circuit breaker and retry
func (c *Client) makeRequest(ctx context.Context, label, endpoint string, params url.Values, result interface{}) error {
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)

	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.circuitBrk.Execute(func() error {
			return c.do(ctx, label, requestURL, result)
		})
	}

	cfg := c.retryCfg
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.logger.WithFields(map[string]interface{}{
			"endpoint": endpoint,
			"attempt":  attempt,
			"wait_ms":  wait.Milliseconds(),
		}).WarnContext(ctx, "Retrying TMDB request: "+err.Error())
	}

	if err := retry.Do(ctx, cfg, operation, apperrors.IsRetryable); err != nil {
		if errors.Is(err, circuitbreaker.ErrOpenState) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "TMDB circuit open")
		}
		return err
	}

	return nil
}

func (c *Client) do(ctx context.Context, label, requestURL string, result interface{}) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to build TMDB request")
	}
	req.Header.Set("Accept-Language", c.language)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(serviceName, label, 0, time.Since(start))
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return apperrors.Wrap(err, apperrors.CodeServiceTimeout, "TMDB request timed out").WithContext("service", serviceName)
		}
		return apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "TMDB request failed").WithContext("service", serviceName)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(serviceName, label, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		code := apperrors.StatusFromHTTP(resp.StatusCode)
		var cause error = fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusTooManyRequests {
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				cause = fmt.Errorf("%w: %w", retryAfter(time.Duration(secs)*time.Second), cause)
			}
		}
		return apperrors.Wrap(cause, code, "TMDB API error").
			WithContext("service", serviceName).
			WithContext("status", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return apperrors.Wrap(err, apperrors.CodeMalformedData, "failed to decode TMDB response")
	}

	return nil
}
