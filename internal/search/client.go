// Package search fetches Google AI overviews through SerpAPI.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iago/geo-visibility-back/internal/cache"
	"github.com/iago/geo-visibility-back/internal/overview"
	"github.com/iago/geo-visibility-back/internal/retry"
)

var ErrUnavailable = errors.New("search api key not configured")

// HTTPError is a non-2xx answer from the search API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("serpapi status=%d message=%s", e.StatusCode, e.Message)
}

type Config struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Location     string
	GoogleDomain string
	HL           string
	GL           string
	Retry        retry.Policy
	Cache        *cache.TTLCache
	Logger       *log.Logger
}

type Client struct {
	apiKey       string
	baseURL      string
	timeout      time.Duration
	httpClient   *http.Client
	location     string
	googleDomain string
	hl           string
	gl           string
	retry        retry.Policy
	cache        *cache.TTLCache
	logger       *log.Logger
}

type searchResponse struct {
	AIOverview *overview.Overview `json:"ai_overview"`
	Error      string             `json:"error"`
}

func NewClient(config Config) *Client {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = "https://serpapi.com"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if config.Location == "" {
		config.Location = "Taiwan"
	}
	if config.GoogleDomain == "" {
		config.GoogleDomain = "google.com.tw"
	}
	if config.HL == "" {
		config.HL = "zh-tw"
	}
	if config.GL == "" {
		config.GL = "tw"
	}
	if config.Retry.BaseDelay <= 0 {
		config.Retry.BaseDelay = 2 * time.Second
	}

	return &Client{
		apiKey:       strings.TrimSpace(config.APIKey),
		baseURL:      strings.TrimSuffix(config.BaseURL, "/"),
		timeout:      config.Timeout,
		httpClient:   config.HTTPClient,
		location:     config.Location,
		googleDomain: config.GoogleDomain,
		hl:           config.HL,
		gl:           config.GL,
		retry:        config.Retry,
		cache:        config.Cache,
		logger:       config.Logger,
	}
}

func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Overview returns the AI overview for query, following one page token when
// the first response defers the overview. A nil overview with a nil error
// means the search had none.
func (c *Client) Overview(ctx context.Context, query string) (*overview.Overview, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}

	key := cache.Key("serpapi", query, c.location, c.hl, c.gl)
	if c.cache != nil {
		if entry, ok := c.cache.Get(key); ok {
			var cached searchResponse
			if err := json.Unmarshal(entry.Value, &cached); err == nil {
				return cached.AIOverview, nil
			}
		}
	}

	body, first, err := c.fetch(ctx, url.Values{
		"q":             {query},
		"location":      {c.location},
		"google_domain": {c.googleDomain},
		"hl":            {c.hl},
		"gl":            {c.gl},
	}, "serpapi error")
	if err != nil {
		return nil, err
	}

	if first.AIOverview != nil && first.AIOverview.PageToken != "" {
		body, first, err = c.fetch(ctx, url.Values{
			"engine":     {"google_ai_overview"},
			"page_token": {first.AIOverview.PageToken},
		}, "serpapi pagination error")
		if err != nil {
			return nil, err
		}
	}

	if c.cache != nil {
		c.cache.Set(key, cache.Entry{Value: body, Source: "serpapi"})
	}
	c.logf("search overview fetched query=%q has_overview=%t", query, first.AIOverview != nil)
	return first.AIOverview, nil
}

func (c *Client) fetch(ctx context.Context, params url.Values, errPrefix string) ([]byte, searchResponse, error) {
	type result struct {
		body   []byte
		parsed searchResponse
	}

	policy := c.retry
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, delay time.Duration, err error) {
			c.logf("search retry attempt=%d delay=%s err=%v", attempt+1, delay, err)
		}
	}

	out, err := retry.Do(ctx, policy, func(ctx context.Context) (result, error) {
		body, err := c.call(ctx, params)
		if err != nil {
			return result{}, err
		}
		var parsed searchResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return result{}, fmt.Errorf("decode serpapi response: %w", err)
		}
		if parsed.Error != "" {
			return result{}, fmt.Errorf("%s: %s", errPrefix, parsed.Error)
		}
		return result{body: body, parsed: parsed}, nil
	})
	if err != nil {
		return nil, searchResponse{}, err
	}
	return out.body, out.parsed, nil
}

func (c *Client) call(ctx context.Context, params url.Values) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("api_key", c.apiKey)

	request, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, c.baseURL+"/search.json?"+query.Encode(), nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create serpapi request: %w", err))
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("serpapi transport error: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read serpapi body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		message := strings.TrimSpace(string(body))
		if len(message) > 500 {
			message = message[:500]
		}
		httpErr := &HTTPError{StatusCode: response.StatusCode, Message: message}
		if isRetryableStatus(response.StatusCode) {
			return nil, httpErr
		}
		return nil, retry.Permanent(httpErr)
	}
	return body, nil
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
