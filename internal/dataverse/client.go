package dataverse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const apiVersion = "v9.2"

// maxRetries bounds 429 retry attempts per page.
const maxRetries = 3

// TokenProvider supplies the bearer token for each request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// HTTPClient is the production Client implementation over the Dataverse
// Web API. It follows @odata.nextLink pagination until the result set
// is exhausted and honors Retry-After on HTTP 429.
type HTTPClient struct {
	baseURL string
	tokens  TokenProvider
	http    *http.Client
	logger  *zap.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewHTTPClient creates a client for the given environment URL, e.g.
// "https://org.crm.dynamics.com".
func NewHTTPClient(environmentURL string, tokens TokenProvider, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(environmentURL, "/") + "/api/data/" + apiVersion,
		tokens:  tokens,
		http:    &http.Client{Timeout: 2 * time.Minute},
		logger:  logger,
		sleep:   time.Sleep,
	}
}

type odataPage struct {
	Value    []Record `json:"value"`
	Count    *int     `json:"@odata.count"`
	NextLink string   `json:"@odata.nextLink"`
}

// Query executes one OData query, concatenating all pages.
func (c *HTTPClient) Query(ctx context.Context, entitySet string, opts QueryOptions) (*QueryResult, error) {
	next := c.baseURL + "/" + entitySet
	if qs := opts.Encode(); qs != "" {
		next += "?" + qs
	}

	result := &QueryResult{Count: -1}
	pages := 0
	for next != "" {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", entitySet, err)
		}
		result.Value = append(result.Value, page.Value...)
		if page.Count != nil {
			result.Count = *page.Count
		}
		next = page.NextLink
		pages++
	}

	c.logger.Debug("query complete",
		zap.String("entitySet", entitySet),
		zap.Int("records", len(result.Value)),
		zap.Int("pages", pages))
	return result, nil
}

func (c *HTTPClient) fetchPage(ctx context.Context, url string) (*odataPage, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("OData-MaxVersion", "4.0")
		req.Header.Set("OData-Version", "4.0")
		// Prefer annotations so formatted values and lookup logical
		// names come back alongside raw values.
		req.Header.Set("Prefer", `odata.include-annotations="*"`)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries {
			delay := retryAfter(resp.Header)
			c.logger.Warn("throttled, retrying",
				zap.Duration("retryAfter", delay),
				zap.Int("attempt", attempt+1))
			c.sleep(delay)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
		}

		var page odataPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("malformed response: %w", err)
		}
		return &page, nil
	}
}

// retryAfter parses the Retry-After header, defaulting to 5s.
func retryAfter(h http.Header) time.Duration {
	if s := h.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 5 * time.Second
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
