// pkg/registry/client.go
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// SuccessStatusCode is the only status treated as a successful page
const SuccessStatusCode = http.StatusOK

// Query holds the registry search parameters that stay fixed across pages
type Query struct {
	Condition string // query.cond
	Location  string // query.locn
	Fields    string // fields
	PageSize  int    // pageSize
}

// Values encodes the query, adding pageToken when set
func (q Query) Values(pageToken string) url.Values {
	v := url.Values{}
	if q.Condition != "" {
		v.Set("query.cond", q.Condition)
	}
	if q.Location != "" {
		v.Set("query.locn", q.Location)
	}
	if q.Fields != "" {
		v.Set("fields", q.Fields)
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if pageToken != "" {
		v.Set("pageToken", pageToken)
	}
	return v
}

// Page is one decoded registry response
type Page struct {
	Studies       []Study `json:"studies"`
	NextPageToken string  `json:"nextPageToken"`
}

// StatusError reports a response whose status is not SuccessStatusCode
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry returned status %d", e.StatusCode)
}

// Client issues registry study queries
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a registry client. timeout bounds every page request.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("registry-client"),
	}
}

// WithHTTPClient replaces the transport client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// FetchPage requests a single page of studies
func (c *Client) FetchPage(ctx context.Context, q Query, pageToken string) (*Page, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL %q: %w", c.baseURL, err)
	}
	u.RawQuery = q.Values(pageToken).Encode()

	c.logger.Info("Fetching data", zap.String("url", u.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != SuccessStatusCode {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}

	return &page, nil
}

// StatusCode extracts the HTTP status from a page error, or 0 for transport errors
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
