// Package remote implements the scene catalog as a client of another scene
// browser's HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

const userAgent = "scene-browser/1.0"

// Client talks to the /api/products and /api/scenes-search endpoints of a
// remote catalog. It implements catalog.Catalog.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new remote catalog client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the client
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// Name implements catalog.Catalog.
func (c *Client) Name() string {
	return "remote"
}

type productsResponse struct {
	Products []catalog.Product `json:"products"`
}

// ListProducts implements catalog.Catalog.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var resp productsResponse
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Products == nil {
		resp.Products = []catalog.Product{}
	}
	return resp.Products, nil
}

// Search implements catalog.Catalog. The query is normalized before it is
// sent, so the remote never sees out-of-range paging.
func (c *Client) Search(ctx context.Context, q catalog.Query) (*catalog.SearchResult, error) {
	q = q.Normalize()

	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	var result catalog.SearchResult
	if err := c.do(ctx, http.MethodPost, "/api/scenes-search", body, &result); err != nil {
		return nil, err
	}
	if result.Items == nil {
		result.Items = []catalog.Scene{}
	}

	c.logger.DebugContext(ctx, "remote search completed",
		slog.Int("total", result.Total),
		slog.Int("item_count", len(result.Items)),
	)

	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	url := c.baseURL + path

	c.logger.DebugContext(ctx, "calling remote catalog",
		slog.String("method", method),
		slog.String("url", url),
	)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "remote catalog request failed",
			slog.String("error", err.Error()),
			slog.String("url", url),
		)
		return fmt.Errorf("remote catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.ErrorContext(ctx, "remote catalog returned error status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(respBody)),
		)
		return fmt.Errorf("remote catalog returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode remote catalog response: %w", err)
	}

	return nil
}
