package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"

	// queryPageSize is the largest page Notion serves; only one page is read.
	queryPageSize = 100
)

// Store is the subset of the Notion API the hub service depends on.
type Store interface {
	Create(ctx context.Context, databaseID string, props Properties) (*Page, error)
	Update(ctx context.Context, pageID string, props Properties) (*Page, error)
	Query(ctx context.Context, databaseID string, filter json.Marshaler) ([]Page, error)
}

// Client implements Store against the Notion REST API.
type Client struct {
	baseURL string
	apiKey  string
	version string
	client  *http.Client
}

// compile-time check
var _ Store = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API root, e.g. for an httptest server.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithVersion sets the Notion-Version header.
func WithVersion(v string) ClientOption {
	return func(c *Client) { c.version = v }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a Client authenticating with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		version: DefaultVersion,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- HTTP helpers ---

func (c *Client) doJSON(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", c.version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.client.Do(req)
}

func decodeResponse[T any](resp *http.Response) (T, error) {
	defer resp.Body.Close()
	var zero T

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.Status = resp.StatusCode
		return zero, apiErr
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}

// --- Pages ---

type parent struct {
	DatabaseID string `json:"database_id"`
}

type createPageRequest struct {
	Parent     parent     `json:"parent"`
	Properties Properties `json:"properties"`
}

type updatePageRequest struct {
	Properties Properties `json:"properties"`
}

// Create adds a page to the database.
func (c *Client) Create(ctx context.Context, databaseID string, props Properties) (*Page, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/pages", createPageRequest{
		Parent:     parent{DatabaseID: databaseID},
		Properties: props,
	})
	if err != nil {
		return nil, err
	}
	page, err := decodeResponse[Page](resp)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Update patches the given properties of a page.
func (c *Client) Update(ctx context.Context, pageID string, props Properties) (*Page, error) {
	resp, err := c.doJSON(ctx, http.MethodPatch, "/v1/pages/"+url.PathEscape(pageID), updatePageRequest{
		Properties: props,
	})
	if err != nil {
		return nil, err
	}
	page, err := decodeResponse[Page](resp)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// --- Databases ---

type queryRequest struct {
	Filter   json.Marshaler `json:"filter,omitempty"`
	PageSize int            `json:"page_size,omitempty"`
}

// Query returns the first page of rows matching filter. A nil filter
// matches every row.
func (c *Client) Query(ctx context.Context, databaseID string, filter json.Marshaler) ([]Page, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/databases/"+url.PathEscape(databaseID)+"/query", queryRequest{
		Filter:   filter,
		PageSize: queryPageSize,
	})
	if err != nil {
		return nil, err
	}
	qr, err := decodeResponse[QueryResponse](resp)
	if err != nil {
		return nil, err
	}
	if qr.Results == nil {
		return []Page{}, nil
	}
	return qr.Results, nil
}
