package facetdex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	apiPrefix      = "/api/v1"
	defaultTimeout = 30 * time.Second
	// maxErrorBody bounds how much of a failed response is read.
	maxErrorBody = 64 << 10
)

// Client is the facetdex SDK entry point.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	timeout time.Duration
	obs     *observer
}

// New creates a Client for the server at baseURL (scheme and host, optionally
// a path prefix in front of /api/v1).
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if baseURL == "" {
		return nil, errors.New("facetdex: base URL required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("facetdex: parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("facetdex: base URL must be http or https, got %q", baseURL)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		apiKey:  cfg.apiKey,
		http:    hc,
		timeout: cfg.timeout,
		obs:     obs,
	}, nil
}

// Collections returns the collection management service.
func (c *Client) Collections() *CollectionService {
	return &CollectionService{c: c}
}

// Documents returns the document service for a given collection.
func (c *Client) Documents(collection string) *DocumentService {
	return &DocumentService{c: c, collection: collection}
}

// Facets returns the facet reader for a given collection.
func (c *Client) Facets(collection string) *FacetService {
	return &FacetService{c: c, collection: collection}
}

// Search starts a query against a given collection.
func (c *Client) Search(collection string) *SearchBuilder {
	return &SearchBuilder{c: c, collection: collection}
}

// Import returns the bulk import service for a given collection.
func (c *Client) Import(collection string) *ImportService {
	return &ImportService{c: c, collection: collection}
}

// Ping checks that the server answers and its search engine is reachable.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	h, err := c.Health(ctx)
	if err != nil {
		return err
	}
	if h.Status == "error" {
		return fmt.Errorf("ping: %w", ErrUnavailable)
	}
	return nil
}

// collectionPath builds /api/v1/collections/{name}/{rest...} with escaped segments.
func collectionPath(name string, rest ...string) string {
	var b strings.Builder
	b.WriteString(apiPrefix + "/collections/")
	b.WriteString(url.PathEscape(name))
	for _, r := range rest {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(r))
	}
	return b.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(
	ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("facetdex: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// doJSON sends in (if non-nil) as JSON and decodes a 2xx answer into out
// (if non-nil). It returns the status code of a successful call.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) (int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("facetdex: encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, query, body, contentType)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("facetdex: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return resp.StatusCode, decodeError(resp)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("facetdex: decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(b, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "http_" + fmt.Sprint(resp.StatusCode)
		apiErr.Message = strings.TrimSpace(string(b))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
