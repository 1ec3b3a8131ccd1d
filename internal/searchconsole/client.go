// Package searchconsole reads search analytics from the Search Console API
// and assembles complete result sets across its capped pages.
package searchconsole

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/ignite/marketing-dashboard/internal/config"
	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
	"github.com/ignite/marketing-dashboard/internal/pkg/httpretry"
)

const provider = "search_console"

// Client is a Search Console API client bound to one operator credential.
type Client struct {
	baseURL    string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a client. httpClient must already authenticate requests.
func NewClient(cfg config.SearchConsoleConfig, httpClient httpretry.HTTPDoer) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apierr.TransportError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apierr.TransportError{Provider: provider, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &apierr.TransportError{Provider: provider, StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// ListSites returns the site URLs the credential can read, sorted.
func (c *Client) ListSites(ctx context.Context) ([]string, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/webmasters/v3/sites", nil)
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}

	var resp SitesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &apierr.DataError{Provider: provider, Field: "siteEntry", Err: err}
	}

	sites := make([]string, 0, len(resp.SiteEntry))
	for _, e := range resp.SiteEntry {
		if e.SiteURL != "" {
			sites = append(sites, e.SiteURL)
		}
	}
	sort.Strings(sites)
	return sites, nil
}

// QueryPage issues one searchAnalytics.query request.
func (c *Client) QueryPage(ctx context.Context, siteURL string, req QueryRequest) ([]Row, error) {
	path := "/webmasters/v3/sites/" + url.PathEscape(siteURL) + "/searchAnalytics/query"

	data, err := c.doRequest(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, err
	}

	var resp QueryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &apierr.DataError{Provider: provider, Field: "rows", Err: err}
	}
	return resp.Rows, nil
}
