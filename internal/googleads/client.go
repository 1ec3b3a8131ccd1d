// Package googleads reads campaign performance through the Google Ads REST
// search endpoint using GAQL.
package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ignite/marketing-dashboard/internal/config"
	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
	"github.com/ignite/marketing-dashboard/internal/pkg/httpretry"
	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
)

const provider = "google_ads"

// Client is a Google Ads API client bound to one operator credential.
type Client struct {
	baseURL         string
	version         string
	developerToken  string
	loginCustomerID string
	httpClient      httpretry.HTTPDoer
}

// NewClient creates a client. httpClient must already authenticate requests.
func NewClient(cfg config.GoogleAdsConfig, httpClient httpretry.HTTPDoer) *Client {
	login, _ := NormalizeCustomerID(cfg.LoginCustomerID)
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		version:         cfg.APIVersion,
		developerToken:  cfg.DeveloperToken,
		loginCustomerID: login,
		httpClient:      httpClient,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

func (c *Client) doRequest(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("developer-token", c.developerToken)
	if c.loginCustomerID != "" {
		req.Header.Set("login-customer-id", c.loginCustomerID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apierr.TransportError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apierr.TransportError{Provider: provider, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &apierr.TransportError{Provider: provider, StatusCode: resp.StatusCode, Body: errorMessage(body)}
	}
	return body, nil
}

// Search runs a GAQL query for customerID and calls fn for every result row,
// following nextPageToken until the last page.
func (c *Client) Search(ctx context.Context, customerID, query string, fn func(json.RawMessage) error) error {
	cid, err := NormalizeCustomerID(customerID)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/%s/customers/%s/googleAds:search", c.version, cid)

	req := SearchRequest{Query: query}
	pages := 0
	for {
		body, err := c.doRequest(ctx, path, req)
		if err != nil {
			return err
		}
		pages++

		var resp SearchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return &apierr.DataError{Provider: provider, Field: "results", Err: err}
		}
		for _, raw := range resp.Results {
			if err := fn(raw); err != nil {
				return err
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		req.PageToken = resp.NextPageToken
	}

	logger.Debug("google ads search complete", "customer_id", cid, "pages", pages)
	return nil
}
