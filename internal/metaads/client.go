// Package metaads reads account-level insights from the Meta Marketing API
// for a fixed list of ad accounts.
package metaads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ignite/marketing-dashboard/internal/config"
	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
	"github.com/ignite/marketing-dashboard/internal/pkg/daterange"
	"github.com/ignite/marketing-dashboard/internal/pkg/httpretry"
)

const provider = "meta_ads"

// maxPages bounds paging.next following for a single account.
const maxPages = 100

// ErrNoAccessToken is returned when no access token is available.
var ErrNoAccessToken = errors.New("meta ads: access token required")

// Client is a Meta Graph API client. The access token is passed per call
// because it belongs to the operator's session.
type Client struct {
	baseURL    string
	version    string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new Graph API client.
func NewClient(cfg config.MetaConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		version:    cfg.GraphVersion,
		httpClient: httpretry.NewClient(cfg.Timeout(), httpretry.DefaultPolicy()),
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

func (c *Client) get(ctx context.Context, token, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

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
		te := &apierr.TransportError{Provider: provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		var ge graphErrorBody
		if json.Unmarshal(body, &ge) == nil && ge.Error.Message != "" {
			te.Body = ge.Error.Message
			return nil, &GraphError{Code: ge.Error.Code, Subcode: ge.Error.ErrorSubcode, Type: ge.Error.Type, Transport: te}
		}
		return nil, te
	}
	return body, nil
}

func (c *Client) insightsURL(accountID string, r daterange.Range) string {
	timeRange, _ := json.Marshal(map[string]string{"since": r.StartDate(), "until": r.EndDate()})

	params := url.Values{}
	params.Set("fields", strings.Join(InsightFields, ","))
	params.Set("time_range", string(timeRange))
	params.Set("level", "account")
	params.Set("time_increment", "1")

	return fmt.Sprintf("%s/%s/%s/insights?%s", c.baseURL, c.version, url.PathEscape(GraphAccountID(accountID)), params.Encode())
}

// Insights returns the per-day account insights for r, following paging.next.
func (c *Client) Insights(ctx context.Context, token, accountID string, r daterange.Range) ([]Row, error) {
	if token == "" {
		return nil, ErrNoAccessToken
	}

	rows := make([]Row, 0)
	next := c.insightsURL(accountID, r)
	for page := 0; next != "" && page < maxPages; page++ {
		body, err := c.get(ctx, token, next)
		if err != nil {
			return nil, err
		}

		var resp insightsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &apierr.DataError{Provider: provider, Field: "data", Err: err}
		}
		for _, ri := range resp.Data {
			row, err := ri.toRow(accountID)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		next = resp.Paging.Next
	}
	return rows, nil
}
