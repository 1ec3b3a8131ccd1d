package searchconsole

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
	"github.com/ignite/marketing-dashboard/internal/pkg/daterange"
)

// Dimension keys accepted by the searchAnalytics endpoint.
const (
	DimensionQuery   = "query"
	DimensionPage    = "page"
	DimensionDate    = "date"
	DimensionCountry = "country"
	DimensionDevice  = "device"
)

// DefaultDimensions is the query × landing-page breakdown the dashboard shows.
var DefaultDimensions = []string{DimensionQuery, DimensionPage}

// ReportQuery is one logical report. RowLimit 0 means unbounded.
type ReportQuery struct {
	SiteURL    string
	StartDate  string
	EndDate    string
	Dimensions []string
	RowLimit   int
}

// Validate checks the site, date window and dimension list.
func (q ReportQuery) Validate() error {
	if strings.TrimSpace(q.SiteURL) == "" {
		return errors.New("site url is required")
	}
	if _, err := daterange.Parse(q.StartDate, q.EndDate); err != nil {
		return err
	}
	if len(q.Dimensions) == 0 {
		return errors.New("at least one dimension is required")
	}
	if q.RowLimit < 0 {
		return fmt.Errorf("row limit must not be negative, got %d", q.RowLimit)
	}
	return nil
}

// QueryRequest is the wire body of a single page request.
type QueryRequest struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	RowLimit   int      `json:"rowLimit"`
	StartRow   int      `json:"startRow"`
}

// QueryResponse is the wire body of a page response.
type QueryResponse struct {
	Rows                    []Row  `json:"rows"`
	ResponseAggregationType string `json:"responseAggregationType,omitempty"`
}

// Row is one measured tuple keyed by the query's dimensions in order.
type Row struct {
	Keys        []string `json:"keys"`
	Clicks      float64  `json:"clicks"`
	Impressions float64  `json:"impressions"`
	CTR         float64  `json:"ctr"`
	Position    float64  `json:"position"`
}

// Query is the primary dimension key.
func (r Row) Query() string {
	if len(r.Keys) > 0 {
		return r.Keys[0]
	}
	return ""
}

// Page is the secondary dimension key.
func (r Row) Page() string {
	if len(r.Keys) > 1 {
		return r.Keys[1]
	}
	return ""
}

// SitesResponse is the body of the sites list endpoint.
type SitesResponse struct {
	SiteEntry []SiteEntry `json:"siteEntry"`
}

// SiteEntry is a property the credential can read.
type SiteEntry struct {
	SiteURL         string `json:"siteUrl"`
	PermissionLevel string `json:"permissionLevel"`
}

// Result is the assembled report.
type Result struct {
	Rows  []Row
	Pages int
	// Truncated is set when the cursor ceiling stopped pagination with more data possibly remaining.
	Truncated bool
}

// FetchError reports where pagination stopped. Rows collected before the
// failure are still returned alongside it.
type FetchError struct {
	Site   string
	Stage  apierr.Stage
	Cursor int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("search console %s: %s failed at row %d: %v", e.Site, e.Stage, e.Cursor, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
