package searchconsole

import (
	"context"
	"fmt"

	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
)

const (
	// DefaultPageCap is the most rows the provider returns per request.
	DefaultPageCap = 25000
	// DefaultCursorCeiling bounds how far pagination may advance.
	DefaultCursorCeiling = 2500000
)

// PageSource serves one page of a report. *Client implements it.
type PageSource interface {
	QueryPage(ctx context.Context, siteURL string, req QueryRequest) ([]Row, error)
}

// Fetcher assembles complete reports from a capped, offset-paged source.
type Fetcher struct {
	source        PageSource
	PageCap       int
	CursorCeiling int
}

// NewFetcher creates a Fetcher with the provider's limits. Zero values fall
// back to the defaults.
func NewFetcher(source PageSource, pageCap, cursorCeiling int) *Fetcher {
	if pageCap <= 0 {
		pageCap = DefaultPageCap
	}
	if cursorCeiling <= 0 {
		cursorCeiling = DefaultCursorCeiling
	}
	return &Fetcher{source: source, PageCap: pageCap, CursorCeiling: cursorCeiling}
}

// Fetch pages through q until the source signals end of data with a short or
// empty page, the row limit is met, or the cursor reaches the ceiling.
// Provider order is preserved. On a page failure the rows collected so far
// are returned together with a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, q ReportQuery) (Result, error) {
	var res Result
	if err := q.Validate(); err != nil {
		return res, &FetchError{Site: q.SiteURL, Stage: apierr.StageFetch, Err: fmt.Errorf("invalid query: %w", err)}
	}

	res.Rows = make([]Row, 0)
	cursor := 0

	for {
		if cursor >= f.CursorCeiling {
			res.Truncated = true
			logger.Warn("search console pagination hit cursor ceiling",
				"site", q.SiteURL, "cursor", cursor, "rows", len(res.Rows))
			break
		}

		pageSize := f.PageCap
		if q.RowLimit > 0 {
			if remaining := q.RowLimit - len(res.Rows); remaining < pageSize {
				pageSize = remaining
			}
		}

		page, err := f.source.QueryPage(ctx, q.SiteURL, QueryRequest{
			StartDate:  q.StartDate,
			EndDate:    q.EndDate,
			Dimensions: q.Dimensions,
			RowLimit:   pageSize,
			StartRow:   cursor,
		})
		res.Pages++
		if err != nil {
			logger.Warn("search console page failed",
				"site", q.SiteURL, "cursor", cursor, "rows", len(res.Rows), "error", err.Error())
			return res, &FetchError{Site: q.SiteURL, Stage: apierr.StageOf(err), Cursor: cursor, Err: err}
		}

		if len(page) == 0 {
			break
		}
		if len(page) > pageSize {
			page = page[:pageSize]
		}
		res.Rows = append(res.Rows, page...)

		if len(page) < pageSize {
			break
		}
		if q.RowLimit > 0 && len(res.Rows) >= q.RowLimit {
			break
		}
		cursor += len(page)
	}

	logger.Debug("search console report assembled",
		"site", q.SiteURL, "rows", len(res.Rows), "pages", res.Pages, "truncated", res.Truncated)
	return res, nil
}
