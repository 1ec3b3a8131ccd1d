package api

import (
	"net/http"
	"strconv"

	"github.com/ignite/marketing-dashboard/internal/pkg/daterange"
	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
	"github.com/ignite/marketing-dashboard/internal/searchconsole"
	"github.com/ignite/marketing-dashboard/internal/session"
)

// seoRow is one query × page line of the analytics table. CTR is a percentage.
type seoRow struct {
	Query       string  `json:"query"`
	Page        string  `json:"page"`
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

type searchAnalyticsResponse struct {
	SiteURL   string                `json:"site_url"`
	StartDate string                `json:"start_date"`
	EndDate   string                `json:"end_date"`
	Period    daterange.Period      `json:"period"`
	Summary   searchconsole.Summary `json:"summary"`
	Rows      []seoRow              `json:"rows"`
	Pages     int                   `json:"pages"`
	Truncated bool                  `json:"truncated"`
	Partial   bool                  `json:"partial"`
	Errors    []partialError        `json:"errors"`
}

// GetSearchConsoleSites lists the properties the credential can read.
//
//	GET /api/seo/sites
func (h *Handlers) GetSearchConsoleSites(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	client, err := h.searchConsoleClient(r.Context(), s)
	if err != nil {
		respondIntegrationError(w, string(session.SearchConsole), err)
		return
	}
	sites, err := client.ListSites(r.Context())
	if err != nil {
		respondIntegrationError(w, string(session.SearchConsole), err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sites":    sites,
		"selected": s.Selection().SiteURL,
	})
}

// GetSearchAnalytics pages through the query × page report for a site.
// Rows fetched before a mid-pagination failure are returned with status 200
// and the failure listed in errors.
//
//	GET /api/seo/analytics?site=&period=|start=&end=&q=&limit=
func (h *Handlers) GetSearchAnalytics(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	q := r.URL.Query()
	sel := s.Selection()

	site := q.Get("site")
	if site == "" {
		site = sel.SiteURL
	}
	if site == "" {
		respondError(w, http.StatusBadRequest, "site is required")
		return
	}

	fallback := sel.Period
	if fallback == "" || fallback == daterange.Custom {
		fallback = daterange.Last30Days
	}
	rng, period, err := h.requestRange(r, fallback)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}

	client, err := h.searchConsoleClient(r.Context(), s)
	if err != nil {
		respondIntegrationError(w, string(session.SearchConsole), err)
		return
	}

	fetcher := searchconsole.NewFetcher(client, h.cfg.SearchConsole.PageCap, h.cfg.SearchConsole.CursorCeiling)
	res, fetchErr := fetcher.Fetch(r.Context(), searchconsole.ReportQuery{
		SiteURL:    site,
		StartDate:  rng.StartDate(),
		EndDate:    rng.EndDate(),
		Dimensions: searchconsole.DefaultDimensions,
		RowLimit:   limit,
	})
	if fetchErr != nil && len(res.Rows) == 0 {
		respondIntegrationError(w, string(session.SearchConsole), fetchErr)
		return
	}

	s.UpdateSelection(func(sel *session.Selection) {
		sel.SiteURL = site
		sel.Period = period
	})
	s.Cache.SetSearchAnalytics(&session.SearchAnalyticsSnapshot{
		SiteURL:   site,
		StartDate: rng.StartDate(),
		EndDate:   rng.EndDate(),
		Rows:      res.Rows,
		Truncated: res.Truncated,
		FetchedAt: h.now(),
	})

	view := searchconsole.SortByClicks(searchconsole.Filter(res.Rows, q.Get("q")))
	rows := make([]seoRow, len(view))
	for i, row := range view {
		rows[i] = seoRow{
			Query:       row.Query(),
			Page:        row.Page(),
			Clicks:      row.Clicks,
			Impressions: row.Impressions,
			CTR:         row.CTR * 100,
			Position:    row.Position,
		}
	}

	logger.Info("search analytics served",
		"site", site,
		"range", rng.String(),
		"rows", len(res.Rows),
		"pages", res.Pages,
		"truncated", res.Truncated,
	)

	respondJSON(w, http.StatusOK, searchAnalyticsResponse{
		SiteURL:   site,
		StartDate: rng.StartDate(),
		EndDate:   rng.EndDate(),
		Period:    period,
		Summary:   searchconsole.Summarize(view),
		Rows:      rows,
		Pages:     res.Pages,
		Truncated: res.Truncated,
		Partial:   fetchErr != nil,
		Errors:    partialErrors(string(session.SearchConsole), fetchErr),
	})
}
