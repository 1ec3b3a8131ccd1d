package api

import (
	"net/http"
	"time"

	"github.com/ignite/marketing-dashboard/internal/searchconsole"
	"github.com/ignite/marketing-dashboard/internal/session"
)

// DashboardResponse holds the summary tiles built from the session's last reports.
type DashboardResponse struct {
	GoogleAdsSpend float64               `json:"google_ads_spend"`
	MetaSpend      float64               `json:"meta_spend"`
	TotalSpend     float64               `json:"total_spend"`
	SearchConsole  *searchConsoleTile    `json:"search_console,omitempty"`
	Connected      []session.Integration `json:"connected"`
	MetaConnected  bool                  `json:"meta_connected"`
	LastUpdated    map[string]time.Time  `json:"last_updated"`
}

type searchConsoleTile struct {
	SiteURL   string                `json:"site_url"`
	StartDate string                `json:"start_date"`
	EndDate   string                `json:"end_date"`
	Truncated bool                  `json:"truncated"`
	Summary   searchconsole.Summary `json:"summary"`
}

// GetDashboard returns the summary tiles. Nothing is fetched here; the tiles
// show whatever the session last loaded.
//
//	GET /api/dashboard
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	resp := DashboardResponse{
		GoogleAdsSpend: s.Cache.GoogleAdsSpend(),
		MetaSpend:      s.Cache.MetaSpend(),
		Connected:      s.Credentials.Connected(),
		MetaConnected:  h.metaToken(s) != "",
		LastUpdated:    make(map[string]time.Time),
	}
	resp.TotalSpend = resp.GoogleAdsSpend + resp.MetaSpend

	if sa := s.Cache.SearchAnalytics(); sa != nil {
		resp.SearchConsole = &searchConsoleTile{
			SiteURL:   sa.SiteURL,
			StartDate: sa.StartDate,
			EndDate:   sa.EndDate,
			Truncated: sa.Truncated,
			Summary:   searchconsole.Summarize(sa.Rows),
		}
		resp.LastUpdated[string(session.SearchConsole)] = sa.FetchedAt
	}
	if c := s.Cache.Campaigns(); c != nil {
		resp.LastUpdated[string(session.GoogleAds)] = c.FetchedAt
	}
	if m := s.Cache.Meta(); m != nil {
		resp.LastUpdated[metaIntegration] = m.FetchedAt
	}

	respondJSON(w, http.StatusOK, resp)
}
