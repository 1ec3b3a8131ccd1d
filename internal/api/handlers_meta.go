package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ignite/marketing-dashboard/internal/fanout"
	"github.com/ignite/marketing-dashboard/internal/metaads"
	"github.com/ignite/marketing-dashboard/internal/pkg/httputil"
	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
	"github.com/ignite/marketing-dashboard/internal/session"
)

type metaTokenRequest struct {
	AccessToken string `json:"access_token"`
}

type metaInsightsResponse struct {
	StartDate  string                   `json:"start_date"`
	EndDate    string                   `json:"end_date"`
	Rows       []metaads.Row            `json:"rows"`
	Accounts   []metaads.AccountSummary `json:"accounts"`
	TotalSpend float64                  `json:"total_spend"`
	NoData     bool                     `json:"no_data"`
	Errors     []fanout.AccountError    `json:"errors"`
}

// metaToken prefers the operator's token over the configured one.
func (h *Handlers) metaToken(s *session.Session) string {
	if t := s.MetaAccessToken(); t != "" {
		return t
	}
	return h.cfg.Meta.AccessToken
}

// SetMetaToken stores the operator's Meta access token in the session.
//
//	PUT /api/meta-ads/token
func (h *Handlers) SetMetaToken(w http.ResponseWriter, r *http.Request) {
	var req metaTokenRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	token := strings.TrimSpace(req.AccessToken)
	if token == "" {
		respondError(w, http.StatusBadRequest, "access_token is required")
		return
	}

	s := session.FromContext(r.Context())
	s.SetMetaAccessToken(token)
	s.Cache.SetMeta(nil)
	httputil.NoContent(w)
}

// ClearMetaToken removes the operator's Meta access token.
//
//	DELETE /api/meta-ads/token
func (h *Handlers) ClearMetaToken(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.SetMetaAccessToken("")
	s.Cache.SetMeta(nil)
	httputil.NoContent(w)
}

// GetMetaInsights fetches every configured ad account independently.
// Failed accounts are listed in errors; the request only fails when every
// account failed.
//
//	GET /api/meta-ads/insights?days=
func (h *Handlers) GetMetaInsights(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	token := h.metaToken(s)
	if token == "" {
		httputil.ErrorWithCode(w, http.StatusBadRequest, "token_required", "a Meta access token is required",
			&httputil.ErrorDetails{Integration: metaIntegration, Stage: "auth"})
		return
	}
	if len(h.meta.Accounts()) == 0 {
		respondIntegrationError(w, metaIntegration, errNotConfigured)
		return
	}

	report, err := h.meta.FetchAll(r.Context(), token, days)
	if err != nil {
		respondIntegrationError(w, metaIntegration, err)
		return
	}

	if report.Failed() {
		logger.Warn("meta insights failed for every account", "accounts", len(report.Errors))
		respondJSON(w, http.StatusBadGateway, httputil.ErrorResponse{
			Error:   "every Meta ad account failed",
			Code:    "all_accounts_failed",
			Details: report.Errors,
		})
		return
	}

	s.Cache.SetMeta(&session.MetaSnapshot{Report: report, FetchedAt: h.now()})

	errs := report.Errors
	if errs == nil {
		errs = []fanout.AccountError{}
	}
	respondJSON(w, http.StatusOK, metaInsightsResponse{
		StartDate:  report.Range.StartDate(),
		EndDate:    report.Range.EndDate(),
		Rows:       report.Rows,
		Accounts:   report.Accounts,
		TotalSpend: metaads.TotalSpend(report.Rows),
		NoData:     len(report.Rows) == 0,
		Errors:     errs,
	})
}
