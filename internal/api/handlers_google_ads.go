package api

import (
	"net/http"

	"github.com/ignite/marketing-dashboard/internal/campaign"
	"github.com/ignite/marketing-dashboard/internal/googleads"
	"github.com/ignite/marketing-dashboard/internal/pkg/daterange"
	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
	"github.com/ignite/marketing-dashboard/internal/session"
)

type campaignsResponse struct {
	CustomerID string             `json:"customer_id"`
	StartDate  string             `json:"start_date"`
	EndDate    string             `json:"end_date"`
	Campaigns  []campaign.Summary `json:"campaigns"`
	Totals     campaign.Totals    `json:"totals"`
}

// adsRange uses period or start/end when given, else the configured lookback.
func (h *Handlers) adsRange(r *http.Request) (daterange.Range, error) {
	q := r.URL.Query()
	if q.Get("period") == "" && q.Get("start") == "" && q.Get("end") == "" {
		return daterange.LastNDays(h.now(), h.cfg.GoogleAds.LookbackDays), nil
	}
	rng, _, err := h.requestRange(r, daterange.Last30Days)
	return rng, err
}

// customerID resolves the account to query: the request, then the last
// selection, then the configured default.
func (h *Handlers) customerID(r *http.Request, s *session.Session) (string, error) {
	id := r.URL.Query().Get("customer_id")
	if id == "" {
		id = s.Selection().CustomerID
	}
	if id == "" {
		id = h.cfg.GoogleAds.CustomerID
	}
	return googleads.NormalizeCustomerID(id)
}

// GetGoogleAdsAccounts lists the client accounts under the manager account.
//
//	GET /api/google-ads/accounts
func (h *Handlers) GetGoogleAdsAccounts(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	managerID := h.cfg.GoogleAds.LoginCustomerID
	if managerID == "" {
		managerID = h.cfg.GoogleAds.CustomerID
	}
	if managerID == "" {
		respondIntegrationError(w, string(session.GoogleAds), errNotConfigured)
		return
	}

	client, err := h.googleAdsClient(r.Context(), s)
	if err != nil {
		respondIntegrationError(w, string(session.GoogleAds), err)
		return
	}
	accounts, err := client.ListCustomerAccounts(r.Context(), managerID)
	if err != nil {
		respondIntegrationError(w, string(session.GoogleAds), err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"selected": s.Selection().CustomerID,
	})
}

// GetGoogleAdsCampaigns returns per-campaign totals for the window.
//
//	GET /api/google-ads/campaigns?customer_id=&period=|start=&end=
func (h *Handlers) GetGoogleAdsCampaigns(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	customerID, err := h.customerID(r, s)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if customerID == "" {
		respondError(w, http.StatusBadRequest, "customer_id is required")
		return
	}
	rng, err := h.adsRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.googleAdsClient(r.Context(), s)
	if err != nil {
		respondIntegrationError(w, string(session.GoogleAds), err)
		return
	}
	rows, err := client.CampaignDays(r.Context(), customerID, rng)
	if err != nil {
		respondIntegrationError(w, string(session.GoogleAds), err)
		return
	}

	summaries := campaign.Aggregate(rows)
	totals := campaign.Total(summaries)

	s.UpdateSelection(func(sel *session.Selection) { sel.CustomerID = customerID })
	s.Cache.SetCampaigns(&session.CampaignSnapshot{
		CustomerID: customerID,
		StartDate:  rng.StartDate(),
		EndDate:    rng.EndDate(),
		Summaries:  summaries,
		Totals:     totals,
		FetchedAt:  h.now(),
	})

	logger.Info("google ads campaigns served",
		"customer_id", customerID,
		"range", rng.String(),
		"rows", len(rows),
		"campaigns", len(summaries),
	)

	respondJSON(w, http.StatusOK, campaignsResponse{
		CustomerID: customerID,
		StartDate:  rng.StartDate(),
		EndDate:    rng.EndDate(),
		Campaigns:  summaries,
		Totals:     totals,
	})
}

// GetGoogleAdsConversions returns search-term conversion details for the window.
//
//	GET /api/google-ads/conversions?customer_id=&period=|start=&end=
func (h *Handlers) GetGoogleAdsConversions(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	customerID, err := h.customerID(r, s)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if customerID == "" {
		respondError(w, http.StatusBadRequest, "customer_id is required")
		return
	}
	rng, err := h.adsRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.googleAdsClient(r.Context(), s)
	if err != nil {
		respondIntegrationError(w, string(session.GoogleAds), err)
		return
	}
	details, err := client.ConversionDetails(r.Context(), customerID, rng)
	if err != nil {
		respondIntegrationError(w, string(session.GoogleAds), err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"customer_id": customerID,
		"start_date":  rng.StartDate(),
		"end_date":    rng.EndDate(),
		"conversions": details,
	})
}
