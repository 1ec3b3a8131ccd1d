package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketing-dashboard/internal/googleads"
	"github.com/ignite/marketing-dashboard/internal/session"
)

func TestGoogleAdsCampaigns(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login()
	e.connect(cookie, session.GoogleAds, e.credential("ads-token"))

	rec := e.do(http.MethodGet, "/api/google-ads/campaigns?start=2026-03-01&end=2026-03-02", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Bearer ads-token", e.authHeader())

	var body campaignsResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "1234567890", body.CustomerID)
	assert.Equal(t, "2026-03-01", body.StartDate)
	require.Len(t, body.Campaigns, 2)

	generic, brand := body.Campaigns[0], body.Campaigns[1]
	assert.Equal(t, "Generic", generic.Name, "highest cost first")
	assert.Equal(t, 12.5, generic.Cost)
	assert.Equal(t, "Brand", brand.Name)
	assert.Equal(t, 2, brand.Days)
	assert.Equal(t, int64(150), brand.Impressions)
	assert.InDelta(t, 6.6666666, brand.CTR, 1e-6)
	assert.InDelta(t, 0.5, brand.AverageCPC, 1e-9)
	assert.InDelta(t, 5.0, brand.CostPerConversion, 1e-9)
	assert.Equal(t, 0.0, generic.CostPerConversion, "no conversions")

	assert.Equal(t, 2, body.Totals.Campaigns)
	assert.Equal(t, int64(1150), body.Totals.Impressions)
	assert.Equal(t, int64(30), body.Totals.Clicks)
	assert.InDelta(t, 17.5, body.Totals.Cost, 1e-9)

	s := e.session(cookie)
	assert.Equal(t, "1234567890", s.Selection().CustomerID)
	assert.InDelta(t, 17.5, s.Cache.GoogleAdsSpend(), 1e-9)
}

func TestGoogleAdsCampaignsValidation(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login()
	e.connect(cookie, session.GoogleAds, e.credential("ads-token"))

	rec := e.do(http.MethodGet, "/api/google-ads/campaigns?customer_id=123", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodGet, "/api/google-ads/campaigns?start=2026-03-05&end=2026-03-01", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoogleAdsNotConfigured(t *testing.T) {
	e := newTestEnv(t)
	e.cfg.GoogleAds.DeveloperToken = ""
	cookie := e.login()
	e.connect(cookie, session.GoogleAds, e.credential("ads-token"))

	rec := e.do(http.MethodGet, "/api/google-ads/campaigns", nil, cookie)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body errorEnvelope
	decodeBody(t, rec, &body)
	assert.Equal(t, "not_configured", body.Code)
}

func TestGoogleAdsAccounts(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login()
	e.connect(cookie, session.GoogleAds, e.credential("ads-token"))

	rec := e.do(http.MethodGet, "/api/google-ads/accounts", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Accounts []googleads.CustomerAccount `json:"accounts"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Accounts, 1, "manager accounts are skipped")
	assert.Equal(t, "Shop", body.Accounts[0].Name)
}

func TestGoogleAdsConversions(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login()
	e.connect(cookie, session.GoogleAds, e.credential("ads-token"))

	rec := e.do(http.MethodGet, "/api/google-ads/conversions?period=last_7_days", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		CustomerID  string                       `json:"customer_id"`
		Conversions []googleads.ConversionDetail `json:"conversions"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "1234567890", body.CustomerID)
	require.Len(t, body.Conversions, 1)
	assert.Equal(t, "buy shoes", body.Conversions[0].SearchTerm)
	assert.Equal(t, "https://example.com/shoes", body.Conversions[0].AdURL)
	assert.InDelta(t, 5.0, body.Conversions[0].Cost, 1e-9)
}
