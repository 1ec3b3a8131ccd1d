package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketing-dashboard/internal/metaads"
)

func TestMetaInsightsRequiresToken(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login()

	rec := e.do(http.MethodGet, "/api/meta-ads/insights", nil, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorEnvelope
	decodeBody(t, rec, &body)
	assert.Equal(t, "token_required", body.Code)

	rec = e.do(http.MethodPut, "/api/meta-ads/token", metaTokenRequest{AccessToken: "  "}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetaInsightsPartialFailure(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login()

	rec := e.do(http.MethodPut, "/api/meta-ads/token", metaTokenRequest{AccessToken: "meta-token"}, cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(http.MethodGet, "/api/meta-ads/insights?days=7", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Bearer meta-token", e.authHeader())

	var body metaInsightsResponse
	decodeBody(t, rec, &body)
	require.Len(t, body.Rows, 2)
	assert.Equal(t, "1", body.Rows[0].AccountID)
	assert.InDelta(t, 20.0, body.TotalSpend, 1e-9)
	assert.False(t, body.NoData)

	require.Len(t, body.Accounts, 1)
	assert.InDelta(t, 13.75, body.Accounts[0].CPM, 1e-9)

	require.Len(t, body.Errors, 1)
	assert.Equal(t, "act_2", body.Errors[0].AccountID)
	assert.Equal(t, "fetch", string(body.Errors[0].Stage))

	assert.InDelta(t, 20.0, e.session(cookie).Cache.MetaSpend(), 1e-9)
}

func TestMetaInsightsTotalFailure(t *testing.T) {
	e := newTestEnv(t)
	e.cfg.Meta.AccountIDs = []string{"act_2"}
	e.h.SetMetaCollector(metaads.NewCollector(metaads.NewClient(e.cfg.Meta), e.cfg.Meta))
	e.cfg.Meta.AccessToken = "configured-token"
	cookie := e.login()

	rec := e.do(http.MethodGet, "/api/meta-ads/insights", nil, cookie)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Bearer configured-token", e.authHeader(), "falls back to the configured token")

	var body struct {
		Code    string              `json:"code"`
		Details []map[string]string `json:"details"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "all_accounts_failed", body.Code)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "act_2", body.Details[0]["account_id"])
	assert.Nil(t, e.session(cookie).Cache.Meta())
}

func TestMetaInsightsBadDays(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login()
	rec := e.do(http.MethodGet, "/api/meta-ads/insights?days=0", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetaTokenClearedOnDisconnect(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login()
	e.do(http.MethodPut, "/api/meta-ads/token", metaTokenRequest{AccessToken: "meta-token"}, cookie)

	rec := e.do(http.MethodDelete, "/api/integrations/meta_ads", nil, cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, e.session(cookie).MetaAccessToken())
}
