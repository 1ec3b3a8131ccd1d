package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketing-dashboard/internal/campaign"
	"github.com/ignite/marketing-dashboard/internal/config"
	"github.com/ignite/marketing-dashboard/internal/metaads"
	"github.com/ignite/marketing-dashboard/internal/oauth"
	"github.com/ignite/marketing-dashboard/internal/pkg/daterange"
)

func newTestManager() *Manager {
	return NewManager(config.SessionConfig{CookieName: "dashboard_session", MaxAgeSeconds: 3600}, nil)
}

func TestManagerCookieRoundTrip(t *testing.T) {
	m := newTestManager()
	s := m.Create("admin", "Admin")

	rec := httptest.NewRecorder()
	m.SetCookie(rec, s)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	assert.Same(t, s, m.FromRequest(req))

	assert.Nil(t, m.FromRequest(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestManagerDestroyWipesSession(t *testing.T) {
	m := newTestManager()
	s := m.Create("admin", "Admin")
	s.Credentials.Put(GoogleAds, &oauth.Credential{AccessToken: "secret"})
	s.Cache.SetCampaigns(&CampaignSnapshot{Totals: campaign.Totals{Cost: 10}})
	s.SetMetaAccessToken("meta-secret")
	s.UpdateSelection(func(sel *Selection) { sel.Period = daterange.Last30Days })

	m.Destroy(s.ID)

	assert.Nil(t, m.Get(s.ID))
	assert.Empty(t, s.Credentials.Connected())
	assert.Nil(t, s.Cache.Campaigns())
	assert.Empty(t, s.MetaAccessToken())
	assert.Equal(t, Selection{}, s.Selection())
}

func TestManagerExpiry(t *testing.T) {
	m := newTestManager()
	now := time.Now()
	m.now = func() time.Time { return now }

	live := m.Create("admin", "Admin")
	now = now.Add(30 * time.Minute)
	m.Create("admin", "Admin")

	now = now.Add(45 * time.Minute)
	assert.Nil(t, m.Get(live.ID), "older session expired")
	assert.Equal(t, 1, m.Len())

	now = now.Add(time.Hour)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 0, m.Len())
}

func TestCacheSpendTiles(t *testing.T) {
	c := &QueryCache{}
	assert.Zero(t, c.GoogleAdsSpend())
	assert.Zero(t, c.MetaSpend())

	c.SetCampaigns(&CampaignSnapshot{Totals: campaign.Totals{Cost: 42.5}})
	c.SetMeta(&MetaSnapshot{Report: metaads.Report{Rows: []metaads.Row{{Spend: 1.5}, {Spend: 2}}}})
	assert.Equal(t, 42.5, c.GoogleAdsSpend())
	assert.Equal(t, 3.5, c.MetaSpend())

	c.Forget(GoogleAds)
	assert.Zero(t, c.GoogleAdsSpend())
	assert.Equal(t, 3.5, c.MetaSpend())
}
