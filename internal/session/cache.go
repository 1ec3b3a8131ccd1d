package session

import (
	"sync"
	"time"

	"github.com/ignite/marketing-dashboard/internal/campaign"
	"github.com/ignite/marketing-dashboard/internal/metaads"
	"github.com/ignite/marketing-dashboard/internal/searchconsole"
)

// SearchAnalyticsSnapshot is the last search analytics report shown.
type SearchAnalyticsSnapshot struct {
	SiteURL   string
	StartDate string
	EndDate   string
	Rows      []searchconsole.Row
	Truncated bool
	FetchedAt time.Time
}

// CampaignSnapshot is the last Google Ads campaign view shown.
type CampaignSnapshot struct {
	CustomerID string
	StartDate  string
	EndDate    string
	Summaries  []campaign.Summary
	Totals     campaign.Totals
	FetchedAt  time.Time
}

// MetaSnapshot is the last Meta insights report shown.
type MetaSnapshot struct {
	Report    metaads.Report
	FetchedAt time.Time
}

// QueryCache keeps the last result of each report for the dashboard tiles.
type QueryCache struct {
	mu              sync.RWMutex
	searchAnalytics *SearchAnalyticsSnapshot
	campaigns       *CampaignSnapshot
	meta            *MetaSnapshot
}

func (c *QueryCache) SetSearchAnalytics(s *SearchAnalyticsSnapshot) {
	c.mu.Lock()
	c.searchAnalytics = s
	c.mu.Unlock()
}

func (c *QueryCache) SearchAnalytics() *SearchAnalyticsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.searchAnalytics
}

func (c *QueryCache) SetCampaigns(s *CampaignSnapshot) {
	c.mu.Lock()
	c.campaigns = s
	c.mu.Unlock()
}

func (c *QueryCache) Campaigns() *CampaignSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.campaigns
}

func (c *QueryCache) SetMeta(s *MetaSnapshot) {
	c.mu.Lock()
	c.meta = s
	c.mu.Unlock()
}

func (c *QueryCache) Meta() *MetaSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meta
}

// Forget drops cached results that came from integration i.
func (c *QueryCache) Forget(i Integration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch i {
	case SearchConsole:
		c.searchAnalytics = nil
	case GoogleAds:
		c.campaigns = nil
	}
}

// Clear drops everything.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	c.searchAnalytics, c.campaigns, c.meta = nil, nil, nil
	c.mu.Unlock()
}

// GoogleAdsSpend is the total cost of the last campaign view, 0 if none.
func (c *QueryCache) GoogleAdsSpend() float64 {
	if s := c.Campaigns(); s != nil {
		return s.Totals.Cost
	}
	return 0
}

// MetaSpend is the total spend of the last Meta report, 0 if none.
func (c *QueryCache) MetaSpend() float64 {
	if s := c.Meta(); s != nil {
		return metaads.TotalSpend(s.Report.Rows)
	}
	return 0
}
