// Package campaign collapses per-day campaign metric rows into one summary
// per campaign. Ratio metrics are recomputed from the summed components,
// never averaged across rows.
package campaign

import (
	"sort"
)

// microsPerUnit converts provider micro-units into currency units.
const microsPerUnit = 1_000_000

// Row is one campaign × date record as delivered by the ads API.
// Per-row ratio fields are carried for display but ignored by Aggregate.
type Row struct {
	CampaignID              string  `json:"campaign_id"`
	Name                    string  `json:"name"`
	Status                  string  `json:"status"`
	Date                    string  `json:"date"`
	Impressions             int64   `json:"impressions"`
	Clicks                  int64   `json:"clicks"`
	CostMicros              int64   `json:"cost_micros"`
	Conversions             float64 `json:"conversions"`
	CTR                     float64 `json:"ctr"`
	AverageCPCMicros        float64 `json:"average_cpc_micros"`
	CostPerConversionMicros float64 `json:"cost_per_conversion_micros"`
}

// Summary is one campaign aggregated across the query window.
type Summary struct {
	CampaignID        string  `json:"campaign_id"`
	Name              string  `json:"name"`
	Status            string  `json:"status"`
	Days              int     `json:"days"`
	Impressions       int64   `json:"impressions"`
	Clicks            int64   `json:"clicks"`
	Cost              float64 `json:"cost"`
	Conversions       float64 `json:"conversions"`
	CTR               float64 `json:"ctr"`
	AverageCPC        float64 `json:"avg_cpc"`
	CostPerConversion float64 `json:"cost_per_conversion"`
}

// Totals is the overall tile across every campaign in view.
type Totals struct {
	Campaigns   int     `json:"campaigns"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Cost        float64 `json:"cost"`
	Conversions float64 `json:"conversions"`
	CTR         float64 `json:"ctr"`
	AverageCPC  float64 `json:"avg_cpc"`
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Aggregate groups rows by campaign id. Name and status come from the first
// row seen for a campaign. Output is ordered by total cost, highest first;
// equal costs keep first-seen order.
func Aggregate(rows []Row) []Summary {
	index := make(map[string]int)
	micros := make([]int64, 0)
	out := make([]Summary, 0)

	for _, r := range rows {
		i, ok := index[r.CampaignID]
		if !ok {
			i = len(out)
			index[r.CampaignID] = i
			out = append(out, Summary{
				CampaignID: r.CampaignID,
				Name:       r.Name,
				Status:     r.Status,
			})
			micros = append(micros, 0)
		}
		s := &out[i]
		s.Days++
		s.Impressions += r.Impressions
		s.Clicks += r.Clicks
		s.Conversions += r.Conversions
		micros[i] += r.CostMicros
	}

	for i := range out {
		s := &out[i]
		// Sum in integer micros, convert once.
		s.Cost = float64(micros[i]) / microsPerUnit
		s.CTR = ratio(float64(s.Clicks), float64(s.Impressions)) * 100
		s.AverageCPC = ratio(s.Cost, float64(s.Clicks))
		s.CostPerConversion = ratio(s.Cost, s.Conversions)
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Cost > out[b].Cost
	})
	return out
}

// Total sums summaries into the overall tile, recomputing ratios.
func Total(summaries []Summary) Totals {
	var t Totals
	t.Campaigns = len(summaries)
	for _, s := range summaries {
		t.Impressions += s.Impressions
		t.Clicks += s.Clicks
		t.Cost += s.Cost
		t.Conversions += s.Conversions
	}
	t.CTR = ratio(float64(t.Clicks), float64(t.Impressions)) * 100
	t.AverageCPC = ratio(t.Cost, float64(t.Clicks))
	return t
}
