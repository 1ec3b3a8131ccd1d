package searchconsole

import (
	"sort"
	"strings"
)

// Summary is the headline tile for a report.
type Summary struct {
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
	Rows        int     `json:"rows"`
}

// Summarize totals clicks and impressions, recomputes CTR from the totals as
// a percentage and averages position across rows.
func Summarize(rows []Row) Summary {
	s := Summary{Rows: len(rows)}
	if len(rows) == 0 {
		return s
	}
	var pos float64
	for _, r := range rows {
		s.Clicks += r.Clicks
		s.Impressions += r.Impressions
		pos += r.Position
	}
	if s.Impressions > 0 {
		s.CTR = s.Clicks / s.Impressions * 100
	}
	s.Position = pos / float64(len(rows))
	return s
}

// Filter keeps rows whose query or page contains term, case-insensitively.
// An empty term keeps everything.
func Filter(rows []Row, term string) []Row {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	out := make([]Row, 0)
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Query()), term) ||
			strings.Contains(strings.ToLower(r.Page()), term) {
			out = append(out, r)
		}
	}
	return out
}

// SortByClicks returns a copy ordered by clicks, highest first.
func SortByClicks(rows []Row) []Row {
	out := append([]Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Clicks > out[j].Clicks
	})
	return out
}
