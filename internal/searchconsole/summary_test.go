package searchconsole

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	rows := []Row{
		{Keys: []string{"a", "/1"}, Clicks: 10, Impressions: 100, Position: 2},
		{Keys: []string{"b", "/2"}, Clicks: 5, Impressions: 400, Position: 8},
	}
	s := Summarize(rows)
	assert.Equal(t, 15.0, s.Clicks)
	assert.Equal(t, 500.0, s.Impressions)
	assert.InDelta(t, 3.0, s.CTR, 1e-9)
	assert.InDelta(t, 5.0, s.Position, 1e-9)
	assert.Equal(t, 2, s.Rows)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestFilterAndSort(t *testing.T) {
	rows := []Row{
		{Keys: []string{"Running Shoes", "https://example.com/shoes"}, Clicks: 3},
		{Keys: []string{"hiking boots", "https://example.com/boots"}, Clicks: 9},
		{Keys: []string{"sandals", "https://example.com/SHOES/sandals"}, Clicks: 5},
	}

	got := Filter(rows, "shoes")
	assert.Len(t, got, 2)
	assert.Len(t, Filter(rows, "  "), 3)

	sorted := SortByClicks(rows)
	assert.Equal(t, "hiking boots", sorted[0].Query())
	assert.Equal(t, "sandals", sorted[1].Query())
	assert.Equal(t, "Running Shoes", rows[0].Query(), "input left in place")

	assert.Equal(t, "", Row{}.Query())
	assert.Equal(t, "", Row{Keys: []string{"only"}}.Page())
}
