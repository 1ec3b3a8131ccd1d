package googleads

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
	"github.com/ignite/marketing-dashboard/internal/pkg/daterange"
)

func conversionQuery(r daterange.Range) string {
	return fmt.Sprintf(`
	SELECT
		search_term_view.search_term,
		ad_group_criterion.keyword.text,
		ad_group_criterion.keyword.match_type,
		ad_group_ad.ad.final_urls,
		ad_group_ad.ad.id,
		ad_group.name,
		campaign.name,
		segments.conversion_action_name,
		metrics.conversions,
		metrics.conversions_value,
		metrics.cost_micros,
		segments.date
	FROM search_term_view
	WHERE segments.date BETWEEN '%s' AND '%s'
	AND metrics.conversions > 0
	ORDER BY metrics.conversions DESC, segments.date DESC
	LIMIT 10000`, r.StartDate(), r.EndDate())
}

// ConversionDetails lists converting search terms with their keyword, ad and
// conversion action, most conversions first.
func (c *Client) ConversionDetails(ctx context.Context, customerID string, r daterange.Range) ([]ConversionDetail, error) {
	out := make([]ConversionDetail, 0)
	err := c.Search(ctx, customerID, conversionQuery(r), func(raw json.RawMessage) error {
		var row conversionRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return &apierr.DataError{Provider: provider, Field: "searchTermView", Err: err}
		}

		d := ConversionDetail{
			Date:             row.Segments.Date,
			SearchTerm:       row.SearchTermView.SearchTerm,
			Keyword:          row.AdGroupCriterion.Keyword.Text,
			MatchType:        row.AdGroupCriterion.Keyword.MatchType,
			AdID:             row.AdGroupAd.Ad.ID,
			AdGroup:          row.AdGroup.Name,
			Campaign:         row.Campaign.Name,
			ConversionAction: row.Segments.ConversionActionName,
		}
		if len(row.AdGroupAd.Ad.FinalUrls) > 0 {
			d.AdURL = row.AdGroupAd.Ad.FinalUrls[0]
		}

		var err error
		if d.Conversions, err = parseFloat("metrics.conversions", row.Metrics.Conversions); err != nil {
			return err
		}
		if d.ConversionsValue, err = parseFloat("metrics.conversions_value", row.Metrics.ConversionsValue); err != nil {
			return err
		}
		micros, err := parseInt64("metrics.cost_micros", row.Metrics.CostMicros)
		if err != nil {
			return err
		}
		d.Cost = float64(micros) / 1_000_000

		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching conversion details: %w", err)
	}
	return out, nil
}
