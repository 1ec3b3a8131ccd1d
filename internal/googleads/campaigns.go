package googleads

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ignite/marketing-dashboard/internal/campaign"
	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
	"github.com/ignite/marketing-dashboard/internal/pkg/daterange"
)

func campaignDaysQuery(r daterange.Range) string {
	return fmt.Sprintf(`
	SELECT
		campaign.id,
		campaign.name,
		campaign.status,
		segments.date,
		metrics.impressions,
		metrics.clicks,
		metrics.cost_micros,
		metrics.conversions,
		metrics.ctr,
		metrics.average_cpc,
		metrics.cost_per_conversion
	FROM campaign
	WHERE campaign.status != 'REMOVED'
	AND segments.date BETWEEN '%s' AND '%s'
	ORDER BY campaign.id, segments.date`, r.StartDate(), r.EndDate())
}

// CampaignDays returns one row per campaign per day in r for non-removed campaigns.
func (c *Client) CampaignDays(ctx context.Context, customerID string, r daterange.Range) ([]campaign.Row, error) {
	rows := make([]campaign.Row, 0)
	err := c.Search(ctx, customerID, campaignDaysQuery(r), func(raw json.RawMessage) error {
		var cr campaignRow
		if err := json.Unmarshal(raw, &cr); err != nil {
			return &apierr.DataError{Provider: provider, Field: "campaign", Err: err}
		}
		row, err := cr.toRow()
		if err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching campaign days: %w", err)
	}
	return rows, nil
}

func (cr campaignRow) toRow() (campaign.Row, error) {
	row := campaign.Row{
		CampaignID: cr.Campaign.ID,
		Name:       cr.Campaign.Name,
		Status:     cr.Campaign.Status,
		Date:       cr.Segments.Date,
	}
	if row.CampaignID == "" {
		return row, &apierr.DataError{Provider: provider, Field: "campaign.id", Err: fmt.Errorf("missing")}
	}

	var err error
	if row.Impressions, err = parseInt64("metrics.impressions", cr.Metrics.Impressions); err != nil {
		return row, err
	}
	if row.Clicks, err = parseInt64("metrics.clicks", cr.Metrics.Clicks); err != nil {
		return row, err
	}
	if row.CostMicros, err = parseInt64("metrics.cost_micros", cr.Metrics.CostMicros); err != nil {
		return row, err
	}
	if row.Conversions, err = parseFloat("metrics.conversions", cr.Metrics.Conversions); err != nil {
		return row, err
	}
	if row.CTR, err = parseFloat("metrics.ctr", cr.Metrics.Ctr); err != nil {
		return row, err
	}
	if row.AverageCPCMicros, err = parseFloat("metrics.average_cpc", cr.Metrics.AverageCpc); err != nil {
		return row, err
	}
	if row.CostPerConversionMicros, err = parseFloat("metrics.cost_per_conversion", cr.Metrics.CostPerConversion); err != nil {
		return row, err
	}
	return row, nil
}
