package googleads

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
)

// SearchRequest is the body of googleAds:search.
type SearchRequest struct {
	Query     string `json:"query"`
	PageToken string `json:"pageToken,omitempty"`
}

// SearchResponse is one page of googleAds:search.
type SearchResponse struct {
	Results       []json.RawMessage `json:"results"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
}

// errorResponse is the Google API error envelope.
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Errors []struct {
				ErrorCode map[string]string `json:"errorCode"`
				Message   string            `json:"message"`
			} `json:"errors"`
		} `json:"details"`
	} `json:"error"`
}

// errorMessage flattens the API error envelope into one line per failure,
// falling back to the raw body.
func errorMessage(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Error.Message == "" {
		return strings.TrimSpace(string(body))
	}
	var parts []string
	for _, d := range er.Error.Details {
		for _, e := range d.Errors {
			code := ""
			for k, v := range e.ErrorCode {
				code = k + "=" + v + ": "
			}
			parts = append(parts, code+e.Message)
		}
	}
	if len(parts) == 0 {
		return er.Error.Status + ": " + er.Error.Message
	}
	return strings.Join(parts, "; ")
}

// campaignRow is a GAQL result row for the campaign × date query.
type campaignRow struct {
	Campaign struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"campaign"`
	Segments struct {
		Date string `json:"date"`
	} `json:"segments"`
	Metrics metrics `json:"metrics"`
}

// metrics holds raw metric values. int64 metrics arrive as JSON strings and
// doubles as numbers, so both are decoded explicitly.
type metrics struct {
	Impressions       json.RawMessage `json:"impressions"`
	Clicks            json.RawMessage `json:"clicks"`
	CostMicros        json.RawMessage `json:"costMicros"`
	Conversions       json.RawMessage `json:"conversions"`
	ConversionsValue  json.RawMessage `json:"conversionsValue"`
	Ctr               json.RawMessage `json:"ctr"`
	AverageCpc        json.RawMessage `json:"averageCpc"`
	CostPerConversion json.RawMessage `json:"costPerConversion"`
}

// customerClientRow is a GAQL result row for customer_client.
type customerClientRow struct {
	CustomerClient struct {
		ID              string `json:"id"`
		DescriptiveName string `json:"descriptiveName"`
		CurrencyCode    string `json:"currencyCode"`
		TimeZone        string `json:"timeZone"`
		Manager         bool   `json:"manager"`
		TestAccount     bool   `json:"testAccount"`
		Status          string `json:"status"`
	} `json:"customerClient"`
}

// CustomerAccount is a client account under a manager account.
type CustomerAccount struct {
	CustomerID   string `json:"customer_id"`
	Name         string `json:"name"`
	CurrencyCode string `json:"currency_code"`
	TimeZone     string `json:"time_zone"`
	TestAccount  bool   `json:"test_account"`
}

// conversionRow is a GAQL result row for search_term_view conversions.
type conversionRow struct {
	SearchTermView struct {
		SearchTerm string `json:"searchTerm"`
	} `json:"searchTermView"`
	AdGroupCriterion struct {
		Keyword struct {
			Text      string `json:"text"`
			MatchType string `json:"matchType"`
		} `json:"keyword"`
	} `json:"adGroupCriterion"`
	AdGroupAd struct {
		Ad struct {
			ID        string   `json:"id"`
			FinalUrls []string `json:"finalUrls"`
		} `json:"ad"`
	} `json:"adGroupAd"`
	AdGroup struct {
		Name string `json:"name"`
	} `json:"adGroup"`
	Campaign struct {
		Name string `json:"name"`
	} `json:"campaign"`
	Segments struct {
		Date                 string `json:"date"`
		ConversionActionName string `json:"conversionActionName"`
	} `json:"segments"`
	Metrics metrics `json:"metrics"`
}

// ConversionDetail is one converting search term.
type ConversionDetail struct {
	Date             string  `json:"date"`
	SearchTerm       string  `json:"search_term"`
	Keyword          string  `json:"keyword"`
	MatchType        string  `json:"match_type"`
	AdURL            string  `json:"ad_url"`
	AdID             string  `json:"ad_id"`
	AdGroup          string  `json:"ad_group"`
	Campaign         string  `json:"campaign"`
	ConversionAction string  `json:"conversion_action"`
	Conversions      float64 `json:"conversions"`
	ConversionsValue float64 `json:"conversions_value"`
	Cost             float64 `json:"cost"`
}

func unquote(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	return strings.Trim(s, `"`)
}

// parseInt64 decodes an int64 metric. Absent metrics are zero.
func parseInt64(field string, raw json.RawMessage) (int64, error) {
	s := unquote(raw)
	if s == "" || s == "null" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &apierr.DataError{Provider: provider, Field: field, Value: s, Err: err}
	}
	return v, nil
}

// parseFloat decodes a double metric. Absent metrics are zero.
func parseFloat(field string, raw json.RawMessage) (float64, error) {
	s := unquote(raw)
	if s == "" || s == "null" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &apierr.DataError{Provider: provider, Field: field, Value: s, Err: err}
	}
	return v, nil
}
