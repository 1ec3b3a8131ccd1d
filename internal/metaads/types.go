package metaads

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
)

// InsightFields is the fixed metric list requested for every account.
var InsightFields = []string{"spend", "impressions", "clicks", "cpm", "date_start", "date_stop"}

// insightsResponse is one page of /{act}/insights.
type insightsResponse struct {
	Data   []rawInsight `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// rawInsight mirrors the Graph API record. Numeric fields are strings on the wire.
type rawInsight struct {
	AccountID   string `json:"account_id"`
	Spend       string `json:"spend"`
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	CPM         string `json:"cpm"`
	DateStart   string `json:"date_start"`
	DateStop    string `json:"date_stop"`
}

// graphErrorBody is the Graph API error envelope.
type graphErrorBody struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FBTraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

// GraphError is a Graph API failure with its error code.
type GraphError struct {
	Code      int
	Subcode   int
	Type      string
	Transport *apierr.TransportError
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Transport.Error(), e.Code)
}

func (e *GraphError) Unwrap() error { return e.Transport }

// AuthFailure reports an invalid, expired or under-permissioned access token.
func (e *GraphError) AuthFailure() bool {
	switch e.Code {
	case 102, 190, 200, 10:
		return true
	}
	return e.Type == "OAuthException" && e.Code != 4 && e.Code != 17
}

// Row is one insights record tagged with its display account id.
type Row struct {
	AccountID   string  `json:"account_id"`
	Account     string  `json:"account"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CPM         float64 `json:"cpm"`
	DateStart   string  `json:"date_start"`
	DateStop    string  `json:"date_stop"`
}

// AccountSummary is the per-account tile.
type AccountSummary struct {
	AccountID   string  `json:"account_id"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CPM         float64 `json:"cpm"`
	Days        int     `json:"days"`
}

// DisplayAccountID strips the act_ prefix.
func DisplayAccountID(id string) string {
	return strings.TrimPrefix(id, "act_")
}

// GraphAccountID ensures the act_ prefix the Graph API expects.
func GraphAccountID(id string) string {
	if strings.HasPrefix(id, "act_") {
		return id
	}
	return "act_" + id
}

func parseFloatField(field, s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &apierr.DataError{Provider: provider, Field: field, Value: s, Err: err}
	}
	return v, nil
}

func parseIntField(field, s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &apierr.DataError{Provider: provider, Field: field, Value: s, Err: err}
	}
	return v, nil
}

// toRow parses the string numerics of a raw record.
func (ri rawInsight) toRow(account string) (Row, error) {
	row := Row{
		AccountID: DisplayAccountID(account),
		Account:   account,
		DateStart: ri.DateStart,
		DateStop:  ri.DateStop,
	}
	var err error
	if row.Spend, err = parseFloatField("spend", ri.Spend); err != nil {
		return row, err
	}
	if row.Impressions, err = parseIntField("impressions", ri.Impressions); err != nil {
		return row, err
	}
	if row.Clicks, err = parseIntField("clicks", ri.Clicks); err != nil {
		return row, err
	}
	if row.CPM, err = parseFloatField("cpm", ri.CPM); err != nil {
		return row, err
	}
	return row, nil
}

// Summarize builds one tile per account in the order accounts first appear.
// CPM is the mean of the per-row CPM values.
func Summarize(rows []Row) []AccountSummary {
	index := make(map[string]int)
	cpmSum := make([]float64, 0)
	out := make([]AccountSummary, 0)
	for _, r := range rows {
		i, ok := index[r.AccountID]
		if !ok {
			i = len(out)
			index[r.AccountID] = i
			out = append(out, AccountSummary{AccountID: r.AccountID})
			cpmSum = append(cpmSum, 0)
		}
		s := &out[i]
		s.Spend += r.Spend
		s.Impressions += r.Impressions
		s.Clicks += r.Clicks
		s.Days++
		cpmSum[i] += r.CPM
	}
	for i := range out {
		out[i].CPM = cpmSum[i] / float64(out[i].Days)
	}
	return out
}

// TotalSpend sums spend across rows.
func TotalSpend(rows []Row) float64 {
	var total float64
	for _, r := range rows {
		total += r.Spend
	}
	return total
}
