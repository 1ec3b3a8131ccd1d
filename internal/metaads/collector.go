package metaads

import (
	"context"
	"time"

	"github.com/ignite/marketing-dashboard/internal/config"
	"github.com/ignite/marketing-dashboard/internal/fanout"
	"github.com/ignite/marketing-dashboard/internal/pkg/daterange"
	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
)

// InsightsFetcher is the per-account fetch the collector fans out.
type InsightsFetcher interface {
	Insights(ctx context.Context, token, accountID string, r daterange.Range) ([]Row, error)
}

// Report is the merged outcome across every configured account.
type Report struct {
	Range    daterange.Range       `json:"-"`
	Rows     []Row                 `json:"rows"`
	Accounts []AccountSummary      `json:"accounts"`
	Errors   []fanout.AccountError `json:"errors"`
}

// Failed reports total failure: nothing came back and at least one account errored.
func (r Report) Failed() bool {
	return len(r.Rows) == 0 && len(r.Errors) > 0
}

// Collector runs insights for a fixed account list.
type Collector struct {
	client       InsightsFetcher
	accounts     []string
	concurrency  int
	lookbackDays int
	now          func() time.Time
}

// NewCollector creates a collector for the configured accounts.
func NewCollector(client InsightsFetcher, cfg config.MetaConfig) *Collector {
	return &Collector{
		client:       client,
		accounts:     append([]string(nil), cfg.AccountIDs...),
		concurrency:  cfg.Concurrency,
		lookbackDays: cfg.LookbackDays,
		now:          time.Now,
	}
}

// Accounts returns the configured account ids.
func (c *Collector) Accounts() []string {
	return append([]string(nil), c.accounts...)
}

// Window is the lookback window ending today: days before today through today.
func (c *Collector) Window(days int) daterange.Range {
	if days <= 0 {
		days = c.lookbackDays
	}
	if days <= 0 {
		days = 7
	}
	return daterange.LastNDays(c.now(), days+1)
}

// FetchAll fetches every account independently. A failing account is
// reported in Errors and never stops the others. Rows and Errors both follow
// the configured account order.
func (c *Collector) FetchAll(ctx context.Context, token string, days int) (Report, error) {
	if token == "" {
		return Report{}, ErrNoAccessToken
	}

	window := c.Window(days)
	results := fanout.Run(ctx, c.accounts, c.concurrency, func(ctx context.Context, accountID string) ([]Row, error) {
		return c.client.Insights(ctx, token, accountID, window)
	})
	rows, errs := fanout.Merge(results)

	for _, e := range errs {
		logger.Warn("meta ads account failed", "account_id", e.AccountID, "stage", string(e.Stage), "error", e.Message)
	}
	logger.Info("meta ads insights collected",
		"accounts", len(c.accounts), "rows", len(rows), "failed", len(errs), "window", window.String())

	return Report{
		Range:    window,
		Rows:     rows,
		Accounts: Summarize(rows),
		Errors:   errs,
	}, nil
}
