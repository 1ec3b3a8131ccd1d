package metaads

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketing-dashboard/internal/config"
	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
	"github.com/ignite/marketing-dashboard/internal/pkg/daterange"
)

type fakeFetcher struct {
	fn func(accountID string, r daterange.Range) ([]Row, error)
}

func (f fakeFetcher) Insights(_ context.Context, _ string, accountID string, r daterange.Range) ([]Row, error) {
	return f.fn(accountID, r)
}

func newTestCollector(fn func(string, daterange.Range) ([]Row, error)) *Collector {
	c := NewCollector(fakeFetcher{fn: fn}, config.MetaConfig{
		AccountIDs:   []string{"act_1", "act_2", "act_3"},
		Concurrency:  3,
		LookbackDays: 7,
	})
	c.now = func() time.Time { return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC) }
	return c
}

func TestFetchAllPartialSuccess(t *testing.T) {
	c := newTestCollector(func(id string, r daterange.Range) ([]Row, error) {
		if id == "act_2" {
			return nil, &apierr.TransportError{Provider: provider, Err: errors.New("i/o timeout")}
		}
		return []Row{{AccountID: DisplayAccountID(id), Account: id, Spend: 1}}, nil
	})

	report, err := c.FetchAll(context.Background(), "tok", 0)
	require.NoError(t, err)

	require.Len(t, report.Rows, 2)
	assert.Equal(t, "1", report.Rows[0].AccountID)
	assert.Equal(t, "3", report.Rows[1].AccountID)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "act_2", report.Errors[0].AccountID)
	assert.Equal(t, apierr.StageFetch, report.Errors[0].Stage)
	assert.False(t, report.Failed())
	assert.Len(t, report.Accounts, 2)
}

func TestFetchAllWindow(t *testing.T) {
	var mu sync.Mutex
	var got daterange.Range
	c := newTestCollector(func(id string, r daterange.Range) ([]Row, error) {
		mu.Lock()
		got = r
		mu.Unlock()
		return nil, nil
	})

	report, err := c.FetchAll(context.Background(), "tok", 7)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-08", got.StartDate())
	assert.Equal(t, "2026-03-15", got.EndDate())

	assert.Empty(t, report.Rows)
	assert.Empty(t, report.Errors)
	assert.False(t, report.Failed(), "no data in window is not a failure")
}

func TestFetchAllTotalFailure(t *testing.T) {
	c := newTestCollector(func(id string, r daterange.Range) ([]Row, error) {
		return nil, &GraphError{Code: 190, Type: "OAuthException", Transport: &apierr.TransportError{Provider: provider, StatusCode: 400, Body: "expired"}}
	})

	report, err := c.FetchAll(context.Background(), "tok", 7)
	require.NoError(t, err)
	assert.True(t, report.Failed())
	require.Len(t, report.Errors, 3)
	assert.Equal(t, apierr.StageAuth, report.Errors[0].Stage)
}

func TestFetchAllRequiresToken(t *testing.T) {
	c := newTestCollector(func(string, daterange.Range) ([]Row, error) { return nil, nil })
	_, err := c.FetchAll(context.Background(), "", 7)
	assert.ErrorIs(t, err, ErrNoAccessToken)
}
