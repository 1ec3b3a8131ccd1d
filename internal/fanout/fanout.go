// Package fanout runs one fetch against a fixed list of accounts in parallel
// and merges the outcomes. A failure on one account never aborts the others.
package fanout

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
)

// Result is the outcome for one account. Exactly one of Rows or Err is meaningful.
type Result[T any] struct {
	AccountID string
	Rows      []T
	Err       error
}

// AccountError describes a failed account for display.
type AccountError struct {
	AccountID string       `json:"account_id"`
	Stage     apierr.Stage `json:"stage"`
	Message   string       `json:"message"`
}

func (e AccountError) Error() string {
	return fmt.Sprintf("account %s (%s): %s", e.AccountID, e.Stage, e.Message)
}

// FetchFunc fetches the rows for a single account.
type FetchFunc[T any] func(ctx context.Context, accountID string) ([]T, error)

// Run calls fn for every account with at most limit calls in flight
// (limit <= 0 means unbounded). Results are returned in account order.
// Panics in fn are recovered and reported as that account's error.
func Run[T any](ctx context.Context, accounts []string, limit int, fn FetchFunc[T]) []Result[T] {
	results := make([]Result[T], len(accounts))

	// The group context is not used: one account failing must not cancel the rest.
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, id := range accounts {
		g.Go(func() error {
			results[i] = call(ctx, id, fn)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func call[T any](ctx context.Context, id string, fn FetchFunc[T]) (res Result[T]) {
	res.AccountID = id
	defer func() {
		if r := recover(); r != nil {
			res.Rows = nil
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	res.Rows, res.Err = fn(ctx, id)
	if res.Err != nil {
		res.Rows = nil
	}
	return res
}

// Merge flattens successful rows and collects failures, both in account order.
// Empty rows with errors means total failure; empty rows without errors means
// there was no data in the window.
func Merge[T any](results []Result[T]) ([]T, []AccountError) {
	rows := make([]T, 0)
	var errs []AccountError
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, AccountError{
				AccountID: r.AccountID,
				Stage:     apierr.StageOf(r.Err),
				Message:   r.Err.Error(),
			})
			continue
		}
		rows = append(rows, r.Rows...)
	}
	return rows, errs
}
