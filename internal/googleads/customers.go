package googleads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/marketing-dashboard/internal/pkg/apierr"
)

// NormalizeCustomerID strips dashes and requires exactly ten digits.
// An empty id normalizes to "" without error.
func NormalizeCustomerID(id string) (string, error) {
	cid := strings.ReplaceAll(strings.TrimSpace(id), "-", "")
	if cid == "" {
		return "", nil
	}
	if len(cid) != 10 {
		return "", &apierr.DataError{Provider: provider, Field: "customer_id", Value: id, Err: errors.New("must be 10 digits")}
	}
	for _, r := range cid {
		if r < '0' || r > '9' {
			return "", &apierr.DataError{Provider: provider, Field: "customer_id", Value: id, Err: errors.New("must be numeric")}
		}
	}
	return cid, nil
}

const customerClientQuery = `
	SELECT
		customer_client.id,
		customer_client.descriptive_name,
		customer_client.currency_code,
		customer_client.time_zone,
		customer_client.manager,
		customer_client.test_account,
		customer_client.status
	FROM customer_client
	WHERE customer_client.status = 'ENABLED'
	ORDER BY customer_client.descriptive_name`

// ListCustomerAccounts returns the enabled, non-manager accounts beneath managerID.
// Manager accounts are skipped because metrics cannot be queried on them.
func (c *Client) ListCustomerAccounts(ctx context.Context, managerID string) ([]CustomerAccount, error) {
	if strings.TrimSpace(managerID) == "" {
		return nil, &apierr.DataError{Provider: provider, Field: "customer_id", Err: errors.New("manager customer id is required")}
	}

	accounts := make([]CustomerAccount, 0)
	err := c.Search(ctx, managerID, customerClientQuery, func(raw json.RawMessage) error {
		var row customerClientRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return &apierr.DataError{Provider: provider, Field: "customerClient", Err: err}
		}
		cc := row.CustomerClient
		if cc.Manager || cc.Status != "ENABLED" {
			return nil
		}
		name := cc.DescriptiveName
		if name == "" {
			name = "Customer " + cc.ID
		}
		accounts = append(accounts, CustomerAccount{
			CustomerID:   cc.ID,
			Name:         name,
			CurrencyCode: cc.CurrencyCode,
			TimeZone:     cc.TimeZone,
			TestAccount:  cc.TestAccount,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing customer accounts: %w", err)
	}
	return accounts, nil
}
