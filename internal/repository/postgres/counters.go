// internal/repository/postgres/counters.go
//
// All denormalized counter maintenance lives here, computed server-side and
// applied through the caller's transaction. Counters are adjusted with atomic
// UPDATE ... SET x = x + delta statements, never read-modify-write in
// application code, and decrements clamp at zero because imported data may
// already be inconsistent.
package postgres

import (
	"context"
)

type CounterStore struct{}

func NewCounterStore() *CounterStore {
	return &CounterStore{}
}

// AdjustLinkedPackages applies a delta to an account's linked-package count.
func (CounterStore) AdjustLinkedPackages(ctx context.Context, q Querier, accountID string, delta int) error {
	query := `
		UPDATE accounts
		SET linked_packages = GREATEST(0, linked_packages + $2), updated_at = NOW()
		WHERE id = $1
	`
	if _, err := q.Exec(ctx, query, accountID, delta); err != nil {
		return storageErr("adjust linked packages", err)
	}
	return nil
}

// AdjustSubscribedCustomers applies a delta to a package's subscriber count.
func (CounterStore) AdjustSubscribedCustomers(ctx context.Context, q Querier, packageID string, delta int) error {
	query := `
		UPDATE packages
		SET subscribed_customers = GREATEST(0, subscribed_customers + $2), updated_at = NOW()
		WHERE id = $1
	`
	if _, err := q.Exec(ctx, query, packageID, delta); err != nil {
		return storageErr("adjust subscribed customers", err)
	}
	return nil
}

// ApplySubscriberDeltas applies a per-package delta map from a history diff
// inside one transaction.
func (c CounterStore) ApplySubscriberDeltas(ctx context.Context, q Querier, deltas map[string]int) error {
	for packageID, delta := range deltas {
		if delta == 0 {
			continue
		}
		if err := c.AdjustSubscribedCustomers(ctx, q, packageID, delta); err != nil {
			return err
		}
	}
	return nil
}
