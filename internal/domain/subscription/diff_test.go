package subscription

import (
	"testing"

	"subdesk-service/internal/domain/customer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id, pkgID, start, end string) customer.Subscription {
	return customer.Subscription{
		ID:        id,
		PackageID: pkgID,
		StartDate: start,
		EndDate:   end,
		Duration:  1,
		Status:    customer.StatusActive,
	}
}

func TestDiffHistory(t *testing.T) {
	t.Run("identical histories produce no deltas", func(t *testing.T) {
		old := []customer.Subscription{entry("sub_1", "pkg_a", "2024-01-01", "2024-01-31")}
		diff := DiffHistory(old, old)
		assert.True(t, diff.Empty())
		assert.Empty(t, diff.CounterDeltas)
	})

	t.Run("new entry increments its package", func(t *testing.T) {
		old := []customer.Subscription{entry("sub_1", "pkg_a", "2024-01-01", "2024-01-31")}
		updated := append([]customer.Subscription{entry("sub_2", "pkg_b", "2024-02-01", "2024-03-02")}, old...)

		diff := DiffHistory(old, updated)
		require.Len(t, diff.Added, 1)
		assert.Equal(t, "sub_2", diff.Added[0].ID)
		assert.Equal(t, map[string]int{"pkg_b": 1}, diff.CounterDeltas)
	})

	t.Run("entry without an id counts as new", func(t *testing.T) {
		updated := []customer.Subscription{entry("", "pkg_a", "2024-01-01", "2024-01-31")}
		diff := DiffHistory(nil, updated)
		require.Len(t, diff.Added, 1)
		assert.Equal(t, map[string]int{"pkg_a": 1}, diff.CounterDeltas)
	})

	t.Run("removed entry decrements its package", func(t *testing.T) {
		old := []customer.Subscription{
			entry("sub_1", "pkg_a", "2024-01-01", "2024-01-31"),
			entry("sub_2", "pkg_b", "2024-02-01", "2024-03-02"),
		}
		diff := DiffHistory(old, old[:1])
		require.Len(t, diff.Removed, 1)
		assert.Equal(t, "sub_2", diff.Removed[0].ID)
		assert.Equal(t, map[string]int{"pkg_b": -1}, diff.CounterDeltas)
	})

	t.Run("in-place edit changes no counters", func(t *testing.T) {
		old := []customer.Subscription{entry("sub_1", "pkg_a", "2024-01-01", "2024-01-31")}
		edited := entry("sub_1", "pkg_a", "2024-01-01", "2024-03-01")
		edited.Duration = 2

		diff := DiffHistory(old, []customer.Subscription{edited})
		require.Len(t, diff.Edited, 1)
		assert.Empty(t, diff.CounterDeltas)
	})

	t.Run("edit that moves packages transfers the count", func(t *testing.T) {
		old := []customer.Subscription{entry("sub_1", "pkg_a", "2024-01-01", "2024-01-31")}
		moved := entry("sub_1", "pkg_b", "2024-01-01", "2024-01-31")

		diff := DiffHistory(old, []customer.Subscription{moved})
		assert.Equal(t, map[string]int{"pkg_a": -1, "pkg_b": 1}, diff.CounterDeltas)
	})

	t.Run("swap within one package cancels out", func(t *testing.T) {
		old := []customer.Subscription{entry("sub_1", "pkg_a", "2024-01-01", "2024-01-31")}
		updated := []customer.Subscription{entry("sub_9", "pkg_a", "2024-02-01", "2024-03-02")}

		diff := DiffHistory(old, updated)
		require.Len(t, diff.Added, 1)
		require.Len(t, diff.Removed, 1)
		assert.Empty(t, diff.CounterDeltas, "net delta for the package is zero")
	})

	t.Run("full replacement", func(t *testing.T) {
		old := []customer.Subscription{
			entry("sub_1", "pkg_a", "2024-01-01", "2024-01-31"),
			entry("sub_2", "pkg_a", "2024-02-01", "2024-03-02"),
		}
		diff := DiffHistory(old, nil)
		assert.Equal(t, map[string]int{"pkg_a": -2}, diff.CounterDeltas)
	})
}
