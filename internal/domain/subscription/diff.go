// internal/domain/subscription/diff.go
package subscription

import "subdesk-service/internal/domain/customer"

// HistoryDiff is the result of comparing a stored history against a submitted
// replacement. CounterDeltas maps package id to the net change its
// subscribed_customers counter must receive.
type HistoryDiff struct {
	Added         []customer.Subscription
	Removed       []customer.Subscription
	Edited        []customer.Subscription
	CounterDeltas map[string]int
}

// Empty reports whether the diff carries no changes at all.
func (d HistoryDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Edited) == 0
}

// DiffHistory compares histories entry-by-entry, keyed on subscription id.
//
// A new entry (id absent from the old history, including entries submitted
// without an id yet) increments its package's counter. A dropped entry
// decrements. An entry kept under the same id is an in-place edit and never
// changes counters - unless the edit moved it to a different package, which
// counts as a removal from the old package plus an addition to the new one.
func DiffHistory(old, updated []customer.Subscription) HistoryDiff {
	diff := HistoryDiff{CounterDeltas: map[string]int{}}

	oldByID := make(map[string]customer.Subscription, len(old))
	for _, s := range old {
		oldByID[s.ID] = s
	}

	seen := make(map[string]bool, len(updated))
	for _, s := range updated {
		prev, exists := oldByID[s.ID]
		if s.ID == "" || !exists {
			diff.Added = append(diff.Added, s)
			diff.CounterDeltas[s.PackageID]++
			continue
		}
		seen[s.ID] = true
		if prev == s {
			continue
		}
		diff.Edited = append(diff.Edited, s)
		if prev.PackageID != s.PackageID {
			diff.CounterDeltas[prev.PackageID]--
			diff.CounterDeltas[s.PackageID]++
		}
	}

	for _, s := range old {
		if !seen[s.ID] {
			diff.Removed = append(diff.Removed, s)
			diff.CounterDeltas[s.PackageID]--
		}
	}

	for pkgID, delta := range diff.CounterDeltas {
		if delta == 0 {
			delete(diff.CounterDeltas, pkgID)
		}
	}
	return diff
}
