// internal/domain/subscription/status.go
//
// Pure date arithmetic for subscription lifecycle. No I/O; callers pass
// "today" explicitly so results are reproducible.
package subscription

import (
	"time"

	"subdesk-service/internal/domain/catalog"
	"subdesk-service/internal/domain/customer"
)

// DateLayout is the wire format for all subscription dates (date-only).
const DateLayout = "2006-01-02"

// DaysPerMonth approximates a month as 30 days. This is a deliberate
// simplification carried over from the product, not calendar-month arithmetic:
// a 1-month subscription started on 2024-01-01 ends on 2024-01-31.
const DaysPerMonth = 30

// ParseDate parses a wire date, returning the zero time on failure.
func ParseDate(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EffectiveStatus computes the displayed status of a subscription.
// Sold is sticky. Otherwise the entry is expired iff its end date is strictly
// before today: the end date itself is inclusive, so a subscription stays
// active through the whole of its final calendar day.
func EffectiveStatus(sub customer.Subscription, today time.Time) customer.SubscriptionStatus {
	if sub.Status == customer.StatusSold {
		return customer.StatusSold
	}
	end := ParseDate(sub.EndDate)
	if end.IsZero() {
		return customer.StatusExpired
	}
	if truncateToDay(end).Before(truncateToDay(today)) {
		return customer.StatusExpired
	}
	return customer.StatusActive
}

// ExpiryDate derives the end date from a start date and duration in months,
// using the 30-day month approximation.
func ExpiryDate(startDate string, durationMonths int) string {
	start := ParseDate(startDate)
	if start.IsZero() {
		return ""
	}
	return start.AddDate(0, 0, durationMonths*DaysPerMonth).Format(DateLayout)
}

// RemainingDays returns the whole days left on an active subscription to a
// subscription-type package, and false when the figure does not apply (missing
// or purchase-type package, or a non-active effective status).
//
// A subscription whose start date is still in the future reports its nominal
// full duration (end minus start); the countdown from "now" only begins once
// the start date has passed.
func RemainingDays(sub customer.Subscription, pkg *catalog.Package, today time.Time) (int, bool) {
	if pkg == nil || pkg.Type != catalog.TypeSubscription {
		return 0, false
	}
	if EffectiveStatus(sub, today) != customer.StatusActive {
		return 0, false
	}

	end := truncateToDay(ParseDate(sub.EndDate))
	start := truncateToDay(ParseDate(sub.StartDate))
	now := truncateToDay(today)

	from := now
	if now.Before(start) {
		from = start
	}

	days := int(end.Sub(from).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, true
}

// InitialStatus is the persisted default for a new history entry: one-time
// purchase packages are recorded as sold, everything else starts active.
func InitialStatus(pkgType catalog.AccountType) customer.SubscriptionStatus {
	if pkgType == catalog.TypePurchase {
		return customer.StatusSold
	}
	return customer.StatusActive
}

// ExpiresWithin reports whether an active entry ends within n days of today
// (exclusive of already-expired entries). Used by the expiring-soon feed.
func ExpiresWithin(sub customer.Subscription, today time.Time, n int) bool {
	if EffectiveStatus(sub, today) != customer.StatusActive {
		return false
	}
	end := truncateToDay(ParseDate(sub.EndDate))
	now := truncateToDay(today)
	cutoff := now.AddDate(0, 0, n)
	return end.After(now) && !end.After(cutoff)
}
