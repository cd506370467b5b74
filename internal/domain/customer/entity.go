// internal/domain/customer/entity.go
package customer

import "time"

// SubscriptionStatus is the persisted status of one history entry. The stored
// value is the creation-time default; the displayed status is always
// recomputed from dates (see internal/domain/subscription).
type SubscriptionStatus string

const (
	StatusActive  SubscriptionStatus = "active"
	StatusExpired SubscriptionStatus = "expired"
	StatusSold    SubscriptionStatus = "sold"
)

func (s SubscriptionStatus) Valid() bool {
	return s == StatusActive || s == StatusExpired || s == StatusSold
}

// Subscription is one customer's time-bounded (or one-time) claim on a package.
// Duration is months; 0 marks a one-time purchase.
type Subscription struct {
	ID        string             `json:"id" db:"id"`
	PackageID string             `json:"packageId" db:"package_id"`
	StartDate string             `json:"startDate" db:"start_date"`
	EndDate   string             `json:"endDate" db:"end_date"`
	Duration  int                `json:"duration" db:"duration"`
	Status    SubscriptionStatus `json:"status" db:"status"`
}

// Customer with full subscription history, newest entry first.
//
// PackageID, SubscriptionDuration, SubscriptionDate and ExpiryDate are legacy
// convenience fields mirroring the newest history entry. They are a read-only
// projection computed by Project, never independently writable.
type Customer struct {
	ID                   string         `json:"id" db:"id"`
	Name                 string         `json:"name" db:"name"`
	Phone                string         `json:"phone" db:"phone"`
	Email                string         `json:"email,omitempty" db:"email"`
	PackageID            string         `json:"packageId"`
	SubscriptionDuration int            `json:"subscriptionDuration"`
	SubscriptionDate     string         `json:"subscriptionDate"`
	ExpiryDate           string         `json:"expiryDate"`
	SubscriptionHistory  []Subscription `json:"subscriptionHistory"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at" db:"updated_at"`
}

// Project fills the legacy fields from the newest history entry.
func (c *Customer) Project() {
	if len(c.SubscriptionHistory) == 0 {
		c.PackageID = ""
		c.SubscriptionDuration = 0
		c.SubscriptionDate = ""
		c.ExpiryDate = ""
		return
	}
	latest := c.SubscriptionHistory[0]
	c.PackageID = latest.PackageID
	c.SubscriptionDuration = latest.Duration
	c.SubscriptionDate = latest.StartDate
	c.ExpiryDate = latest.EndDate
}
