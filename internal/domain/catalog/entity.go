// internal/domain/catalog/entity.go
package catalog

import (
	"encoding/json"
	"time"

	xerrors "subdesk-service/internal/pkg/errors"
)

// AccountType discriminates subscription accounts (streaming logins resold in
// monthly tiers) from one-time purchase accounts.
type AccountType string

const (
	TypeSubscription AccountType = "subscription"
	TypePurchase     AccountType = "purchase"
)

func (t AccountType) Valid() bool {
	return t == TypeSubscription || t == TypePurchase
}

// CredentialKind tags the credential variant so a details list is
// self-describing instead of depending on the parent record's type.
type CredentialKind string

const (
	CredentialSubscription CredentialKind = "subscription"
	CredentialPurchase     CredentialKind = "purchase"
)

// Credential is a tagged union: subscription entries carry username/password,
// purchase entries carry type/info. Note is shared.
type Credential struct {
	Kind     CredentialKind `json:"kind"`
	Username string         `json:"username,omitempty"`
	Password string         `json:"password,omitempty"`
	Type     string         `json:"type,omitempty"`
	Info     string         `json:"info,omitempty"`
	Note     string         `json:"note"`
}

// Validate checks the credential shape against the owning record's type.
func (c Credential) Validate(owner AccountType) error {
	switch c.Kind {
	case CredentialSubscription:
		if owner != TypeSubscription {
			return xerrors.Validationf("subscription credential on %s record", owner)
		}
		if c.Username == "" {
			return xerrors.Validationf("credential username is required")
		}
	case CredentialPurchase:
		if owner != TypePurchase {
			return xerrors.Validationf("purchase credential on %s record", owner)
		}
		if c.Type == "" && c.Info == "" {
			return xerrors.Validationf("purchase credential needs a type or info")
		}
	default:
		return xerrors.Validationf("unknown credential kind %q", c.Kind)
	}
	return nil
}

// PriceTier is one {duration (months), price} entry of a subscription price list.
type PriceTier struct {
	Duration int     `json:"duration"`
	Price    float64 `json:"price"`
}

// Price is either a single amount (purchase) or an ordered tier list
// (subscription). Exactly one side is set.
type Price struct {
	Amount *float64    `json:"-"`
	Tiers  []PriceTier `json:"-"`
}

func SingleAmount(v float64) Price    { return Price{Amount: &v} }
func TieredPrice(t []PriceTier) Price { return Price{Tiers: t} }

// MarshalJSON keeps the wire shape the UI consumes: a bare number or an array
// of {duration, price} objects.
func (p Price) MarshalJSON() ([]byte, error) {
	if p.Amount != nil {
		return json.Marshal(*p.Amount)
	}
	if p.Tiers == nil {
		return json.Marshal([]PriceTier{})
	}
	return json.Marshal(p.Tiers)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var amount float64
	if err := json.Unmarshal(data, &amount); err == nil {
		p.Amount = &amount
		p.Tiers = nil
		return nil
	}
	var tiers []PriceTier
	if err := json.Unmarshal(data, &tiers); err != nil {
		return xerrors.Validationf("price must be a number or a duration/price list")
	}
	p.Amount = nil
	p.Tiers = tiers
	return nil
}

// TierFor returns the price for a given duration, falling back to the single
// amount (or first tier for purchases) when no tier matches.
func (p Price) TierFor(durationMonths int) float64 {
	if p.Amount != nil {
		return *p.Amount
	}
	for _, t := range p.Tiers {
		if t.Duration == durationMonths {
			return t.Price
		}
	}
	return 0
}

// FirstPrice returns the single amount or the first tier's price.
func (p Price) FirstPrice() float64 {
	if p.Amount != nil {
		return *p.Amount
	}
	if len(p.Tiers) > 0 {
		return p.Tiers[0].Price
	}
	return 0
}

// Account is a top-level credential-holding entity packages are sold from.
// LinkedPackages is a denormalized count maintained transactionally with
// every package create/delete, never recomputed on read.
type Account struct {
	ID               string       `json:"id" db:"id"`
	Type             AccountType  `json:"type" db:"type"`
	Name             string       `json:"name" db:"name"`
	Details          []Credential `json:"details" db:"details"`
	SubscriptionDate string       `json:"subscriptionDate" db:"subscription_date"`
	ExpiryDate       string       `json:"expiryDate" db:"expiry_date"`
	Price            Price        `json:"price" db:"price"`
	LinkedPackages   int          `json:"linkedPackages" db:"linked_packages"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// Package is a sellable offering derived from an Account.
// SubscribedCustomers tracks live subscriptions referencing it, with the same
// maintenance contract as Account.LinkedPackages.
type Package struct {
	ID                  string       `json:"id" db:"id"`
	AccountID           string       `json:"accountId" db:"account_id"`
	Type                AccountType  `json:"type" db:"type"`
	Name                string       `json:"name" db:"name"`
	Details             []Credential `json:"details" db:"details"`
	Price               Price        `json:"price" db:"price"`
	SubscribedCustomers int          `json:"subscribedCustomers" db:"subscribed_customers"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at" db:"updated_at"`
}
