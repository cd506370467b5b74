// internal/query/customer_view.go
package query

import (
	"strings"
	"time"

	"subdesk-service/internal/domain/catalog"
	"subdesk-service/internal/domain/customer"
	"subdesk-service/internal/domain/subscription"
)

// CustomerFields is the column set customer tables search and sort on.
func CustomerFields() Fields[customer.Customer] {
	return Fields[customer.Customer]{
		"id":    func(c customer.Customer) string { return c.ID },
		"name":  func(c customer.Customer) string { return c.Name },
		"phone": func(c customer.Customer) string { return c.Phone },
		"email": func(c customer.Customer) string { return c.Email },
	}
}

// CustomerFilterFuncs builds the two composite customer filters.
//
// "package" matches customers holding any subscription whose package name
// equals the filter value (case-insensitive, resolved through the package
// list). "status" matches customers with any history entry whose effective
// status equals the filter value.
func CustomerFilterFuncs(packages []catalog.Package, today time.Time) map[string]func(customer.Customer, string) bool {
	byID := make(map[string]catalog.Package, len(packages))
	for _, p := range packages {
		byID[p.ID] = p
	}

	return map[string]func(customer.Customer, string) bool{
		"package": func(c customer.Customer, value string) bool {
			for _, sub := range c.SubscriptionHistory {
				if pkg, ok := byID[sub.PackageID]; ok && strings.EqualFold(pkg.Name, value) {
					return true
				}
			}
			return false
		},
		"status": func(c customer.Customer, value string) bool {
			for _, sub := range c.SubscriptionHistory {
				if string(subscription.EffectiveStatus(sub, today)) == strings.ToLower(value) {
					return true
				}
			}
			return false
		},
	}
}

// AccountFields is the column set account tables search and sort on.
func AccountFields() Fields[catalog.Account] {
	return Fields[catalog.Account]{
		"id":   func(a catalog.Account) string { return a.ID },
		"name": func(a catalog.Account) string { return a.Name },
		"type": func(a catalog.Account) string { return string(a.Type) },
	}
}

// PackageFields is the column set package tables search and sort on.
func PackageFields() Fields[catalog.Package] {
	return Fields[catalog.Package]{
		"id":        func(p catalog.Package) string { return p.ID },
		"accountId": func(p catalog.Package) string { return p.AccountID },
		"name":      func(p catalog.Package) string { return p.Name },
		"type":      func(p catalog.Package) string { return string(p.Type) },
	}
}
