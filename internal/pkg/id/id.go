// internal/pkg/id/id.go
package id

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// Entity prefixes, kept stable because ids are displayed truncated in the UI
// and referenced across tables.
const (
	PrefixAccount      = "acc"
	PrefixPackage      = "pkg"
	PrefixCustomer     = "cust"
	PrefixSubscription = "sub"
	PrefixUser         = "usr"
	PrefixActivity     = "act"
)

// New returns a prefixed, lexicographically sortable opaque id, e.g. "pkg_01J8...".
func New(prefix string) string {
	return prefix + "_" + strings.ToLower(ulid.Make().String())
}

// Short returns the first 8 characters of an id, the form shown in tables.
func Short(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
