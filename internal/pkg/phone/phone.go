// internal/pkg/phone/phone.go
package phone

import (
	"regexp"
	"strings"

	xerrors "subdesk-service/internal/pkg/errors"
)

var (
	normalizedRe = regexp.MustCompile(`^(\+\d{1,4})\s(\d{4,14})$`)
	digitsRe     = regexp.MustCompile(`\D`)
)

// Normalize builds the canonical stored form "<countryCode> <nationalNumber>".
// The national part is reduced to digits with leading zeros stripped.
func Normalize(countryCode, number string) (string, error) {
	countryCode = strings.TrimSpace(countryCode)
	if !strings.HasPrefix(countryCode, "+") {
		return "", xerrors.Validationf("country code must start with '+'")
	}

	national := digitsRe.ReplaceAllString(number, "")
	national = strings.TrimLeft(national, "0")
	if national == "" {
		return "", xerrors.Validationf("phone number is required")
	}

	normalized := countryCode + " " + national
	if !normalizedRe.MatchString(normalized) {
		return "", xerrors.Validationf("invalid phone number %q", countryCode+" "+number)
	}
	return normalized, nil
}

// Parse splits a stored phone back into country code and national number.
func Parse(stored string) (countryCode, national string, ok bool) {
	m := normalizedRe.FindStringSubmatch(stored)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// IsNormalized reports whether a phone already follows the canonical form.
func IsNormalized(stored string) bool {
	return normalizedRe.MatchString(stored)
}
