package cache

import "errors"

const keyPrefix = "forecast"

// ErrInvalidPostalCode is returned when a postal code contains characters
// outside the digit/hyphen charset the key layout relies on.
var ErrInvalidPostalCode = errors.New("postal code must contain only digits and hyphens")

// Key builds the deterministic cache key for a (postal code, issue date,
// version tag) triple: forecast-<zip>-<date>-<tag>. The tag segment is empty
// when no version tag is set. Postal codes and ISO dates are digit/hyphen
// only (see ValidatePostalCode), so equal keys imply equal triples.
func Key(postalCode, issueDate, versionTag string) string {
	return keyPrefix + "-" + postalCode + "-" + issueDate + "-" + versionTag
}

// ValidatePostalCode restricts postal codes to digits and hyphens (covers
// both 5-digit and ZIP+4 forms). Everything else is rejected so cache keys
// stay collision-free.
func ValidatePostalCode(postalCode string) error {
	if postalCode == "" {
		return ErrInvalidPostalCode
	}
	for _, r := range postalCode {
		if (r < '0' || r > '9') && r != '-' {
			return ErrInvalidPostalCode
		}
	}
	return nil
}
