// Package gid converts between Shopify global object identifiers
// (gid://shopify/Product/123) and the bare numeric IDs used by the REST
// Admin API.
package gid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Prefix is the scheme and namespace of every Shopify global ID.
const Prefix = "gid://shopify/"

// ResourceProduct is the resource type segment for products.
const ResourceProduct = "Product"

// ErrMalformedIdentifier is returned when an identifier has no positive
// integer after its last path separator.
var ErrMalformedIdentifier = errors.New("malformed identifier")

// ToNumeric extracts the numeric ID from a global ID. The segment after the
// last "/" must be a positive base-10 integer.
func ToNumeric(platformID string) (int64, error) {
	idx := strings.LastIndex(platformID, "/")
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q has no separator", ErrMalformedIdentifier, platformID)
	}
	return parsePositive(platformID, platformID[idx+1:])
}

// ToPlatformID builds the global ID for a numeric ID and resource type.
func ToPlatformID(numericID int64, resourceType string) string {
	return Prefix + resourceType + "/" + strconv.FormatInt(numericID, 10)
}

// ParseNumeric accepts either a bare numeric ID ("123") or a global ID and
// returns the numeric form. Used for IDs arriving from URLs and CLI args.
func ParseNumeric(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		return ToNumeric(s)
	}
	return parsePositive(s, s)
}

func parsePositive(original, digits string) (int64, error) {
	if digits == "" {
		return 0, fmt.Errorf("%w: %q has no numeric suffix", ErrMalformedIdentifier, original)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q has non-numeric suffix", ErrMalformedIdentifier, original)
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedIdentifier, original, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %q is not positive", ErrMalformedIdentifier, original)
	}
	return n, nil
}
