// Package identity implements the contact identity core: key normalization,
// merge-candidate resolution, and the field-level merge engine.
package identity

import "strings"

// NormalizeEmail canonicalizes an email for identity comparison: trim and
// lower-case only. Two emails are the same identity iff their normalized
// forms are byte-equal.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeProfileURL canonicalizes a professional-profile URL: strips the
// scheme, a leading "www.", and a trailing slash, then lower-cases. It must be
// applied to both the incoming value and every stored value before comparison;
// raw strings are never compared.
func NormalizeProfileURL(rawURL string) string {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(u, scheme) {
			u = strings.TrimPrefix(u, scheme)
			break
		}
	}
	u = strings.TrimPrefix(u, "www.")
	u = strings.TrimSuffix(u, "/")
	return u
}

// NormalizeName canonicalizes a person or company name for the weakest match
// tier: trim and lower-case.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
