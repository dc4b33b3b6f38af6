// Package normalize turns raw emails, names, and domains into canonical
// comparison keys. Every resolver and index in the engine goes through these
// functions so that two spellings of the same thing land on the same key.
package normalize

import (
	"regexp"
	"strings"
)

var (
	emailShape  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)
)

// Email canonicalizes a raw email string. Returns ok=false for anything that
// does not look like local@domain.tld; callers count rejects instead of
// failing.
func Email(raw string) (string, bool) {
	e := strings.ToLower(strings.TrimSpace(raw))
	e = strings.TrimPrefix(e, "mailto:")
	// Brackets and trailing punctuation nest in either order ("<a@b.c>.",
	// "a@b.c>;"), so trim until stable.
	for {
		trimmed := strings.TrimRight(strings.Trim(e, "<>"), ".,;:")
		if trimmed == e {
			break
		}
		e = trimmed
	}
	if e == "" || !emailShape.MatchString(e) {
		return "", false
	}
	return e, true
}

// CompanyName lower-cases a company name and collapses every run of
// non-alphanumeric characters to a single space. Two names refer to the same
// company iff their keys are equal.
func CompanyName(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = nonAlnumRun.ReplaceAllString(key, " ")
	return strings.TrimSpace(key)
}

// PersonName applies the same collapsing rule as CompanyName. Used for fuzzy
// contact-name comparison.
func PersonName(raw string) string {
	return CompanyName(raw)
}

// Domain strips scheme, path, and query from a raw domain or URL, lower-cases
// it, and removes a leading "www.". Empty input yields "".
func Domain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	d = strings.Trim(d, ".")
	return d
}

// EmailDomain returns the normalized domain portion of an email address, or
// "" when the input is not email-shaped.
func EmailDomain(email string) string {
	e, ok := Email(email)
	if !ok {
		return ""
	}
	at := strings.LastIndex(e, "@")
	return Domain(e[at+1:])
}
