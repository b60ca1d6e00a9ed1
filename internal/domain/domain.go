package domain

import (
	"regexp"
	"strings"
)

var protocolRe = regexp.MustCompile(`(?i)^https?://`)

// CleanDomain strips a leading http:// or https:// scheme and any trailing
// slashes from a domain value. Case and a leading "www." are preserved; this
// is the display form kept on validated records.
func CleanDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return ""
	}
	domain = protocolRe.ReplaceAllString(domain, "")
	domain = strings.TrimRight(domain, "/")
	return strings.TrimSpace(domain)
}

// Normalize lower-cases a domain and strips the scheme and a leading "www.".
// The result is the key used for duplicate detection, so "HTTPS://WWW.Example.com"
// and "example.com" collide.
func Normalize(domain string) string {
	if domain == "" {
		return ""
	}
	d := strings.ToLower(domain)
	d = protocolRe.ReplaceAllString(d, "")
	d = strings.TrimPrefix(d, "www.")
	d = strings.TrimRight(d, "/")
	return strings.TrimSpace(d)
}

// StripPrefixes removes an optional scheme and "www." prefix without lowering
// the case. Used when a validated domain is persisted on a new account.
func StripPrefixes(domain string) string {
	d := protocolRe.ReplaceAllString(strings.TrimSpace(domain), "")
	if len(d) >= 4 && strings.EqualFold(d[:4], "www.") {
		d = d[4:]
	}
	return d
}
