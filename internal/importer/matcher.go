package importer

import (
	"strings"

	"github.com/ignite/affiliate-crm/internal/fields"
)

// fieldSynonyms lists the recognized header spellings per catalog field id.
// Fields without an entry fall back to their display name.
var fieldSynonyms = map[string][]string{
	"domain":    {"domain", "website", "url", "site", "web address", "Domain", "DOMAIN", "Domain*"},
	"firstName": {"first name", "firstname", "first", "given name", "givenname"},
	"lastName":  {"last name", "lastname", "last", "surname", "family name"},
	"email":     {"email", "e-mail", "mail", "email address"},
	"phone":     {"phone", "telephone", "tel", "mobile", "cell"},
	"role":      {"role", "position", "title", "job title", "job role"},
	"traffic":   {"traffic", "visitors", "monthly visitors", "audience", "monthly traffic"},
	"stage":     {"stage", "status", "state", "phase"},
	"notes":     {"notes", "comments", "description", "details", "additional info"},
}

// Mapping associates catalog field ids with the CSV header supplying them.
// Unmapped fields are simply absent.
type Mapping map[string]string

// normalizeToken lower-cases a string and strips every non-alphanumeric rune.
func normalizeToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// similarity scores two strings in [0,1] after normalization: 1.0 for an
// exact match (an asterisk marker such as "Domain*" counts as exact), 0.9
// when one contains the other, else the ratio of same-position character
// matches over the longer length. The positional tier deliberately scores
// shifted-but-similar strings low; it is a crude fallback, not edit distance.
func similarity(s1, s2 string) float64 {
	a := normalizeToken(s1)
	b := normalizeToken(s2)

	if a == b {
		return 1
	}
	if strings.ReplaceAll(a, "*", "") == b || strings.ReplaceAll(b, "*", "") == a {
		return 1
	}
	if a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return 0.9
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(longer) == 0 {
		return 0
	}

	matches := 0
	for i := 0; i < len(shorter); i++ {
		if shorter[i] == longer[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(longer))
}

// bestPatternScore returns the highest similarity between a header and any
// of a field's synonym patterns.
func bestPatternScore(header string, patterns []string) float64 {
	best := 0.0
	for _, p := range patterns {
		if score := similarity(header, p); score > best {
			best = score
		}
	}
	return best
}

// AutoMatch proposes a header-to-field mapping. Fields are processed in
// catalog order over two passes: the first accepts only high-confidence
// matches (score > 0.8), the second retries unmapped fields against the
// remaining headers at a lower bar (score > 0.5). A header claimed in the
// first pass stays claimed; matching is greedy and first-claimed wins.
func AutoMatch(headers []string, catalog []fields.Descriptor) Mapping {
	mapping := make(Mapping)
	consumed := make(map[string]bool)

	match := func(field fields.Descriptor, threshold float64) {
		patterns, ok := fieldSynonyms[field.ID]
		if !ok {
			patterns = []string{field.Name}
		}

		bestHeader := ""
		bestScore := 0.0
		for _, header := range headers {
			if consumed[header] {
				continue
			}
			score := bestPatternScore(header, patterns)
			if score > bestScore && score > threshold {
				bestScore = score
				bestHeader = header
			}
		}

		if bestHeader != "" {
			mapping[field.ID] = bestHeader
			consumed[bestHeader] = true
		}
	}

	// First pass: high-confidence matches only
	for _, field := range catalog {
		match(field, 0.8)
	}

	// Second pass: remaining fields at the lower threshold
	for _, field := range catalog {
		if _, done := mapping[field.ID]; done {
			continue
		}
		match(field, 0.5)
	}

	return mapping
}
