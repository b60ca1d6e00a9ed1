package importer

import (
	"testing"

	"github.com/ignite/affiliate-crm/internal/fields"
)

func TestSimilarityTiers(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   float64
	}{
		{"Domain", "domain", 1},
		{"DOMAIN", "domain", 1},
		{"Domain*", "domain", 1},
		{"E-mail", "email", 1},
		{"email address", "email", 0.9},
		{"monthly visitors", "visitors", 0.9},
		{"", "domain", 0},
		{"", "", 1},
	}
	for _, tt := range tests {
		if got := similarity(tt.s1, tt.s2); got != tt.want {
			t.Errorf("similarity(%q, %q) = %v, want %v", tt.s1, tt.s2, got, tt.want)
		}
	}
}

func TestSimilarityPositionalFallback(t *testing.T) {
	// "abcd" vs "abzd": 3 of 4 positions agree, no containment.
	if got := similarity("abcd", "abzd"); got != 0.75 {
		t.Errorf("positional score = %v, want 0.75", got)
	}
	// Shifted strings score low under positional comparison.
	if got := similarity("xdomain", "domainx"); got >= 0.5 {
		t.Errorf("shifted string scored %v, expected below 0.5", got)
	}
}

func defaultCatalog(t *testing.T) []fields.Descriptor {
	t.Helper()
	return fields.DefaultFields()
}

func TestAutoMatchExactHeaders(t *testing.T) {
	headers := []string{"Domain", "Traffic", "First Name", "Last Name", "Email", "Notes"}
	mapping := AutoMatch(headers, defaultCatalog(t))

	want := map[string]string{
		"domain":    "Domain",
		"traffic":   "Traffic",
		"firstName": "First Name",
		"lastName":  "Last Name",
		"email":     "Email",
		"notes":     "Notes",
	}
	for fieldID, header := range want {
		if mapping[fieldID] != header {
			t.Errorf("mapping[%q] = %q, want %q", fieldID, mapping[fieldID], header)
		}
	}
}

func TestAutoMatchCaseAndMarkerInsensitive(t *testing.T) {
	mapping := AutoMatch([]string{"DOMAIN*", "traffic"}, defaultCatalog(t))
	if mapping["domain"] != "DOMAIN*" {
		t.Errorf("domain mapped to %q, want DOMAIN*", mapping["domain"])
	}
	if mapping["traffic"] != "traffic" {
		t.Errorf("traffic mapped to %q", mapping["traffic"])
	}
}

func TestAutoMatchSynonyms(t *testing.T) {
	headers := []string{"Website", "Monthly Visitors", "E-mail", "Surname", "Phase"}
	mapping := AutoMatch(headers, defaultCatalog(t))

	want := map[string]string{
		"domain":   "Website",
		"traffic":  "Monthly Visitors",
		"email":    "E-mail",
		"lastName": "Surname",
		"stage":    "Phase",
	}
	for fieldID, header := range want {
		if mapping[fieldID] != header {
			t.Errorf("mapping[%q] = %q, want %q", fieldID, mapping[fieldID], header)
		}
	}
}

func TestAutoMatchHeadersClaimedOnce(t *testing.T) {
	mapping := AutoMatch([]string{"Email", "E-mail"}, defaultCatalog(t))

	seen := make(map[string]string)
	for fieldID, header := range mapping {
		if prev, dup := seen[header]; dup {
			t.Fatalf("header %q claimed by both %q and %q", header, prev, fieldID)
		}
		seen[header] = fieldID
	}
	if mapping["email"] == "" {
		t.Error("email field left unmapped")
	}
}

func TestAutoMatchTieGoesToFirstHeader(t *testing.T) {
	// "URL" and "Domain" both score 1.0 for the domain field. The scan keeps
	// the first header to reach the best score, so header order decides.
	mapping := AutoMatch([]string{"URL", "Domain"}, defaultCatalog(t))
	if mapping["domain"] != "URL" {
		t.Errorf("domain mapped to %q, want URL", mapping["domain"])
	}
}

func TestAutoMatchSecondPassLowerBar(t *testing.T) {
	// "additional" is contained within the "additional info" notes synonym,
	// scoring 0.9. A header with no plausible counterpart stays unmapped.
	mapping := AutoMatch([]string{"additional", "zzqx"}, defaultCatalog(t))
	if mapping["notes"] != "additional" {
		t.Errorf("notes mapped to %q, want additional", mapping["notes"])
	}
	for fieldID, header := range mapping {
		if header == "zzqx" {
			t.Errorf("nonsense header mapped to %q", fieldID)
		}
	}
}

func TestAutoMatchUnmappedFieldAbsent(t *testing.T) {
	mapping := AutoMatch([]string{"Domain"}, defaultCatalog(t))
	if _, ok := mapping["email"]; ok {
		t.Error("email should be absent from mapping, not empty")
	}
}
