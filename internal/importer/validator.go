package importer

import (
	"fmt"
	"strings"

	"github.com/ignite/affiliate-crm/internal/domain"
)

// ContactDraft holds the contact columns extracted from one row. Nothing is
// enforced on contact fields during import.
type ContactDraft struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

// PlacementDraft holds the placement columns extracted from one row.
type PlacementDraft struct {
	Title  string                 `json:"title"`
	Type   string                 `json:"type"`
	URL    string                 `json:"url"`
	Status domain.PlacementStatus `json:"status"`
}

const emptyRowError = "Empty row"

// ValidatedRecord is the outcome of validating one data row. Records with
// IsValid true and no duplicate flag go on to the transformer; everything
// else only carries its errors to the preview.
type ValidatedRecord struct {
	IsValid    bool             `json:"is_valid"`
	Errors     []string         `json:"errors"`
	Domain     string           `json:"domain"`
	Traffic    string           `json:"traffic,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	Placements []PlacementDraft `json:"placements,omitempty"`
	Contact    ContactDraft     `json:"contact"`
}

// mappedValue resolves a field's cell in one row: look up the mapped header,
// find its column by case-insensitive trimmed name match, and return the
// trimmed cell. Absent mapping, column or cell all yield the empty string.
func mappedValue(grid *RawGrid, mapping Mapping, fieldID string, row []string) string {
	header, ok := mapping[fieldID]
	if !ok || header == "" {
		return ""
	}

	want := strings.ToLower(strings.TrimSpace(header))
	col := -1
	for i, h := range grid.Headers {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			col = i
			break
		}
	}
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// BuildDuplicateIndex scans the whole batch once and records, per normalized
// domain, one error string for every offending occurrence: repeats within
// the CSV and collisions with domains already in the store. Row numbers are
// 1-based data row positions.
func BuildDuplicateIndex(grid *RawGrid, mapping Mapping, existingDomains map[string]bool) map[string][]string {
	index := make(map[string][]string)
	seen := make(map[string]bool)

	for i, row := range grid.Rows {
		value := mappedValue(grid, mapping, "domain", row)
		if value == "" {
			continue
		}
		normalized := domain.Normalize(value)
		if normalized == "" {
			continue
		}

		if seen[normalized] {
			index[normalized] = append(index[normalized], fmt.Sprintf("Row %d: Duplicate domain within CSV", i+1))
		}
		seen[normalized] = true

		if existingDomains[normalized] {
			index[normalized] = append(index[normalized], fmt.Sprintf("Row %d: Domain already exists in database", i+1))
		}
	}
	return index
}

// ValidateBatch applies the confirmed mapping to every data row. The
// duplicate index is built once up front; rows whose normalized domain
// appears in it pick up every error recorded for that domain and are
// flagged invalid.
func ValidateBatch(grid *RawGrid, mapping Mapping, existingDomains map[string]bool) []ValidatedRecord {
	index := BuildDuplicateIndex(grid, mapping, existingDomains)

	records := make([]ValidatedRecord, 0, len(grid.Rows))
	for _, row := range grid.Rows {
		rec := validateRow(grid, mapping, row)

		if normalized := domain.Normalize(rec.Domain); normalized != "" {
			if dupErrors, ok := index[normalized]; ok {
				rec.IsValid = false
				rec.Errors = append(rec.Errors, dupErrors...)
			}
		}
		records = append(records, rec)
	}
	return records
}

func validateRow(grid *RawGrid, mapping Mapping, row []string) ValidatedRecord {
	empty := true
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			empty = false
			break
		}
	}
	if empty {
		return ValidatedRecord{Errors: []string{emptyRowError}}
	}

	rec := ValidatedRecord{Errors: []string{}}

	rec.Domain = domain.CleanDomain(mappedValue(grid, mapping, "domain", row))
	if rec.Domain == "" {
		rec.Errors = append(rec.Errors, `Missing required field "Domain"`)
	}

	// Traffic stays an opaque string here; it is parsed at transform time
	rec.Traffic = mappedValue(grid, mapping, "traffic", row)
	rec.Notes = mappedValue(grid, mapping, "notes", row)

	title := mappedValue(grid, mapping, "title", row)
	ptype := mappedValue(grid, mapping, "type", row)
	url := mappedValue(grid, mapping, "url", row)
	if title != "" || ptype != "" || url != "" {
		rec.Placements = []PlacementDraft{{
			Title:  title,
			Type:   ptype,
			URL:    url,
			Status: domain.PlacementActive,
		}}
	}

	rec.Contact = ContactDraft{
		FirstName: mappedValue(grid, mapping, "firstName", row),
		LastName:  mappedValue(grid, mapping, "lastName", row),
		Email:     mappedValue(grid, mapping, "email", row),
		Phone:     mappedValue(grid, mapping, "phone", row),
		Role:      mappedValue(grid, mapping, "role", row),
	}

	rec.IsValid = len(rec.Errors) == 0
	return rec
}

// IsEmptyRow reports whether the record came from an all-blank CSV line.
// Empty rows keep their slot in the batch so row numbering stays stable,
// but they never count toward totals and never block a commit.
func (r ValidatedRecord) IsEmptyRow() bool {
	return len(r.Errors) == 1 && r.Errors[0] == emptyRowError
}

// CountValid returns how many records passed validation.
func CountValid(records []ValidatedRecord) int {
	n := 0
	for _, r := range records {
		if r.IsValid {
			n++
		}
	}
	return n
}

// CountErrors returns how many records failed validation, blank lines
// excepted.
func CountErrors(records []ValidatedRecord) int {
	n := 0
	for _, r := range records {
		if !r.IsValid && !r.IsEmptyRow() {
			n++
		}
	}
	return n
}

// CountDataRows returns how many records came from non-blank lines.
func CountDataRows(records []ValidatedRecord) int {
	n := 0
	for _, r := range records {
		if !r.IsEmptyRow() {
			n++
		}
	}
	return n
}
