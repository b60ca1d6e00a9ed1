package fields

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)
)

// ValidateValue reports whether value is acceptable for a field of type t.
// Text fields accept anything.
func ValidateValue(value string, t FieldType) bool {
	switch t {
	case TypeEmail:
		return emailRe.MatchString(value)
	case TypeURL:
		candidate := value
		if !strings.HasPrefix(candidate, "http") {
			candidate = "https://" + candidate
		}
		u, err := url.Parse(candidate)
		return err == nil && u.Host != ""
	case TypePhone:
		return phoneRe.MatchString(value)
	case TypeNumber, TypeCurrency:
		_, err := strconv.ParseFloat(value, 64)
		return err == nil
	case TypeDate:
		return parseDate(value) != nil
	default:
		return true
	}
}

// FormatValue renders a raw value for display according to the field type.
// Values that fail to parse are returned unchanged.
func FormatValue(value string, t FieldType) string {
	if value == "" {
		return ""
	}
	switch t {
	case TypeCurrency:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return value
		}
		return "$" + groupThousands(strconv.FormatFloat(n, 'f', 2, 64))
	case TypeNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return value
		}
		return groupThousands(strconv.FormatFloat(n, 'f', -1, 64))
	case TypeDate:
		if ts := parseDate(value); ts != nil {
			return ts.Format("1/2/2006")
		}
		return value
	default:
		return value
	}
}

func parseDate(value string) *time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "1/2/2006", "01/02/2006"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return &ts
		}
	}
	return nil
}

// groupThousands inserts commas into the integer part of a decimal string.
func groupThousands(s string) string {
	intPart := s
	frac := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac = s[:dot], s[dot:]
	}
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
