package importer

import "strings"

// ParseError reports a file that could not be read as minimal CSV.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }

// RawGrid is the tokenized form of one uploaded file: the header row plus
// every data row. It lives only for the duration of an import session.
type RawGrid struct {
	Headers []string
	Rows    [][]string
}

// TotalRows returns the number of data rows.
func (g *RawGrid) TotalRows() int { return len(g.Rows) }

// Tokenize parses raw CSV text into a grid of trimmed cells. Blank lines are
// discarded before parsing; a file with fewer than two non-blank lines (no
// header or no data) fails with a ParseError.
func Tokenize(text string) (*RawGrid, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) < 2 {
		return nil, &ParseError{Message: "CSV must contain at least a header row and one data row"}
	}

	grid := &RawGrid{
		Headers: tokenizeLine(lines[0]),
		Rows:    make([][]string, 0, len(lines)-1),
	}
	for _, line := range lines[1:] {
		grid.Rows = append(grid.Rows, tokenizeLine(line))
	}
	return grid, nil
}

// tokenizeLine scans one line character by character. A quote toggles quoted
// state unless doubled inside a quoted field, which decodes to a literal
// quote. Commas split fields only outside quotes.
func tokenizeLine(line string) []string {
	var values []string
	var current strings.Builder
	insideQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if insideQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++ // skip the second quote
			} else {
				insideQuotes = !insideQuotes
			}
		case ch == ',' && !insideQuotes:
			values = append(values, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	values = append(values, strings.TrimSpace(current.String()))

	// Strip quotes still wrapping a whole value
	for i, v := range values {
		if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
			values[i] = strings.TrimSpace(v[1 : len(v)-1])
		}
	}
	return values
}

// EncodeCSV renders a grid back to CSV text, quoting cells that contain
// commas or quotes. Used for the downloadable template and in round-trip tests.
func EncodeCSV(rows [][]string) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(encodeCell(cell))
		}
	}
	return b.String()
}

func encodeCell(cell string) string {
	if strings.ContainsAny(cell, `",`) {
		return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
	}
	return cell
}
