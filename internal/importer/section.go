package importer

import (
	"strings"
)

// Section marker titles as they appear in vendor biometric exports. A marker
// line contains the title (bare or quoted) on its own line; the line right
// after it is the section's header row.
const (
	SectionUserList       = "User List"
	SectionAttendanceLogs = "Attendance Logs"
)

var sectionMarkers = []string{SectionUserList, SectionAttendanceLogs}

// Section is one named block of the uploaded file: a header row and the data
// rows that follow it, up to a blank line or the next marker.
type Section struct {
	Name   string
	Header []string
	Rows   [][]string
}

// ParseSections lexes the raw file text into its named sections. Unknown
// content outside a section is ignored.
func ParseSections(text string) []Section {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	// First pass: locate the marker lines.
	type marker struct {
		name string
		line int
	}
	var markers []marker
	for i, line := range lines {
		if line == "" {
			continue
		}
		for _, name := range sectionMarkers {
			if strings.Contains(line, name) {
				markers = append(markers, marker{name: name, line: i})
				break
			}
		}
	}

	// Second pass: carve out header and rows per marker.
	var sections []Section
	for mi, m := range markers {
		end := len(lines)
		if mi+1 < len(markers) {
			end = markers[mi+1].line
		}
		if m.line+1 >= end {
			continue
		}

		sec := Section{
			Name:   m.name,
			Header: SplitFields(lines[m.line+1]),
		}
		for i := m.line + 2; i < end; i++ {
			if lines[i] == "" {
				break
			}
			sec.Rows = append(sec.Rows, SplitFields(lines[i]))
		}
		sections = append(sections, sec)
	}
	return sections
}

// FindSection returns the first section with the given name, or nil.
func FindSection(sections []Section, name string) *Section {
	for i := range sections {
		if sections[i].Name == name {
			return &sections[i]
		}
	}
	return nil
}

// SplitFields tokenizes one CSV line. A comma separates fields only outside
// quotes; each field is trimmed and loses one surrounding literal quote.
func SplitFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ',' && !inQuotes:
			fields = append(fields, cleanField(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, cleanField(cur.String()))
	return fields
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSpace(s)
}

// ColumnExact resolves a header index by case-insensitive equality.
func (s *Section) ColumnExact(name string) int {
	for i, h := range s.Header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// ColumnContains resolves a header index by case-insensitive substring match.
func (s *Section) ColumnContains(sub string) int {
	sub = strings.ToLower(sub)
	for i, h := range s.Header {
		if strings.Contains(strings.ToLower(h), sub) {
			return i
		}
	}
	return -1
}

// Field returns the trimmed cell at idx, or "" when the row is short.
func Field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
