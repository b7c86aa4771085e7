package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSectionsQuotedMarkers(t *testing.T) {
	text := "\"User List\"\r\n" +
		"ID,Name\r\n" +
		"1,Ravi Kumar\r\n" +
		"2,\"4 Saravanan\"\r\n" +
		"\r\n" +
		"\"Attendance Logs\"\r\n" +
		"User ID,Timestamp\r\n" +
		"1,2025-03-10 08:00:00\r\n"

	sections := ParseSections(text)
	require.Len(t, sections, 2)

	users := FindSection(sections, SectionUserList)
	require.NotNil(t, users)
	assert.Equal(t, []string{"ID", "Name"}, users.Header)
	require.Len(t, users.Rows, 2)
	assert.Equal(t, []string{"2", "4 Saravanan"}, users.Rows[1])

	logs := FindSection(sections, SectionAttendanceLogs)
	require.NotNil(t, logs)
	require.Len(t, logs.Rows, 1)
	assert.Equal(t, "2025-03-10 08:00:00", logs.Rows[0][1])
}

func TestParseSectionsBareMarkersAndBlankStop(t *testing.T) {
	text := `Attendance Logs
User ID,Timestamp
1,2025-03-10 08:00:00
2,2025-03-10 08:05:00

this trailing junk is ignored`

	sections := ParseSections(text)
	require.Len(t, sections, 1)
	assert.Len(t, sections[0].Rows, 2)
}

func TestParseSectionsMissingSection(t *testing.T) {
	sections := ParseSections("just,a,plain,csv\n1,2,3,4\n")
	assert.Nil(t, FindSection(sections, SectionAttendanceLogs))
	assert.Nil(t, FindSection(sections, SectionUserList))
}

func TestSplitFieldsQuotedComma(t *testing.T) {
	assert.Equal(t, []string{"1", "Kumar, Ravi", "ok"}, SplitFields(`1,"Kumar, Ravi",ok`))
	assert.Equal(t, []string{"a", "", "c"}, SplitFields("a,,c"))
	assert.Equal(t, []string{"spaced"}, SplitFields(`  "spaced"  `))
}

func TestColumnLookups(t *testing.T) {
	sec := &Section{Header: []string{"ID", "Employee Name", "Device User ID", "Scan Timestamp"}}

	assert.Equal(t, 0, sec.ColumnExact("id"))
	assert.Equal(t, -1, sec.ColumnExact("name"))
	assert.Equal(t, 1, sec.ColumnContains("name"))
	assert.Equal(t, 2, sec.ColumnContains("user id"))
	assert.Equal(t, 3, sec.ColumnContains("timestamp"))
	assert.Equal(t, -1, sec.ColumnContains("missing"))
}

func TestFieldShortRow(t *testing.T) {
	row := []string{"only"}
	assert.Equal(t, "only", Field(row, 0))
	assert.Equal(t, "", Field(row, 5))
	assert.Equal(t, "", Field(row, -1))
}
