package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolohq/rolo/pkg/types"
)

func exportContact() types.Contact {
	return types.Contact{
		ID:        "c1",
		Name:      "Ada Lovelace",
		Event:     "GopherCon",
		Industry:  "Tech",
		Email:     "ada@example.com",
		Phone:     "+1 555 0100",
		Company:   "Analytical Engines, Inc.",
		Interests: []string{"compilers", "analytics"},
		Notes:     "Met at the hallway track",
		TaggedAt:  time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteCSV_ColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []types.Contact{exportContact()}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{
		"Name", "Event", "Industry", "Email", "Phone", "Company",
		"Interests", "Notes", "Tagged Date",
	}, records[0])

	assert.Equal(t, []string{
		"Ada Lovelace", "GopherCon", "Tech", "ada@example.com", "+1 555 0100",
		"Analytical Engines, Inc.", "compilers, analytics",
		"Met at the hallway track", "Jun 15, 2025",
	}, records[1])
}

func TestWriteCSV_QuotesCommaFields(t *testing.T) {
	c := exportContact()
	c.Notes = `He said "hello", then left`

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []types.Contact{c}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `He said "hello", then left`, records[1][7],
		"CSV round-trip must preserve commas and quotes")
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1, "header only for an empty contact list")
}

func TestWriteVCards_SingleRecordPerContact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVCards(&buf, []types.Contact{exportContact(), exportContact()}))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VCARD"))
	assert.Equal(t, 2, strings.Count(out, "END:VCARD"))
}

func TestWriteVCards_Fields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVCards(&buf, []types.Contact{exportContact()}))

	out := buf.String()
	assert.Contains(t, out, "FN:Ada Lovelace")
	assert.Contains(t, out, "EMAIL:ada@example.com")
	assert.Contains(t, out, "TEL:+1 555 0100")
	assert.Contains(t, out, `ORG:Analytical Engines\, Inc.`)
	assert.Contains(t, out, "CATEGORIES:Tech")
	assert.Contains(t, out, `NOTE:Met at GopherCon. Met at the hallway track`)
}

func TestWriteVCards_OmitsEmptyFields(t *testing.T) {
	c := types.Contact{Name: "Minimal", TaggedAt: time.Now()}

	var buf bytes.Buffer
	require.NoError(t, WriteVCards(&buf, []types.Contact{c}))

	out := buf.String()
	assert.NotContains(t, out, "EMAIL:")
	assert.NotContains(t, out, "TEL:")
	assert.NotContains(t, out, "ORG:")
	assert.NotContains(t, out, "NOTE:")
}
