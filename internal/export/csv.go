// Package export renders the contact list as downloadable CSV and vCard
// documents. Both formats are pure functions of the contact snapshot.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rolohq/rolo/pkg/types"
)

// csvHeader is the fixed column order of the CSV export.
var csvHeader = []string{
	"Name", "Event", "Industry", "Email", "Phone", "Company",
	"Interests", "Notes", "Tagged Date",
}

// WriteCSV writes the full contact list as CSV, one row per contact.
// Quoting and escaping follow encoding/csv defaults.
func WriteCSV(w io.Writer, contacts []types.Contact) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("export: failed to write CSV header: %w", err)
	}

	for i := range contacts {
		c := &contacts[i]
		row := []string{
			c.Name,
			c.Event,
			c.Industry,
			c.Email,
			c.Phone,
			c.Company,
			strings.Join(c.Interests, ", "),
			c.Notes,
			c.TaggedAt.Format("Jan 2, 2006"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: failed to flush CSV: %w", err)
	}

	return nil
}
