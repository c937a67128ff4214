package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/rolohq/rolo/pkg/types"
)

// WriteVCards writes one vCard 3.0 record per contact. The tagging context
// (event and notes) is folded into the NOTE field since vCard has no native
// slot for it.
func WriteVCards(w io.Writer, contacts []types.Contact) error {
	var b strings.Builder

	for i := range contacts {
		c := &contacts[i]

		b.Reset()
		b.WriteString("BEGIN:VCARD\r\n")
		b.WriteString("VERSION:3.0\r\n")
		b.WriteString("FN:" + escapeVCard(c.Name) + "\r\n")
		b.WriteString("N:" + escapeVCard(c.Name) + ";;;;\r\n")

		if c.Email != "" {
			b.WriteString("EMAIL:" + escapeVCard(c.Email) + "\r\n")
		}
		if c.Phone != "" {
			b.WriteString("TEL:" + escapeVCard(c.Phone) + "\r\n")
		}
		if c.Company != "" {
			b.WriteString("ORG:" + escapeVCard(c.Company) + "\r\n")
		}
		if c.Title != "" {
			b.WriteString("TITLE:" + escapeVCard(c.Title) + "\r\n")
		}
		if c.Industry != "" {
			b.WriteString("CATEGORIES:" + escapeVCard(c.Industry) + "\r\n")
		}

		if note := buildNote(c); note != "" {
			b.WriteString("NOTE:" + escapeVCard(note) + "\r\n")
		}

		b.WriteString("END:VCARD\r\n")

		if _, err := io.WriteString(w, b.String()); err != nil {
			return fmt.Errorf("export: failed to write vCard: %w", err)
		}
	}

	return nil
}

// buildNote folds the event label and free-form notes into a single NOTE value.
func buildNote(c *types.Contact) string {
	var parts []string
	if c.Event != "" {
		parts = append(parts, "Met at "+c.Event)
	}
	if c.Notes != "" {
		parts = append(parts, c.Notes)
	}
	return strings.Join(parts, ". ")
}

// escapeVCard escapes the characters vCard 3.0 treats specially.
var vcardEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\n", "\\n",
	",", "\\,",
	";", "\\;",
)

func escapeVCard(s string) string {
	return vcardEscaper.Replace(s)
}
