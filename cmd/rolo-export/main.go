// Command rolo-export writes the contact list to CSV or vCard without
// going through the web server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/rolohq/rolo/internal/config"
	"github.com/rolohq/rolo/internal/export"
	"github.com/rolohq/rolo/internal/storage"
	"github.com/rolohq/rolo/internal/storage/sqlite"
	"github.com/rolohq/rolo/pkg/types"
)

var (
	dbPath = flag.String("db", "", "Path to database file (overrides config)")
	format = flag.String("format", "csv", "Export format: csv or vcard")
	out    = flag.String("out", "", "Output file path (default: stdout)")
	event  = flag.String("event", "", "Only export contacts tagged at this event")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dbPathFinal := cfg.Storage.DataPath + "/rolo.db"
	if *dbPath != "" {
		dbPathFinal = *dbPath
	}

	store, err := sqlite.NewContactStore(dbPathFinal)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	contacts, err := loadContacts(ctx, store, *event)
	if err != nil {
		log.Fatalf("Failed to load contacts: %v", err)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		w = f
	}

	switch *format {
	case "csv":
		err = export.WriteCSV(w, contacts)
	case "vcard":
		err = export.WriteVCards(w, contacts)
	default:
		log.Fatalf("Unknown format %q (want csv or vcard)", *format)
	}
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	if *out != "" {
		fmt.Fprintf(os.Stderr, "Exported %d contacts to %s\n", len(contacts), *out)
	}
}

// loadContacts fetches every contact, optionally restricted to one event.
func loadContacts(ctx context.Context, store storage.ContactStore, event string) ([]types.Contact, error) {
	contacts, err := store.All(ctx)
	if err != nil {
		return nil, err
	}
	if event == "" {
		return contacts, nil
	}

	filtered := contacts[:0]
	for _, c := range contacts {
		if c.EventName() == event {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}
