package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rolohq/rolo/internal/export"
	"github.com/rolohq/rolo/internal/storage"
)

// ExportHandlers serves the contact list as downloadable CSV or vCard files.
type ExportHandlers struct {
	store storage.ContactStore
}

// NewExportHandlers creates a new ExportHandlers instance.
func NewExportHandlers(store storage.ContactStore) *ExportHandlers {
	return &ExportHandlers{store: store}
}

// ExportCSV handles GET /api/export/csv.
func (h *ExportHandlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.store.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list contacts", err)
		return
	}

	filename := fmt.Sprintf("rolo-contacts-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := export.WriteCSV(w, contacts); err != nil {
		// Headers already sent; nothing useful left to tell the client
		return
	}
}

// ExportVCard handles GET /api/export/vcard.
func (h *ExportHandlers) ExportVCard(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.store.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list contacts", err)
		return
	}

	filename := fmt.Sprintf("rolo-contacts-%s.vcf", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := export.WriteVCards(w, contacts); err != nil {
		return
	}
}
