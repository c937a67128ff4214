package handlers

import (
	"net/http"

	"github.com/rolohq/rolo/internal/backup"
)

// BackupHandlers exposes backup status and on-demand snapshots.
type BackupHandlers struct {
	svc *backup.Service
}

func NewBackupHandlers(svc *backup.Service) *BackupHandlers {
	return &BackupHandlers{svc: svc}
}

// GetStatus handles GET /api/backup
func (h *BackupHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Health()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read backup status", err)
		return
	}

	snapshots, err := h.svc.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list snapshots", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"snapshots": snapshots,
	})
}

// RunBackup handles POST /api/backup/run
func (h *BackupHandlers) RunBackup(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.SnapshotNow(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "backup failed", err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}
