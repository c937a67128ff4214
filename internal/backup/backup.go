// Package backup takes periodic snapshots of the contacts database and
// prunes old ones with a tiered retention policy.
package backup

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Options configures a backup Service.
type Options struct {
	DBPath    string        // SQLite database file to snapshot
	Dir       string        // directory snapshots are written to
	Interval  time.Duration // time between automatic snapshots (default 1h)
	Verify    bool          // run an integrity check on each snapshot
	Retention Retention     // how many snapshots to keep per age tier
}

// Retention caps the number of snapshots kept in each age tier.
// Tiers are by snapshot age: under a day, under a week, under a month,
// under a year. Anything older than a year is always pruned.
type Retention struct {
	Hourly  int // snapshots under 24h old (default 24)
	Daily   int // snapshots 1-7 days old (default 7)
	Weekly  int // snapshots 7-30 days old (default 4)
	Monthly int // snapshots 30-365 days old (default 12)
}

// Snapshot describes one backup file on disk.
type Snapshot struct {
	Path     string    `json:"path"`
	TakenAt  time.Time `json:"taken_at"`
	Size     int64     `json:"size"`
	Verified bool      `json:"verified"`
}

// Status reports backup service health for the API.
type Status struct {
	State        string    `json:"state"` // "healthy" or "warning"
	Message      string    `json:"message"`
	LastSnapshot time.Time `json:"last_snapshot,omitzero"`
	Snapshots    int       `json:"snapshots"`
	Dir          string    `json:"dir"`
	BytesUsed    int64     `json:"bytes_used"`
}

// Service snapshots a SQLite database on an interval.
type Service struct {
	opts Options

	mu   sync.Mutex
	last time.Time
}

// NewService validates opts, fills in retention defaults, and creates the
// snapshot directory.
func NewService(opts Options) (*Service, error) {
	if opts.DBPath == "" {
		return nil, fmt.Errorf("backup: database path is required")
	}
	if opts.Dir == "" {
		return nil, fmt.Errorf("backup: snapshot directory is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.Retention.Hourly == 0 {
		opts.Retention.Hourly = 24
	}
	if opts.Retention.Daily == 0 {
		opts.Retention.Daily = 7
	}
	if opts.Retention.Weekly == 0 {
		opts.Retention.Weekly = 4
	}
	if opts.Retention.Monthly == 0 {
		opts.Retention.Monthly = 12
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("backup: failed to create snapshot directory: %w", err)
	}

	return &Service{opts: opts}, nil
}

// Run takes snapshots on the configured interval until ctx is cancelled.
// Snapshot failures are logged, not fatal.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	log.Printf("backup: service started: interval=%v dir=%s", s.opts.Interval, s.opts.Dir)

	for {
		select {
		case <-ctx.Done():
			log.Println("backup: service stopping")
			return
		case <-ticker.C:
			snap, err := s.SnapshotNow(ctx)
			if err != nil {
				log.Printf("backup: snapshot failed: %v", err)
				continue
			}
			log.Printf("backup: snapshot written: path=%s size=%d verified=%v",
				snap.Path, snap.Size, snap.Verified)
		}
	}
}

// SnapshotNow takes an immediate snapshot and applies the retention policy.
func (s *Service) SnapshotNow(ctx context.Context) (*Snapshot, error) {
	if _, err := os.Stat(s.opts.DBPath); err != nil {
		return nil, fmt.Errorf("backup: database not found: %w", err)
	}

	// Microsecond precision keeps names unique across rapid snapshots.
	stamp := time.Now().Format("20060102-150405.000000")
	path := filepath.Join(s.opts.Dir, fmt.Sprintf("rolo-%s.db", stamp))

	if err := vacuumInto(ctx, s.opts.DBPath, path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to stat snapshot: %w", err)
	}

	snap := &Snapshot{Path: path, TakenAt: info.ModTime(), Size: info.Size()}

	if s.opts.Verify {
		if err := checkIntegrity(ctx, path); err != nil {
			return snap, err
		}
		snap.Verified = true
	}

	s.mu.Lock()
	s.last = time.Now()
	s.mu.Unlock()

	if err := prune(s.opts.Dir, s.opts.Retention, time.Now()); err != nil {
		// A full snapshot beats a tidy directory.
		log.Printf("backup: retention pruning failed: %v", err)
	}

	return snap, nil
}

// List returns all snapshots in the directory, newest first.
func (s *Service) List() ([]Snapshot, error) {
	return listSnapshots(s.opts.Dir)
}

// Restore replaces the live database with the given snapshot. The previous
// database is kept as a .pre-restore file until the copy verifies.
func (s *Service) Restore(ctx context.Context, snapshotPath string) error {
	if _, err := os.Stat(snapshotPath); err != nil {
		return fmt.Errorf("backup: snapshot not found: %w", err)
	}

	keep := s.opts.DBPath + ".pre-restore"
	if _, err := os.Stat(s.opts.DBPath); err == nil {
		if err := vacuumInto(ctx, s.opts.DBPath, keep); err != nil {
			return fmt.Errorf("backup: failed to save current database: %w", err)
		}
	}

	if err := copyVerified(ctx, snapshotPath, s.opts.DBPath); err != nil {
		if _, statErr := os.Stat(keep); statErr == nil {
			if rollbackErr := copyVerified(ctx, keep, s.opts.DBPath); rollbackErr != nil {
				return fmt.Errorf("backup: restore and rollback both failed: %v (restore: %w)", rollbackErr, err)
			}
			return fmt.Errorf("backup: restore failed, previous database restored: %w", err)
		}
		return err
	}

	os.Remove(keep)
	log.Printf("backup: database restored from %s", snapshotPath)
	return nil
}

// Health reports current service status. The state degrades to "warning"
// when the last snapshot is more than two intervals old.
func (s *Service) Health() (*Status, error) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	snaps, err := listSnapshots(s.opts.Dir)
	if err != nil {
		return nil, err
	}

	var used int64
	for _, snap := range snaps {
		used += snap.Size
	}

	st := &Status{
		State:        "healthy",
		LastSnapshot: last,
		Snapshots:    len(snaps),
		Dir:          s.opts.Dir,
		BytesUsed:    used,
	}

	switch {
	case last.IsZero():
		st.Message = "no snapshots yet"
	case time.Since(last) > 2*s.opts.Interval:
		st.State = "warning"
		st.Message = fmt.Sprintf("snapshot overdue by %v", (time.Since(last) - s.opts.Interval).Round(time.Second))
	default:
		st.Message = fmt.Sprintf("last snapshot %v ago", time.Since(last).Round(time.Minute))
	}

	return st, nil
}
