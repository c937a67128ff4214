package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// age tiers for retention, youngest to oldest
const (
	tierHourly = iota
	tierDaily
	tierWeekly
	tierMonthly
	tierExpired
)

func tierOf(age time.Duration) int {
	switch {
	case age < 24*time.Hour:
		return tierHourly
	case age < 7*24*time.Hour:
		return tierDaily
	case age < 30*24*time.Hour:
		return tierWeekly
	case age < 365*24*time.Hour:
		return tierMonthly
	default:
		return tierExpired
	}
}

func (r Retention) limit(tier int) int {
	switch tier {
	case tierHourly:
		return r.Hourly
	case tierDaily:
		return r.Daily
	case tierWeekly:
		return r.Weekly
	case tierMonthly:
		return r.Monthly
	default:
		return 0
	}
}

// listSnapshots returns .db files in dir as snapshots, newest first.
func listSnapshots(dir string) ([]Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read snapshot directory: %w", err)
	}

	var snaps []Snapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snaps = append(snaps, Snapshot{
			Path:    filepath.Join(dir, entry.Name()),
			TakenAt: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].TakenAt.After(snaps[j].TakenAt)
	})
	return snaps, nil
}

// prune deletes snapshots beyond each tier's retention limit. Within a tier
// the newest snapshots survive. Deletion errors are collected so one bad
// file doesn't shield the rest.
func prune(dir string, policy Retention, now time.Time) error {
	snaps, err := listSnapshots(dir)
	if err != nil {
		return err
	}

	counts := make(map[int]int)
	var doomed []string
	for _, snap := range snaps {
		tier := tierOf(now.Sub(snap.TakenAt))
		counts[tier]++
		if tier == tierExpired || counts[tier] > policy.limit(tier) {
			doomed = append(doomed, snap.Path)
		}
	}

	var lastErr error
	for _, path := range doomed {
		if err := os.Remove(path); err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("backup: failed to delete some snapshots: %w", lastErr)
	}
	return nil
}
