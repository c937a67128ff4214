package analytics

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rolohq/rolo/pkg/types"
)

// defaultCacheSize bounds the number of snapshots retained. Snapshots are keyed
// by content, so only a handful of entries are ever live at once; the bound
// exists to drop entries from superseded contact-list versions.
const defaultCacheSize = 16

// SnapshotCache memoizes analytics snapshots keyed by the content fingerprint
// of the input contact list, not by slice identity: recomputation happens only
// when the list's content actually changes (or the calendar day rolls over,
// since several sub-series are anchored to today).
type SnapshotCache struct {
	cache *lru.Cache[string, *Snapshot]
}

// NewSnapshotCache creates a snapshot cache with the default capacity.
func NewSnapshotCache() (*SnapshotCache, error) {
	cache, err := lru.New[string, *Snapshot](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("analytics: failed to create snapshot cache: %w", err)
	}
	return &SnapshotCache{cache: cache}, nil
}

// Snapshot returns the analytics snapshot for the given contact list,
// computing it on a cache miss. Passing the same content twice returns the
// identical cached snapshot.
func (c *SnapshotCache) Snapshot(contacts []types.Contact, now time.Time) *Snapshot {
	key := Fingerprint(contacts) + "@" + now.Format("2006-01-02")

	if snap, ok := c.cache.Get(key); ok {
		return snap
	}

	snap := BuildSnapshot(contacts, now)
	c.cache.Add(key, snap)
	return snap
}

// Len returns the number of cached snapshots. Used by tests and the stats
// endpoint.
func (c *SnapshotCache) Len() int {
	return c.cache.Len()
}

// Fingerprint computes a stable SHA-256 content hash of a contact list.
// Two lists with equal content produce equal fingerprints regardless of
// slice identity.
func Fingerprint(contacts []types.Contact) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for i := range contacts {
		// Encoding cannot fail for a plain struct; ignore the error to keep
		// the fingerprint total over its input.
		_ = enc.Encode(&contacts[i])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
