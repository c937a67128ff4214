package notify

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/rolohq/rolo/internal/storage"
	"github.com/rolohq/rolo/pkg/types"
)

// InboxWatcher watches {dataPath}/inbox/ for dropped contact files and
// imports them into the store. Each file holds a single JSON-encoded contact;
// consumed files are removed whether or not they parsed.
type InboxWatcher struct {
	dir      string
	store    storage.ContactStore
	onImport func(c *types.Contact)
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewInboxWatcher creates a watcher for {dataPath}/inbox/. onImport is
// invoked after each successful import and may be nil.
func NewInboxWatcher(dataPath string, store storage.ContactStore, onImport func(c *types.Contact)) *InboxWatcher {
	return &InboxWatcher{
		dir:      filepath.Join(dataPath, "inbox"),
		store:    store,
		onImport: onImport,
		done:     make(chan struct{}),
	}
}

// Start begins watching. It drains any existing inbox files first,
// then watches for new ones. Call Stop() to clean up.
func (iw *InboxWatcher) Start() error {
	if err := os.MkdirAll(iw.dir, 0o700); err != nil {
		return err
	}

	iw.drainExisting()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(iw.dir); err != nil {
		_ = w.Close()
		return err
	}
	iw.watcher = w

	go iw.loop()
	log.Printf("notify: watching %s for dropped contacts", iw.dir)
	return nil
}

// Stop shuts down the watcher.
func (iw *InboxWatcher) Stop() {
	if iw.watcher != nil {
		_ = iw.watcher.Close()
	}
	<-iw.done
}

func (iw *InboxWatcher) loop() {
	defer close(iw.done)
	for {
		select {
		case evt, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&fsnotify.Create != 0 && strings.HasSuffix(evt.Name, ".json") {
				iw.processFile(evt.Name)
			}
		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("notify: watcher error: %v", err)
		}
	}
}

func (iw *InboxWatcher) drainExisting() {
	entries, err := os.ReadDir(iw.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			iw.processFile(filepath.Join(iw.dir, entry.Name()))
		}
	}
}

func (iw *InboxWatcher) processFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // file already consumed by another process
	}
	_ = os.Remove(path)

	var contact types.Contact
	if err := json.Unmarshal(data, &contact); err != nil {
		log.Printf("notify: invalid contact file %s: %v", filepath.Base(path), err)
		return
	}

	now := time.Now()
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	if contact.TaggedAt.IsZero() {
		contact.TaggedAt = now
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = now

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := iw.store.Store(ctx, &contact); err != nil {
		log.Printf("notify: failed to import contact from %s: %v", filepath.Base(path), err)
		return
	}

	log.Printf("notify: imported contact %s from inbox", contact.ID)
	if iw.onImport != nil {
		iw.onImport(&contact)
	}
}
