// Command rolo-web runs the Rolo web server: contact API, analytics
// dashboard, exports, and the follow-up reminder loop.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rolohq/rolo/internal/backup"
	"github.com/rolohq/rolo/internal/config"
	"github.com/rolohq/rolo/internal/notify"
	"github.com/rolohq/rolo/internal/server"
	"github.com/rolohq/rolo/internal/storage"
	"github.com/rolohq/rolo/internal/storage/postgres"
	"github.com/rolohq/rolo/internal/storage/sqlite"
	"github.com/rolohq/rolo/pkg/types"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional, uses env vars by default)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfigFile(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, cardStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Follow-up reminder loop (optional)
	var reminder *notify.Reminder
	if cfg.Notify.ReminderEnabled && cfg.Notify.ReminderWebhook != "" {
		interval, err := time.ParseDuration(cfg.Notify.ReminderInterval)
		if err != nil {
			log.Printf("Invalid reminder interval %q, using 1h", cfg.Notify.ReminderInterval)
			interval = time.Hour
		}
		reminder = notify.NewReminder(store, cfg.Notify.ReminderWebhook, interval)
		go reminder.Run(ctx)
		log.Printf("Follow-up reminders enabled (every %s)", interval)
	}

	// Periodic database backups (sqlite only, optional)
	var backupSvc *backup.Service
	if cfg.Backup.Enabled && cfg.Storage.StorageEngine != "postgres" {
		interval, err := time.ParseDuration(cfg.Backup.Interval)
		if err != nil {
			log.Printf("Invalid backup interval %q, using 1h", cfg.Backup.Interval)
			interval = time.Hour
		}
		dir := cfg.Backup.Dir
		if dir == "" {
			dir = cfg.Storage.DataPath + "/backups"
		}
		backupSvc, err = backup.NewService(backup.Options{
			DBPath:   cfg.Storage.DataPath + "/rolo.db",
			Dir:      dir,
			Interval: interval,
			Verify:   cfg.Backup.Verify,
		})
		if err != nil {
			log.Fatalf("Failed to initialize backups: %v", err)
		}
		go backupSvc.Run(ctx)
	}

	addr, hub := server.Start(ctx, cfg, store, cardStore, backupSvc)
	log.Printf("Rolo Web UI running at http://%s", addr)

	// Inbox watcher imports dropped contact files and pushes a change event
	// so open dashboards refresh (optional)
	if cfg.Notify.InboxEnabled {
		watcher := notify.NewInboxWatcher(cfg.Storage.DataPath, store, func(c *types.Contact) {
			hub.BroadcastChange("contact.created", c.ID)
		})
		if err := watcher.Start(); err != nil {
			log.Fatalf("Failed to start inbox watcher: %v", err)
		}
		defer watcher.Stop()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	if reminder != nil {
		reminder.Wait()
	}
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// openStore builds the contact store named by the config. The SQLite store
// doubles as the card store; Postgres deployments run without card variants
// until the cards table lands there.
func openStore(cfg *config.Config) (storage.ContactStore, storage.CardStore, error) {
	switch cfg.Storage.StorageEngine {
	case "postgres":
		store, err := postgres.NewContactStore(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		store, err := sqlite.NewContactStore(cfg.Storage.DataPath + "/rolo.db")
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
}
