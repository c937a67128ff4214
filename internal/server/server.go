// Package server provides HTTP server initialization and lifecycle management
// for the Rolo Web UI.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rolohq/rolo/internal/backup"
	"github.com/rolohq/rolo/internal/config"
	"github.com/rolohq/rolo/internal/storage"
	"github.com/rolohq/rolo/web/handlers"
)

// dbGetter interface for stores that expose their database connection
type dbGetter interface {
	GetDB() *sql.DB
}

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server.
// Returns the actual address being listened on (useful for testing with port 0)
// and the WebSocketHub for wiring change-event broadcasts. cardStore may be
// nil when the contact store does not also serve card variants; backupSvc may
// be nil when backups are disabled.
func Start(ctx context.Context, cfg *config.Config, store storage.ContactStore, cardStore storage.CardStore, backupSvc *backup.Service) (string, *handlers.WebSocketHub) {
	mux := http.NewServeMux()

	// WebSocket hub broadcasts contact/card changes to connected dashboards
	origin := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	wsHub := handlers.NewWebSocketHub([]string{origin, "localhost:" + portOf(origin)})

	rateLimiter := handlers.NewRateLimiter(
		float64(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)

	// Settings persistence needs the raw connection; non-SQL stores just skip it
	var db *sql.DB
	if dbStore, ok := store.(dbGetter); ok {
		db = dbStore.GetDB()
	}

	contactHandlers := handlers.NewContactHandlers(store, cfg)
	contactHandlers.SetHub(wsHub)

	statsHandler := handlers.NewStatsHandler(store)
	eventsHandler := handlers.NewEventsHandler(store)
	activityHandler := handlers.NewActivityHandler(store)
	exportHandlers := handlers.NewExportHandlers(store)
	settingsHandlers := handlers.NewSettingsHandlers(cfg, db)

	analyticsHandler, err := handlers.NewAnalyticsHandler(store)
	if err != nil {
		log.Fatalf("Failed to build analytics handler: %v", err)
	}

	var cardHandlers *handlers.CardHandlers
	if cardStore != nil {
		cardHandlers = handlers.NewCardHandlers(cardStore)
		cardHandlers.SetHub(wsHub)
	}

	// API routes (require auth in production mode)
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/contacts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			contactHandlers.ListContacts(w, r)
		case http.MethodPost:
			contactHandlers.CreateContact(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/contacts/bulk-status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			contactHandlers.BulkUpdateStatus(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			contactHandlers.GetContact(w, r)
		case http.MethodPut, http.MethodPatch:
			contactHandlers.UpdateContact(w, r)
		case http.MethodDelete:
			contactHandlers.DeleteContact(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	if cardHandlers != nil {
		apiMux.HandleFunc("/api/cards", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cardHandlers.ListCards(w, r)
			case http.MethodPost:
				cardHandlers.CreateCard(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
		apiMux.HandleFunc("/api/cards/{id}", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cardHandlers.GetCard(w, r)
			case http.MethodPut, http.MethodPatch:
				cardHandlers.UpdateCard(w, r)
			case http.MethodDelete:
				cardHandlers.DeleteCard(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
	}

	apiMux.HandleFunc("/api/stats", statsHandler.GetStats)
	apiMux.HandleFunc("/api/events", eventsHandler.GetEvents)
	apiMux.HandleFunc("/api/analytics", analyticsHandler.GetAnalytics)
	apiMux.HandleFunc("/api/followups", analyticsHandler.GetFollowUps)
	apiMux.HandleFunc("/api/activity", activityHandler.GetActivity)

	apiMux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			settingsHandlers.GetConfig(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			settingsHandlers.UpdateSettings(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	if backupSvc != nil {
		backupHandlers := handlers.NewBackupHandlers(backupSvc)
		apiMux.HandleFunc("/api/backup", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				backupHandlers.GetStatus(w, r)
			} else {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
		apiMux.HandleFunc("/api/backup/run", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				backupHandlers.RunBackup(w, r)
			} else {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
	}

	if cfg.Features.EnableExport {
		apiMux.HandleFunc("/api/export/csv", exportHandlers.ExportCSV)
		apiMux.HandleFunc("/api/export/vcard", exportHandlers.ExportVCard)
	}

	// Health endpoint, no auth required, used by monitoring
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})

	// Wrap API routes with auth middleware
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint (no auth required - origin validation handles security)
	if cfg.Features.EnableWebSocket {
		mux.Handle("/ws", wsHub)
	}

	// Web UI (static assets plus the single-page dashboard)
	if cfg.Features.EnableWebUI {
		basePath := findBasePath()

		fs := http.FileServer(http.Dir(basePath + "/web/static"))
		mux.Handle("/static/", http.StripPrefix("/static/", fs))

		indexPath := basePath + "/web/templates/index.html"
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			http.ServeFile(w, r, indexPath)
		})
	}

	// Wrap entire server with rate limiting, then security headers
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	// Create server with security timeouts
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub
}

// portOf extracts the port from a host:port string, falling back to the
// string itself when no colon is present.
func portOf(hostPort string) string {
	_, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return hostPort
	}
	return port
}

// findBasePath returns the base path for the project.
// When running from cmd/rolo-web, we need to go up two directories.
// When running tests, we may already be in the project root.
func findBasePath() string {
	if _, err := os.Stat("web/templates/index.html"); err == nil {
		return "."
	}
	if _, err := os.Stat("../web/templates/index.html"); err == nil {
		return ".."
	}
	if _, err := os.Stat("../../web/templates/index.html"); err == nil {
		return "../.."
	}
	return "."
}
