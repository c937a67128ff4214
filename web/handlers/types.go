package handlers

import (
	"github.com/rolohq/rolo/internal/config"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StatsResponse is the response format for GET /api/stats.
type StatsResponse struct {
	Contacts    int `json:"contacts"`
	Events      int `json:"events"`
	Industries  int `json:"industries"`
	Cards       int `json:"cards"`
	PendingDue  int `json:"pending_due"`
	QuickTagged int `json:"quick_tagged"`
}

// ConfigResponse is the response format for GET /api/config.
// The API token is masked for security.
type ConfigResponse struct {
	Server   ServerConfigResponse   `json:"server"`
	Storage  StorageConfigResponse  `json:"storage"`
	Security SecurityConfigResponse `json:"security"`
	Features FeaturesConfigResponse `json:"features"`
	UserName string                 `json:"user_name"`
}

// ServerConfigResponse contains server settings.
type ServerConfigResponse struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StorageConfigResponse contains storage settings.
type StorageConfigResponse struct {
	Engine   string `json:"engine"`
	DataPath string `json:"data_path"`
}

// SecurityConfigResponse contains security settings with the token masked.
type SecurityConfigResponse struct {
	Mode     string `json:"mode"`
	APIToken string `json:"api_token"` // Masked
}

// FeaturesConfigResponse contains feature flags.
type FeaturesConfigResponse struct {
	WebUI     bool `json:"web_ui"`
	Export    bool `json:"export"`
	WebSocket bool `json:"websocket"`
}

// BulkStatusRequest is the request format for POST /api/contacts/bulk-status.
type BulkStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// BulkStatusResponse is the response format for POST /api/contacts/bulk-status.
type BulkStatusResponse struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// MaskAPIKey masks an API token for safe display.
// Shows first 7 chars and last 4 chars, hides the middle.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) < 8 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// ToConfigResponse converts a config.Config to ConfigResponse with the token masked.
func ToConfigResponse(cfg *config.Config) ConfigResponse {
	return ConfigResponse{
		Server: ServerConfigResponse{
			Host: cfg.Server.Host,
			Port: cfg.Server.Port,
		},
		Storage: StorageConfigResponse{
			Engine:   cfg.Storage.StorageEngine,
			DataPath: cfg.Storage.DataPath,
		},
		Security: SecurityConfigResponse{
			Mode:     cfg.Security.SecurityMode,
			APIToken: MaskAPIKey(cfg.Security.APIToken),
		},
		Features: FeaturesConfigResponse{
			WebUI:     cfg.Features.EnableWebUI,
			Export:    cfg.Features.EnableExport,
			WebSocket: cfg.Features.EnableWebSocket,
		},
		UserName: cfg.User.UserName,
	}
}
