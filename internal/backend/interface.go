package backend

import (
	"context"

	"spesecli/internal/sheets"
	"spesecli/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StoreResult contains the session store backend and its cleanup function.
type StoreResult struct {
	Store   storage.KV
	Cleanup CleanupFunc
}

// ExporterResult contains the report exporter selected by configuration.
type ExporterResult struct {
	Exporter sheets.ReportExporter
	// Remote is false when reports are only kept in memory.
	Remote  bool
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreateExporter(ctx context.Context, config Config) (*ExporterResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SessionDBPath string

	// Google Sheets export, skipped when GoogleSpreadsheetID is empty
	GoogleSpreadsheetID      string
	GoogleReportSheetName    string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenJSON     string
}

// BackendType represents the type of session storage backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
