package backend

import (
	"context"
	"fmt"

	"spesecli/internal/log"
	gsheet "spesecli/internal/sheets/google"
	sheetmem "spesecli/internal/sheets/memory"
	"spesecli/internal/storage"
	kvmem "spesecli/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateStore opens the session storage selected by config.Type.
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(config.SessionDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite session store", "db_path", config.SessionDBPath)
		return &StoreResult{Store: store, Cleanup: store.Close}, nil
	case MemoryBackend:
		store := kvmem.New()
		f.logger.InfoContext(ctx, "Initialized memory session store, sessions will not survive restarts")
		return &StoreResult{Store: store, Cleanup: store.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateExporter returns the Google Sheets exporter when a spreadsheet is
// configured and an in-memory exporter otherwise.
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (*ExporterResult, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.DebugContext(ctx, "No spreadsheet configured, reports are exported in memory only")
		return &ExporterResult{Exporter: sheetmem.New()}, nil
	}

	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleReportSheetName,
		ServiceAccountFile: config.GoogleServiceAccountFile,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		OAuthClientFile:    config.GoogleOAuthClientFile,
		OAuthClientJSON:    config.GoogleOAuthClientJSON,
		OAuthTokenFile:     config.GoogleOAuthTokenFile,
		OAuthTokenJSON:     config.GoogleOAuthTokenJSON,
		Logger:             f.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets exporter", "sheet", config.GoogleReportSheetName)
	return &ExporterResult{Exporter: cli, Remote: true}, nil
}
