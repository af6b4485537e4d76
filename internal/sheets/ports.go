package sheets

import (
	"context"

	"spesecli/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportExporter writes a fetched monthly report somewhere outside the
	// API, one row per category plus a total row.
	ReportExporter interface {
		Export(ctx context.Context, r core.MonthlyReport) (rowRef string, err error)
	}
)
