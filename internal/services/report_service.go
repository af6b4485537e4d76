package services

import (
	"context"
	"fmt"

	"spesecli/internal/core"
)

const DefaultRecentReports = 3

// ReportService wraps the /reports endpoints. Reports are computed by the
// server; the client only asks for them.
type ReportService struct {
	api API
}

func NewReportService(api API) *ReportService {
	return &ReportService{api: api}
}

type generateRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Generate asks the server to (re)build the report for p.
func (s *ReportService) Generate(ctx context.Context, p core.Period) (core.MonthlyReport, error) {
	if err := p.Validate(); err != nil {
		return core.MonthlyReport{}, err
	}
	var out core.MonthlyReport
	if err := s.api.Post(ctx, "/reports/generate", generateRequest{Year: p.Year, Month: p.Month}, &out); err != nil {
		return core.MonthlyReport{}, fmt.Errorf("generate report %s: %w", p, err)
	}
	return out, nil
}

// GenerateCurrent builds the report for the server's current month.
func (s *ReportService) GenerateCurrent(ctx context.Context) (core.MonthlyReport, error) {
	var out core.MonthlyReport
	if err := s.api.Post(ctx, "/reports/generate-current", nil, &out); err != nil {
		return core.MonthlyReport{}, fmt.Errorf("generate current report: %w", err)
	}
	return out, nil
}

func (s *ReportService) Get(ctx context.Context, p core.Period) (core.MonthlyReport, error) {
	if err := p.Validate(); err != nil {
		return core.MonthlyReport{}, err
	}
	var out core.MonthlyReport
	path := fmt.Sprintf("/reports/%d/%d", p.Year, p.Month)
	if err := s.api.Get(ctx, path, nil, &out); err != nil {
		return core.MonthlyReport{}, fmt.Errorf("get report %s: %w", p, err)
	}
	return out, nil
}

// Recent returns the last count reports; count <= 0 means DefaultRecentReports.
func (s *ReportService) Recent(ctx context.Context, count int) ([]core.MonthlyReport, error) {
	if count <= 0 {
		count = DefaultRecentReports
	}
	var out []core.MonthlyReport
	if err := s.api.Get(ctx, fmt.Sprintf("/reports/recent/%d", count), nil, &out); err != nil {
		return nil, fmt.Errorf("recent reports: %w", err)
	}
	return out, nil
}
