package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"spesecli/internal/core"
)

// Store keeps exported reports in memory. It backs the export command when no
// spreadsheet is configured and doubles as a test fake.
type Store struct {
	mu    sync.Mutex
	items []core.MonthlyReport
}

func New() *Store {
	return &Store{}
}

// Export stores the report and returns a synthetic row reference.
func (s *Store) Export(_ context.Context, r core.MonthlyReport) (string, error) {
	if err := r.Period().Validate(); err != nil {
		return "", fmt.Errorf("invalid report period: %w", err)
	}
	if r.ID == 0 && len(r.Categories) == 0 {
		return "", errors.New("empty report")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, r)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Reports returns a copy of everything exported so far.
func (s *Store) Reports() []core.MonthlyReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.MonthlyReport(nil), s.items...)
}
