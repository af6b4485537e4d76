package services

import (
	"context"
	"fmt"

	"spesecli/internal/core"
	"spesecli/internal/log"
)

// ExpenseService wraps the /expenses endpoints.
type ExpenseService struct {
	api    API
	logger *log.Logger
}

func NewExpenseService(api API, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExpenseService{api: api, logger: logger.WithComponent(log.ComponentService)}
}

// List returns every expense of the current user.
func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	var out []core.Expense
	if err := s.api.Get(ctx, "/expenses", nil, &out); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// Create validates in, pins its date to noon and posts it.
func (s *ExpenseService) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	in.Date = in.Date.Noon()
	var out core.Expense
	if err := s.api.Post(ctx, "/expenses", in, &out); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return out, nil
}

func (s *ExpenseService) Update(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	path, err := resourcePath("/expenses", id)
	if err != nil {
		return core.Expense{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	var out core.Expense
	if err := s.api.Put(ctx, path, in, &out); err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", id, err)
	}
	return out, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id string) (core.DeleteResult, error) {
	path, err := resourcePath("/expenses", id)
	if err != nil {
		return core.DeleteResult{}, err
	}
	var out core.DeleteResult
	if err := s.api.Delete(ctx, path, &out); err != nil {
		return core.DeleteResult{}, fmt.Errorf("delete expense %s: %w", id, err)
	}
	return out, nil
}

// Summary returns per-category totals. The period filter is only sent when
// both month and year are set; otherwise the summary covers everything.
func (s *ExpenseService) Summary(ctx context.Context, p core.Period) ([]core.ExpenseSummary, error) {
	if !p.Complete() && (p.Month != 0 || p.Year != 0) {
		s.logger.DebugContext(ctx, "Partial period ignored, requesting unfiltered summary",
			log.NewFields().WithOperation(log.OpSummary).WithPeriod(p.Month, p.Year).ToSlice()...)
	}
	var out []core.ExpenseSummary
	if err := s.api.Get(ctx, "/expenses/summary", p.Values(), &out); err != nil {
		return nil, fmt.Errorf("expense summary: %w", err)
	}
	return out, nil
}
