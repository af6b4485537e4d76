package services

import (
	"context"
	"fmt"

	"spesecli/internal/core"
	"spesecli/internal/log"
)

// BudgetService wraps the /budgets endpoints.
type BudgetService struct {
	api    API
	logger *log.Logger
}

func NewBudgetService(api API, logger *log.Logger) *BudgetService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &BudgetService{api: api, logger: logger.WithComponent(log.ComponentService)}
}

// List returns budgets, filtered by p only when p is complete.
func (s *BudgetService) List(ctx context.Context, p core.Period) ([]core.Budget, error) {
	if !p.Complete() && (p.Month != 0 || p.Year != 0) {
		s.logger.DebugContext(ctx, "Partial period ignored, listing all budgets",
			log.NewFields().WithOperation(log.OpList).WithPeriod(p.Month, p.Year).ToSlice()...)
	}
	var out []core.Budget
	if err := s.api.Get(ctx, "/budgets", p.Values(), &out); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

func (s *BudgetService) Create(ctx context.Context, in core.BudgetInput) (core.Budget, error) {
	if err := in.Validate(); err != nil {
		return core.Budget{}, err
	}
	var out core.Budget
	if err := s.api.Post(ctx, "/budgets", in, &out); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return out, nil
}

func (s *BudgetService) Update(ctx context.Context, id string, in core.BudgetInput) (core.Budget, error) {
	path, err := resourcePath("/budgets", id)
	if err != nil {
		return core.Budget{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Budget{}, err
	}
	var out core.Budget
	if err := s.api.Put(ctx, path, in, &out); err != nil {
		return core.Budget{}, fmt.Errorf("update budget %s: %w", id, err)
	}
	return out, nil
}

func (s *BudgetService) Delete(ctx context.Context, id string) (core.DeleteResult, error) {
	path, err := resourcePath("/budgets", id)
	if err != nil {
		return core.DeleteResult{}, err
	}
	var out core.DeleteResult
	if err := s.api.Delete(ctx, path, &out); err != nil {
		return core.DeleteResult{}, fmt.Errorf("delete budget %s: %w", id, err)
	}
	return out, nil
}

// Comparison returns budget vs actual per category. Month and year are both
// required here.
func (s *BudgetService) Comparison(ctx context.Context, p core.Period) ([]core.BudgetComparison, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var out []core.BudgetComparison
	if err := s.api.Get(ctx, "/budgets/comparison", p.Values(), &out); err != nil {
		return nil, fmt.Errorf("budget comparison: %w", err)
	}
	return out, nil
}
