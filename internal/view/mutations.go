package view

import (
	"context"

	"spesecli/internal/core"
	"spesecli/internal/log"
	"spesecli/internal/refresh"
)

type ExpenseWriter interface {
	Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
	Update(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error)
	Delete(ctx context.Context, id string) (core.DeleteResult, error)
}

type BudgetWriter interface {
	Create(ctx context.Context, in core.BudgetInput) (core.Budget, error)
	Update(ctx context.Context, id string, in core.BudgetInput) (core.Budget, error)
	Delete(ctx context.Context, id string) (core.DeleteResult, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, p core.Period) (core.MonthlyReport, error)
	GenerateCurrent(ctx context.Context) (core.MonthlyReport, error)
}

// Guard refuses a call that is known to fail, e.g. while the API reports its
// database down. *services.HealthMonitor implements it.
type Guard interface {
	Ready(ctx context.Context) error
}

// Mutations performs writes and signals the affected domains afterwards. An
// expense touches its own list, the budget comparison and every derived
// view; a budget touches budgets and derived views.
type Mutations struct {
	expenses ExpenseWriter
	budgets  BudgetWriter
	reports  ReportGenerator
	bus      *refresh.Bus
	guard    Guard
	logger   *log.Logger
}

var (
	expenseDomains = []refresh.Domain{refresh.Expenses, refresh.Budgets, refresh.Data}
	budgetDomains  = []refresh.Domain{refresh.Budgets, refresh.Data}
	reportDomains  = []refresh.Domain{refresh.Data}
)

// NewMutations wires the writers to bus. guard may be nil.
func NewMutations(expenses ExpenseWriter, budgets BudgetWriter, reports ReportGenerator, bus *refresh.Bus, guard Guard, logger *log.Logger) *Mutations {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Mutations{
		expenses: expenses,
		budgets:  budgets,
		reports:  reports,
		bus:      bus,
		guard:    guard,
		logger:   logger.WithComponent(log.ComponentView),
	}
}

func (m *Mutations) check(ctx context.Context) error {
	if m.guard == nil {
		return nil
	}
	return m.guard.Ready(ctx)
}

func (m *Mutations) signal(ctx context.Context, op string, domains []refresh.Domain) {
	for _, d := range domains {
		m.bus.Signal(d)
	}
	m.logger.DebugContext(ctx, "Mutation signalled", log.FieldOperation, op, "domains", domains)
}

func (m *Mutations) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := m.check(ctx); err != nil {
		return core.Expense{}, err
	}
	e, err := m.expenses.Create(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}
	m.signal(ctx, log.OpCreate, expenseDomains)
	return e, nil
}

func (m *Mutations) UpdateExpense(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	if err := m.check(ctx); err != nil {
		return core.Expense{}, err
	}
	e, err := m.expenses.Update(ctx, id, in)
	if err != nil {
		return core.Expense{}, err
	}
	m.signal(ctx, log.OpUpdate, expenseDomains)
	return e, nil
}

func (m *Mutations) DeleteExpense(ctx context.Context, id string) (core.DeleteResult, error) {
	if err := m.check(ctx); err != nil {
		return core.DeleteResult{}, err
	}
	res, err := m.expenses.Delete(ctx, id)
	if err != nil {
		return core.DeleteResult{}, err
	}
	m.signal(ctx, log.OpDelete, expenseDomains)
	return res, nil
}

func (m *Mutations) CreateBudget(ctx context.Context, in core.BudgetInput) (core.Budget, error) {
	if err := m.check(ctx); err != nil {
		return core.Budget{}, err
	}
	b, err := m.budgets.Create(ctx, in)
	if err != nil {
		return core.Budget{}, err
	}
	m.signal(ctx, log.OpCreate, budgetDomains)
	return b, nil
}

func (m *Mutations) UpdateBudget(ctx context.Context, id string, in core.BudgetInput) (core.Budget, error) {
	if err := m.check(ctx); err != nil {
		return core.Budget{}, err
	}
	b, err := m.budgets.Update(ctx, id, in)
	if err != nil {
		return core.Budget{}, err
	}
	m.signal(ctx, log.OpUpdate, budgetDomains)
	return b, nil
}

func (m *Mutations) DeleteBudget(ctx context.Context, id string) (core.DeleteResult, error) {
	if err := m.check(ctx); err != nil {
		return core.DeleteResult{}, err
	}
	res, err := m.budgets.Delete(ctx, id)
	if err != nil {
		return core.DeleteResult{}, err
	}
	m.signal(ctx, log.OpDelete, budgetDomains)
	return res, nil
}

// GenerateReport rebuilds the report for p on the server.
func (m *Mutations) GenerateReport(ctx context.Context, p core.Period) (core.MonthlyReport, error) {
	if err := m.check(ctx); err != nil {
		return core.MonthlyReport{}, err
	}
	r, err := m.reports.Generate(ctx, p)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	m.signal(ctx, log.OpGenerate, reportDomains)
	return r, nil
}

func (m *Mutations) GenerateCurrentReport(ctx context.Context) (core.MonthlyReport, error) {
	if err := m.check(ctx); err != nil {
		return core.MonthlyReport{}, err
	}
	r, err := m.reports.GenerateCurrent(ctx)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	m.signal(ctx, log.OpGenerate, reportDomains)
	return r, nil
}
