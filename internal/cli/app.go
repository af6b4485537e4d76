package cli

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"spesecli/internal/amqp"
	"spesecli/internal/apiclient"
	"spesecli/internal/backend"
	"spesecli/internal/config"
	"spesecli/internal/core"
	"spesecli/internal/log"
	"spesecli/internal/refresh"
	"spesecli/internal/services"
	"spesecli/internal/session"
	"spesecli/internal/sheets"
	"spesecli/internal/view"
)

const userAgent = "spese-cli"

// App owns every long-lived component of one client process. Build it with
// NewApp, call Initialize once and Dispose on the way out.
type App struct {
	Config *config.Config
	Logger *log.Logger

	API      *apiclient.Client
	Session  *session.Store
	Bus      *refresh.Bus
	Health   *services.HealthMonitor
	Auth     *services.AuthAPI
	Expenses *services.ExpenseService
	Budgets  *services.BudgetService
	Reports  *services.ReportService

	Mutations *view.Mutations
	Notifier  *view.Notifier

	Exporter     sheets.ReportExporter
	ExportRemote bool

	factory  backend.Factory
	relay    *amqp.Client
	bg       *errgroup.Group
	bgCancel context.CancelFunc
	cleanups []backend.CleanupFunc
}

func NewApp(cfg *config.Config, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &App{
		Config:  cfg,
		Logger:  logger.WithComponent(log.ComponentApp),
		factory: backend.NewFactory(logger),
	}
}

// Initialize opens storage, restores the session and starts the refresh bus
// (with the AMQP relay when configured). A relay that cannot connect is
// logged and the bus stays local.
func (a *App) Initialize(ctx context.Context) error {
	a.Logger.DebugContext(ctx, "Initializing", log.FieldOperation, log.OpStartup)

	bcfg, err := backend.FromAppConfig(a.Config)
	if err != nil {
		return err
	}
	store, err := a.factory.CreateStore(ctx, bcfg)
	if err != nil {
		return err
	}
	a.cleanups = append(a.cleanups, store.Cleanup)

	api, err := apiclient.New(apiclient.Config{
		BaseURL:           a.Config.APIBaseURL,
		Timeout:           a.Config.APITimeout,
		RequestsPerSecond: a.Config.APIRateLimit,
		Burst:             a.Config.APIRateBurst,
		UserAgent:         userAgent,
	}, apiclient.TokenFunc(a.token), a.Logger)
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}
	a.API = api
	a.Auth = services.NewAuthAPI(api)

	a.Session = session.New(a.Auth, store.Store, a.Logger)
	if err := a.Session.Initialize(ctx); err != nil {
		return err
	}

	var opts []refresh.Option
	opts = append(opts, refresh.WithLogger(a.Logger))
	if a.Config.RelayEnabled() {
		relay, err := amqp.NewClient(a.Config.AMQPURL, a.Config.AMQPExchange, a.Logger)
		if err != nil {
			a.Logger.WarnContext(ctx, "Refresh relay unavailable, running local only", log.FieldError, err)
		} else {
			a.relay = relay
			opts = append(opts, refresh.WithRelay(relay))
		}
	}
	a.Bus = refresh.New(opts...)
	if err := a.Bus.Initialize(); err != nil {
		return err
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	a.bgCancel = cancel
	a.bg, _ = errgroup.WithContext(bgCtx)
	if a.relay != nil {
		relay, bus := a.relay, a.Bus
		a.bg.Go(func() error {
			err := relay.Run(bgCtx, func(m *amqp.BeaconMessage) error {
				bus.Apply(m.Domain, m.Stamp)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	a.Health = services.NewHealthMonitor(api, services.HealthMonitorConfig{Interval: a.Config.HealthCheckInterval}, a.Logger)
	a.Expenses = services.NewExpenseService(api, a.Logger)
	a.Budgets = services.NewBudgetService(api, a.Logger)
	a.Reports = services.NewReportService(api)
	a.Mutations = view.NewMutations(a.Expenses, a.Budgets, a.Reports, a.Bus, a.Health, a.Logger)
	a.Notifier = view.NewNotifier(a.Logger)
	return nil
}

func (a *App) token() string {
	if a.Session == nil {
		return ""
	}
	return a.Session.Token()
}

// Register creates an account. Like every write it is refused while the API
// reports its database down; the first call queries /status when no check
// has run yet.
func (a *App) Register(ctx context.Context, name, email, password string) (core.Session, error) {
	if err := a.Health.Ready(ctx); err != nil {
		return core.Session{}, err
	}
	return a.Session.Register(ctx, name, email, password)
}

// StartHealthMonitor begins periodic health checks. Short-lived commands
// skip it; their writes check once through Health.Ready.
func (a *App) StartHealthMonitor(ctx context.Context) error {
	return a.Health.Start(ctx)
}

// ReportExporter returns the report exporter, creating it on first use so that
// commands which never export do not read Google credentials.
func (a *App) ReportExporter(ctx context.Context) (sheets.ReportExporter, error) {
	if a.Exporter != nil {
		return a.Exporter, nil
	}
	bcfg, err := backend.FromAppConfig(a.Config)
	if err != nil {
		return nil, err
	}
	res, err := a.factory.CreateExporter(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	if res.Cleanup != nil {
		a.cleanups = append(a.cleanups, res.Cleanup)
	}
	a.Exporter, a.ExportRemote = res.Exporter, res.Remote
	return a.Exporter, nil
}

// Dispose stops background work, flushes pending beacons and releases
// storage. The persisted session is left in place.
func (a *App) Dispose(ctx context.Context) error {
	var errs []error

	if a.Health != nil && a.Health.IsRunning() {
		if err := a.Health.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.bgCancel != nil {
		a.bgCancel()
		if err := a.bg.Wait(); err != nil {
			errs = append(errs, fmt.Errorf("relay consumer: %w", err))
		}
	}
	if a.Bus != nil {
		a.Bus.Dispose()
	}
	if a.relay != nil {
		if err := a.relay.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay: %w", err))
		}
	}
	if a.Session != nil {
		a.Session.Dispose()
	}
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if a.cleanups[i] == nil {
			continue
		}
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil

	a.Logger.DebugContext(ctx, "Disposed", log.FieldOperation, log.OpShutdown)
	return errors.Join(errs...)
}
