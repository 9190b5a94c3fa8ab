package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"payflow/internal/domain/audit"
	"payflow/internal/domain/auth"
	"payflow/internal/domain/employees"
	"payflow/internal/domain/failedpayslips"
	"payflow/internal/domain/leave"
	"payflow/internal/domain/notifications"
	"payflow/internal/domain/payroll"
	"payflow/internal/domain/payslips"
	"payflow/internal/domain/reports"
	"payflow/internal/domain/settings"
	"payflow/internal/domain/structures"
	"payflow/internal/platform/config"
	"payflow/internal/platform/crypto"
	"payflow/internal/platform/db"
	"payflow/internal/platform/email"
	"payflow/internal/platform/jobs"
	"payflow/internal/platform/metrics"
	audithandler "payflow/internal/transport/http/handlers/audit"
	authhandler "payflow/internal/transport/http/handlers/auth"
	employeeshandler "payflow/internal/transport/http/handlers/employees"
	failedpayslipshandler "payflow/internal/transport/http/handlers/failedpayslips"
	leavehandler "payflow/internal/transport/http/handlers/leave"
	notificationshandler "payflow/internal/transport/http/handlers/notifications"
	payrollhandler "payflow/internal/transport/http/handlers/payroll"
	reportshandler "payflow/internal/transport/http/handlers/reports"
	settingshandler "payflow/internal/transport/http/handlers/settings"
	"payflow/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *db.DB
	Router http.Handler
	Jobs   *jobs.Service

	// Services is exposed for the CLI commands that run outside HTTP.
	Services Services
}

type Services struct {
	Auth           *auth.Service
	Employees      *employees.Service
	Payroll        *payroll.Service
	Structures     *structures.Service
	Payslips       *payslips.Service
	Notifications  *notifications.Service
	FailedPayslips *failedpayslips.Service
	Settings       *settings.Service
	Leave          *leave.Service
	Reports        *reports.Service
	Audit          *audit.Service
}

// New connects to the database, applies migrations and the admin seed when
// enabled, and builds the HTTP router. The job worker is not started.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	database, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := db.Migrate(database); err != nil {
			_ = database.Close()
			return nil, err
		}
	}

	cryptoSvc, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	svc := buildServices(database, cfg, cryptoSvc)
	if cfg.RunSeed {
		if err := svc.Auth.EnsureAdmin(ctx, cfg.SeedAdminUsername, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			_ = database.Close()
			return nil, err
		}
	}
	if err := svc.Notifications.Load(ctx); err != nil {
		zap.L().Warn("stored smtp configuration not loaded", zap.Error(err))
	}

	jobsSvc := jobs.New(database, cfg.JobQueueSize)
	app := &App{Config: cfg, DB: database, Jobs: jobsSvc, Services: svc}
	app.Router = app.routes()
	return app, nil
}

func buildServices(database *db.DB, cfg config.Config, cryptoSvc *crypto.Service) Services {
	employeeStore := employees.NewStore(database)
	structureStore := structures.NewStore(database)
	failedStore := failedpayslips.NewStore(database)

	settingsSvc := settings.NewService(settings.NewStore(database), cfg.CurrencySymbol)
	employeeSvc := employees.NewService(employeeStore)
	payrollSvc := payroll.NewService(payroll.NewStore(database), employeeStore, structureStore)
	payslipSvc := payslips.NewService(payrollSvc, employeeStore, settingsSvc)
	notifySvc := notifications.NewService(settingsSvc, cryptoSvc, payslipSvc, payrollSvc, failedStore, email.Options{
		Timeout:    cfg.SMTPTimeout,
		Attempts:   cfg.SMTPSendAttempts,
		RetryDelay: cfg.SMTPRetryDelay,
	})

	return Services{
		Auth:           auth.NewService(auth.NewStore(database), cfg.JWTSecret, cfg.JWTTTL),
		Employees:      employeeSvc,
		Payroll:        payrollSvc,
		Structures:     structures.NewService(structureStore),
		Payslips:       payslipSvc,
		Notifications:  notifySvc,
		FailedPayslips: failedpayslips.NewService(failedStore, employeeStore, settingsSvc, payrollSvc, notifySvc),
		Settings:       settingsSvc,
		Leave:          leave.NewService(leave.NewStore(database)),
		Reports:        reports.NewService(reports.NewStore(database), employeeSvc, payrollSvc),
		Audit:          audit.New(database),
	}
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	svc := a.Services
	perms := auth.StaticPermissions{}
	idem := middleware.NewIdempotencyStore(a.DB)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(svc.Auth, perms, svc.Audit)
		authHandler.RegisterPublicRoutes(r)
		authHandler.RegisterRoutes(r)

		employeesHandler := employeeshandler.NewHandler(svc.Employees, svc.Payroll, svc.Leave, svc.FailedPayslips, perms, svc.Audit)
		employeesHandler.RegisterRoutes(r)

		payrollHandler := payrollhandler.NewHandler(svc.Payroll, svc.Structures, svc.Payslips, svc.Notifications, perms, svc.Audit, a.Jobs, idem)
		payrollHandler.RegisterRoutes(r)

		notificationsHandler := notificationshandler.NewHandler(svc.Notifications, perms, svc.Audit)
		notificationsHandler.RegisterRoutes(r)

		failedHandler := failedpayslipshandler.NewHandler(svc.FailedPayslips, perms, svc.Audit, a.Jobs)
		failedHandler.RegisterRoutes(r)

		leaveHandler := leavehandler.NewHandler(svc.Leave, perms, svc.Audit)
		leaveHandler.RegisterRoutes(r)

		settingsHandler := settingshandler.NewHandler(svc.Settings, perms, svc.Audit)
		settingsHandler.RegisterRoutes(r)

		reportsHandler := reportshandler.NewHandler(svc.Reports, a.Jobs, perms)
		reportsHandler.RegisterRoutes(r)

		auditHandler := audithandler.NewHandler(svc.Audit, perms)
		auditHandler.RegisterRoutes(r)
	})

	return router
}

// Serve runs the HTTP server and the job worker until ctx is cancelled, then
// drains in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Jobs.Run(gctx)
	})
	g.Go(func() error {
		zap.L().Info("payflow listening", zap.String("addr", a.Config.Addr), zap.String("dialect", string(a.DB.Dialect)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
