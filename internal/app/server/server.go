package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ulule/limiter/v3"

	"hris/internal/domain/appraisal"
	"hris/internal/domain/attendance"
	"hris/internal/domain/audit"
	"hris/internal/domain/auth"
	"hris/internal/domain/core"
	"hris/internal/domain/documents"
	"hris/internal/domain/handover"
	"hris/internal/domain/invitations"
	"hris/internal/domain/leave"
	"hris/internal/domain/loan"
	"hris/internal/domain/notifications"
	"hris/internal/domain/payroll"
	"hris/internal/domain/recruitment"
	"hris/internal/domain/settings"
	"hris/internal/platform/config"
	cryptoutil "hris/internal/platform/crypto"
	"hris/internal/platform/db"
	"hris/internal/platform/email"
	"hris/internal/platform/jobs"
	"hris/internal/platform/metrics"
	"hris/internal/platform/storage"
	appraisalhandler "hris/internal/transport/http/handlers/appraisal"
	attendancehandler "hris/internal/transport/http/handlers/attendance"
	audithandler "hris/internal/transport/http/handlers/audit"
	authhandler "hris/internal/transport/http/handlers/auth"
	corehandler "hris/internal/transport/http/handlers/core"
	documentshandler "hris/internal/transport/http/handlers/documents"
	handoverhandler "hris/internal/transport/http/handlers/handover"
	invitationshandler "hris/internal/transport/http/handlers/invitations"
	leavehandler "hris/internal/transport/http/handlers/leave"
	loanhandler "hris/internal/transport/http/handlers/loan"
	notificationshandler "hris/internal/transport/http/handlers/notifications"
	payrollhandler "hris/internal/transport/http/handlers/payroll"
	recruitmenthandler "hris/internal/transport/http/handlers/recruitment"
	settingshandler "hris/internal/transport/http/handlers/settings"
	workflowhandler "hris/internal/transport/http/handlers/workflow"
	"hris/internal/transport/http/middleware"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service
	Logger *slog.Logger
}

// New connects to the database, applies migrations and the seed when
// configured, and wires every service behind the router.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "migrate")
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "seed")
		}
	}

	app, err := build(cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return app, nil
}

func build(cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*App, error) {
	cryptoSvc, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "encryption key")
	}
	if !cryptoSvc.Configured() {
		logger.Warn("DATA_ENCRYPTION_KEY not set, sensitive employee fields are stored unencrypted")
	}
	enforcer, err := auth.NewEnforcer(auth.RolePermissions)
	if err != nil {
		return nil, errors.Wrap(err, "permission model")
	}
	limitStore, err := rateLimitStore(cfg)
	if err != nil {
		return nil, err
	}

	reg := metrics.New()
	jobsSvc := jobs.New(jobs.PGRecorder{DB: pool}, reg)
	mailer := email.New(cfg)
	files := storage.NewDisk(cfg.StorageDir, cfg.MaxUploadBytes)
	auditSvc := audit.New(pool)

	coreStore := core.NewStore(pool, cryptoSvc)
	settingsSvc := settings.NewService(settings.NewStore(pool))
	notifySvc := notifications.New(notifications.NewStore(pool), mailer, notifications.Options{
		DefaultFrom: cfg.EmailFrom,
		BaseURL:     cfg.PublicBaseURL,
	})

	authSvc := auth.NewService(auth.NewStore(pool), cryptoSvc, cfg.JWTSecret, cfg.AccessTokenTTL, enforcer)
	invitesSvc := invitations.NewService(invitations.NewStore(pool), jobsSvc, mailer, settingsSvc, invitations.Options{
		TTL:         cfg.InviteTTL,
		BaseURL:     cfg.PublicBaseURL,
		DefaultFrom: cfg.EmailFrom,
	})
	loanSvc := loan.NewService(loan.NewStore(pool), coreStore, notifySvc)

	jobsSvc.Every(invitations.JobCleanup, cfg.InviteCleanupInterval, func(ctx context.Context) (any, error) {
		n, err := invitesSvc.ExpireStale(ctx)
		return map[string]int64{"expired": n}, err
	})

	leaveStore := leave.NewStore(pool)
	routes := []Routes{
		authhandler.NewHandler(authSvc, invitesSvc, auditSvc, jobsSvc, mailer, cfg.EmailFrom, cfg.PublicBaseURL, cfg.IsProduction()),
		corehandler.NewHandler(core.NewService(coreStore), enforcer, auditSvc),
		attendancehandler.NewHandler(attendance.NewService(attendance.NewStore(pool), settingsSvc), enforcer, auditSvc),
		leavehandler.NewHandler(leave.NewService(leaveStore, coreStore, settingsSvc, notifySvc), enforcer, auditSvc, reg),
		handoverhandler.NewHandler(handover.NewService(handover.NewStore(pool), files, coreStore, leaveStore, notifySvc), enforcer, auditSvc, reg, cfg.MaxUploadBytes),
		appraisalhandler.NewHandler(appraisal.NewService(appraisal.NewStore(pool), coreStore, notifySvc), enforcer, auditSvc, reg),
		loanhandler.NewHandler(loanSvc, enforcer, auditSvc, reg),
		payrollhandler.NewHandler(payroll.NewService(payroll.NewStore(pool), loanSvc, coreStore, settingsSvc, notifySvc), enforcer, auditSvc),
		recruitmenthandler.NewHandler(recruitment.NewService(recruitment.NewStore(pool), files), enforcer, auditSvc, cfg.MaxUploadBytes),
		documentshandler.NewHandler(documents.NewService(documents.NewStore(pool), files), enforcer, auditSvc, cfg.MaxUploadBytes),
		invitationshandler.NewHandler(invitesSvc, enforcer, auditSvc, cfg.MaxUploadBytes),
		notificationshandler.NewHandler(notifySvc),
		settingshandler.NewHandler(settingsSvc, enforcer, auditSvc),
		audithandler.NewHandler(auditSvc, enforcer),
		workflowhandler.NewHandler(),
	}

	router := NewRouter(RouterOptions{
		Config:   cfg,
		Logger:   logger,
		Metrics:  reg,
		Limiter:  limitStore,
		Sessions: authSvc,
		DB:       pool,
		Routes:   routes,
	})
	return &App{Config: cfg, DB: pool, Router: router, Jobs: jobsSvc, Logger: logger}, nil
}

func rateLimitStore(cfg config.Config) (limiter.Store, error) {
	if cfg.RateLimitStore == "redis" {
		return middleware.NewRedisStore(cfg.RedisURL)
	}
	return middleware.NewMemoryStore(), nil
}

// Run serves until ctx is cancelled and then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	defer a.DB.Close()

	jobsCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	a.Jobs.Start(jobsCtx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("hris server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	a.Logger.Info("server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	a.Logger.Info("server stopped")
	return nil
}
