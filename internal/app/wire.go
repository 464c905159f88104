package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	appcomment "github.com/wikimedia/wikimedia-cz-tracker/internal/application/comment"
	appidentity "github.com/wikimedia/wikimedia-cz-tracker/internal/application/identity"
	appnotification "github.com/wikimedia/wikimedia-cz-tracker/internal/application/notification"
	apppayment "github.com/wikimedia/wikimedia-cz-tracker/internal/application/payment"
	apptracker "github.com/wikimedia/wikimedia-cz-tracker/internal/application/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/auth"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/cache"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/config"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/logger"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/mail"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/mediawiki"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/scheduler"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/storage"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// rowsCacheTTL bounds how stale a cached ticket listing can get when an
// invalidation is lost
const rowsCacheTTL = 6 * time.Hour

// Wire bundles the stores, clients and services of one tracker process
type Wire struct {
	Config   *config.Config
	DB       *persistence.Database
	Repos    *persistence.Repositories
	Store    cache.Store
	JWT      *auth.JWTService
	Tokens   *auth.StoreTokenBlacklist
	Mailer   *mail.Mailer
	Wiki     *mediawiki.Client
	Tasks    *scheduler.Scheduler
	Settings apptracker.Settings

	Auth          *appidentity.AuthService
	Users         *appidentity.UserService
	Notifications *appnotification.Service
	Watch         *appnotification.WatchService
	Digest        *appnotification.DigestService
	Broadcast     *appnotification.BroadcastService
	Tickets       *apptracker.TicketService
	Grants        *apptracker.GrantService
	Expenses      *apptracker.ExpenseService
	Media         *apptracker.MediaService
	MediaSync     *apptracker.MediaSync
	Documents     *apptracker.DocumentService
	Rows          *apptracker.RowsService
	RowsCache     *cache.TicketRowsCache
	Reports       *apptracker.ReportService
	Export        *apptracker.ExportService
	Import        *apptracker.ImportService
	Maintenance   *apptracker.MaintenanceService
	Comments      *appcomment.Service
	Payments      *apppayment.Service
}

// NewWire opens the database and cache and constructs the dependency
// graph from cfg. metrics may be nil. Close releases what NewWire opened.
func NewWire(cfg *config.Config, metrics *telemetry.Metrics, log *zap.Logger) (*Wire, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}
	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}

	store, err := cache.NewStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	objects, err := storage.New(&cfg.Storage, log)
	if err != nil {
		_ = store.Close()
		_ = db.Close()
		return nil, err
	}

	wiki, err := mediawiki.NewClient(cfg.MediaWiki, log)
	if err != nil {
		_ = store.Close()
		_ = db.Close()
		return nil, err
	}

	w := &Wire{
		Config:   cfg,
		DB:       db,
		Repos:    persistence.NewRepositories(db.DB),
		Store:    store,
		JWT:      auth.NewJWTService(cfg.JWT),
		Tokens:   auth.NewStoreTokenBlacklist(store),
		Mailer:   mail.New(cfg.Mail, log),
		Wiki:     wiki,
		Settings: apptracker.SettingsFromConfig(cfg),
	}
	w.buildServices(objects, log)
	w.wireHooks(metrics, log)
	return w, nil
}

func (w *Wire) buildServices(objects storage.ObjectStorage, log *zap.Logger) {
	r, cfg, settings := w.Repos, w.Config, w.Settings

	w.Tasks = scheduler.NewScheduler(scheduler.SchedulerConfig{
		Enabled:      cfg.Tasks.Enabled,
		Workers:      cfg.Tasks.Workers,
		PollInterval: cfg.Tasks.PollInterval,
		DefaultDelay: cfg.Tasks.DefaultDelay,
		MaxAttempts:  cfg.Tasks.MaxAttempts,
		RetryBackoff: cfg.Tasks.RetryBackoff,
		LockTimeout:  cfg.Tasks.LockTimeout,
	}, r.Tasks, log.Named("tasks"))

	w.Notifications = appnotification.NewService(r.Notifications, r.Watchers, r.Users, r.Profiles, log)
	w.Watch = appnotification.NewWatchService(r.Watchers, r.Tickets, r.Topics, r.Grants, log)
	w.Digest = appnotification.NewDigestService(r.Notifications, r.Users, r.Profiles, w.Mailer, settings.BaseURL, log)
	w.Broadcast = appnotification.NewBroadcastService(r.Users, r.Profiles, r.Topics, w.Mailer, log)

	w.RowsCache = cache.NewTicketRowsCache(w.Store, rowsCacheTTL, log)
	w.Rows = apptracker.NewRowsService(r.Tickets, w.RowsCache, log)
	w.Tickets = apptracker.NewTicketService(r.Tickets, r.Topics, r.Subtopics, r.Signatures, r.Users, r.Profiles, settings, log)
	w.Grants = apptracker.NewGrantService(r.Grants, r.Topics, r.Subtopics, r.Tickets, settings, log)
	w.Expenses = apptracker.NewExpenseService(r.Tickets, settings, log)
	w.Media = apptracker.NewMediaService(r.Tickets, r.Media, settings, log)
	w.MediaSync = apptracker.NewMediaSync(r.Tickets, r.Media, r.Profiles, w.Wiki, settings, log)
	w.Documents = apptracker.NewDocumentService(r.Tickets, r.Documents, objects, settings, log)
	w.Reports = apptracker.NewReportService(r.Reports, r.Tickets, r.Grants, r.Topics, r.Users, log)
	w.Export = apptracker.NewExportService(r.Tickets, r.Grants, r.Topics, r.Users, r.Profiles, log)
	w.Import = apptracker.NewImportService(w.Tickets, w.Expenses, w.Media, w.Grants, r.Grants, r.Topics, r.Users, settings, log)
	w.Maintenance = apptracker.NewMaintenanceService(r.Tickets, r.Media, r.Users, w.Tasks, cfg.Tracker.MaintenanceUsername, log)

	w.Auth = appidentity.NewAuthService(r.Users, w.JWT, w.Tokens, log)
	w.Users = appidentity.NewUserService(r.Users, r.Profiles, w.Reports, w.Auth, log)
	w.Comments = appcomment.NewService(r.Tickets, r.Comments, r.Users, r.Profiles, w.Notifications, w.Watch, w.RowsCache, settings.BaseURL, log)
	w.Payments = apppayment.NewService(r.Transactions, r.Clusters, r.Tickets, settings.Currency, log)
}

// wireHooks connects the ticket services to notifications, the listing
// cache, the task queue and the metrics
func (w *Wire) wireHooks(metrics *telemetry.Metrics, log *zap.Logger) {
	for _, s := range []interface {
		SetNotifier(apptracker.Notifier)
		SetRowsCache(apptracker.RowsInvalidator)
		SetMetrics(*telemetry.Metrics)
	}{w.Tickets, w.Grants, w.Expenses, w.Media, w.Documents} {
		s.SetNotifier(w.Notifications)
		s.SetRowsCache(w.RowsCache)
		s.SetMetrics(metrics)
	}
	w.Media.SetPageResolver(w.Wiki)
	w.Media.SetTaskQueue(w.Tasks)
	w.MediaSync.Register(w.Tasks)

	w.Notifications.SetMetrics(metrics)
	w.Digest.SetMetrics(metrics)
	w.Tasks.SetFailureNotifier(apptracker.NewTaskFailureMailer(w.Mailer, log))
	if metrics != nil {
		w.Tasks.SetObserver(metrics)
		w.Wiki.SetObserver(metrics)
	}
}

// DigestTrigger sends the pending notification digests every configured
// interval
func (w *Wire) DigestTrigger(log *zap.Logger) *scheduler.IntervalTrigger {
	return scheduler.NewIntervalTrigger(scheduler.IntervalTriggerConfig{
		Name:     "notification-digest",
		Interval: w.Config.Tasks.DigestInterval,
	}, func(ctx context.Context) error {
		_, err := w.Digest.SendPending(ctx)
		return err
	}, log)
}

// CacheCheck probes the cache with a short lived key
func (w *Wire) CacheCheck(ctx context.Context) error {
	const key = "health:probe"
	if err := w.Store.Set(ctx, key, []byte("ok"), time.Minute); err != nil {
		return err
	}
	_, err := w.Store.Get(ctx, key)
	return err
}

// Close releases the cache and the database
func (w *Wire) Close() error {
	return errors.Join(w.Store.Close(), w.DB.Close())
}
