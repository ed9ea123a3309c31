package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/esteira-backend/internal/data/db"
	apphttp "github.com/yungbote/esteira-backend/internal/http"
	"github.com/yungbote/esteira-backend/internal/observability"
	"github.com/yungbote/esteira-backend/internal/platform/envutil"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
	"github.com/yungbote/esteira-backend/internal/temporalx/slamaint"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services

	closeDB      func() error
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New wires the whole application. Background loops start in Start.
func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	theDB, closeDB, err := OpenDB(cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = closeDB()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		_ = closeDB()
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(theDB, log, serviceset)
	router := wireRouter(log, cfg, handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		closeDB:      closeDB,
		otelShutdown: otelShutdown,
	}, nil
}

// OpenDB connects to the configured driver and migrates the schema.
func OpenDB(cfg Config, log *logger.Logger) (*gorm.DB, func() error, error) {
	switch cfg.DBDriver {
	case "sqlite":
		gdb, err := db.OpenSQLite(cfg.SQLitePath, log, false)
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite: %w", err)
		}
		closeFn := func() error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		if err := db.AutoMigrateAll(gdb); err != nil {
			_ = closeFn()
			return nil, nil, fmt.Errorf("sqlite automigrate: %w", err)
		}
		return gdb, closeFn, nil
	default:
		pg, err := db.NewPostgresService(cfg.Postgres, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres: %w", err)
		}
		if err := db.AutoMigrateAll(pg.DB()); err != nil {
			_ = pg.Close()
			return nil, nil, fmt.Errorf("postgres automigrate: %w", err)
		}
		return pg.DB(), pg.Close, nil
	}
}

// Start launches periodic SLA maintenance: the Temporal worker and cron
// workflow when Temporal is configured, the in-process cron otherwise.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Services.TemporalWorker != nil {
		if err := a.Services.TemporalWorker.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
		in := slamaint.Input{NearExpiryHours: a.Cfg.NearExpiryHours}
		if err := slamaint.StartCron(ctx, a.Log, a.Clients.Temporal, a.Cfg.Temporal, a.Cfg.SlaSchedule, in); err != nil {
			return err
		}
		return nil
	}
	if a.Services.Maintenance != nil {
		if err := a.Services.Maintenance.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("HTTP server listening", "addr", addr)
	return (&apphttp.Server{Engine: a.Router}).Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.closeDB != nil {
		if err := a.closeDB(); err != nil {
			a.Log.Warn("db close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
