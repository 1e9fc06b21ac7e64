package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-schedule-api/internal/handler"
	"github.com/noah-isme/campus-schedule-api/internal/repository"
	"github.com/noah-isme/campus-schedule-api/internal/router"
	"github.com/noah-isme/campus-schedule-api/internal/service"
	"github.com/noah-isme/campus-schedule-api/pkg/cache"
	"github.com/noah-isme/campus-schedule-api/pkg/config"
	"github.com/noah-isme/campus-schedule-api/pkg/database"
	"github.com/noah-isme/campus-schedule-api/pkg/extractor"
	"github.com/noah-isme/campus-schedule-api/pkg/jobs"
	"github.com/noah-isme/campus-schedule-api/pkg/storage"
)

// App holds the wired services shared by the HTTP server and the CLI.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	Metrics      *service.MetricsService
	Tokens       *service.TokenService
	Periods      *service.PeriodService
	Rooms        *service.RoomService
	Groups       *service.GroupService
	Availability *service.AvailabilityService
	Assignments  *service.AssignmentService
	Imports      *service.ImportService
	ImportJobs   *service.ImportJobService
	Exports      *service.ExportService

	audit   *repository.AuditRepository
	queue   *jobs.Queue
	uploads *storage.LocalStorage
}

const uploadSweepInterval = time.Hour

// New connects to PostgreSQL, optionally Redis, runs migrations when enabled
// and wires every service. Redis failures degrade to no cache and no async jobs.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, caching and background imports disabled", zap.Error(err))
		rdb = nil
	}

	uploads, err := storage.NewLocalStorage(cfg.Import.UploadDir)
	if err != nil {
		_ = db.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, DB: db, Redis: rdb, uploads: uploads}
	a.wire()
	return a, nil
}

func (a *App) wire() {
	cfg := a.Config
	validate := validator.New()

	rooms := repository.NewRoomRepository(a.DB)
	subjects := repository.NewSubjectRepository(a.DB)
	periods := repository.NewPeriodRepository(a.DB)
	groups := repository.NewGroupRepository(a.DB)
	assignments := repository.NewAssignmentRepository(a.DB)
	users := repository.NewUserRepository(a.DB)
	a.audit = repository.NewAuditRepository(a.DB)
	cacheRepo := repository.NewCacheRepository(a.Redis, a.Logger)

	a.Metrics = service.NewMetricsService()
	a.Tokens = service.NewTokenService(cfg.JWT.Secret)
	cacheSvc := service.NewCacheService(cacheRepo, a.Metrics, cfg.Cache.TTL, a.Logger, cfg.Cache.Enabled && a.Redis != nil)

	a.Periods = service.NewPeriodService(periods, cacheSvc, validate, a.Logger)
	a.Rooms = service.NewRoomService(rooms, validate, a.Logger)
	a.Groups = service.NewGroupService(a.Periods, groups, cacheSvc, a.Logger)
	a.Availability = service.NewAvailabilityService(assignments, groups, users, a.Metrics, validate, a.Logger)
	a.Assignments = service.NewAssignmentService(assignments, groups, rooms, users, a.Availability, a.DB, validate, a.Logger)
	a.Exports = service.NewExportService(a.Periods, assignments, users, validate, a.Logger)
	a.Imports = service.NewImportService(service.ImportDeps{
		Tx:          a.DB,
		Periods:     a.Periods,
		Subjects:    subjects,
		Groups:      groups,
		Rooms:       rooms,
		Assignments: assignments,
		Professors:  users,
		Extractor:   extractor.New(cfg.Extractor, a.Logger),
		Uploads:     a.uploads,
		Cache:       cacheSvc,
		Metrics:     a.Metrics,
		Logger:      a.Logger,
	}, service.ImportConfig{
		DefaultRoomCapacity: cfg.Import.DefaultRoomCapacity,
		MaxUploadBytes:      cfg.Import.MaxUploadBytes,
	})

	if a.Redis == nil {
		a.ImportJobs = service.NewImportJobService(nil, a.Imports, cfg.Import.JobTTL, a.Logger)
		return
	}
	a.ImportJobs = service.NewImportJobService(cacheRepo, a.Imports, cfg.Import.JobTTL, a.Logger)
	a.queue = jobs.NewQueue("schedule-import", a.ImportJobs.Handle, jobs.QueueConfig{
		Workers:     cfg.Import.Workers,
		Logger:      a.Logger,
		OnExhausted: a.ImportJobs.Exhausted,
	})
	a.ImportJobs.AttachQueue(a.queue)
}

// Start launches background workers and the sweep of abandoned uploads.
func (a *App) Start(ctx context.Context) {
	if a.queue != nil {
		a.queue.Start(ctx)
	}
	go a.sweepUploads(ctx)
}

// sweepUploads removes staged documents older than the job TTL.
func (a *App) sweepUploads(ctx context.Context) {
	ticker := time.NewTicker(uploadSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.uploads.CleanupOlderThan(a.Config.Import.JobTTL)
			if err != nil {
				a.Logger.Warn("upload sweep failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				a.Logger.Info("removed stale uploads", zap.Int("count", len(removed)))
			}
		}
	}
}

// Router builds the HTTP engine over the wired services.
func (a *App) Router() *gin.Engine {
	checks := map[string]handler.Pinger{"database": a.DB}
	if a.Redis != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		})
	}

	return router.Setup(a.Config, router.Handlers{
		Schedules: handler.NewScheduleHandler(a.Assignments, a.Availability),
		Imports:   handler.NewImportHandler(a.Imports, a.ImportJobs),
		Exports:   handler.NewExportHandler(a.Exports),
		Rooms:     handler.NewRoomHandler(a.Rooms),
		Periods:   handler.NewPeriodHandler(a.Periods),
		Groups:    handler.NewGroupHandler(a.Groups),
		Metrics:   handler.NewMetricsHandler(a.Metrics, checks),
	}, router.Deps{
		Tokens:   a.Tokens,
		Audit:    a.audit,
		Observer: a.Metrics,
		Logger:   a.Logger,
	})
}

// Close stops workers and releases connections.
func (a *App) Close() {
	if a.queue != nil {
		a.queue.Stop()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Warn("close database", zap.Error(err))
	}
}
