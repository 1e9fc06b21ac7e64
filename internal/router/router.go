package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-schedule-api/internal/handler"
	"github.com/noah-isme/campus-schedule-api/internal/middleware"
	"github.com/noah-isme/campus-schedule-api/internal/models"
	"github.com/noah-isme/campus-schedule-api/pkg/config"
	"github.com/noah-isme/campus-schedule-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-schedule-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-schedule-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Schedules *handler.ScheduleHandler
	Imports   *handler.ImportHandler
	Exports   *handler.ExportHandler
	Rooms     *handler.RoomHandler
	Periods   *handler.PeriodHandler
	Groups    *handler.GroupHandler
	Metrics   *handler.MetricsHandler
}

// Deps carries the cross-cutting collaborators of the middleware chain.
type Deps struct {
	Tokens   middleware.TokenValidator
	Audit    middleware.AuditWriter
	Observer middleware.HTTPObserver
	Logger   *zap.Logger
}

// Setup builds the gin engine with global middleware and all routes.
func Setup(cfg *config.Config, h Handlers, deps Deps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(deps.Observer, "/metrics", "/health", "/ready"))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(deps.Tokens))

	manage := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, log, action, resource)
	}

	schedules := api.Group("/schedules")
	{
		schedules.GET("", h.Schedules.List)
		schedules.POST("", manage, audit(models.AuditActionScheduleCreate, "schedule_assignment"), h.Schedules.Create)
		schedules.PUT("/:id", manage, audit(models.AuditActionScheduleUpdate, "schedule_assignment"), h.Schedules.Update)
		schedules.DELETE("/:id", manage, audit(models.AuditActionScheduleDelete, "schedule_assignment"), h.Schedules.Delete)

		schedules.GET("/availability/rooms/:id", h.Schedules.RoomAvailability)
		schedules.GET("/availability/professors/:id", h.Schedules.ProfessorAvailability)

		schedules.POST("/import", manage, audit(models.AuditActionScheduleImport, "schedule_import"), h.Imports.Upload)
		schedules.POST("/import/json", manage, audit(models.AuditActionScheduleImport, "schedule_import"), h.Imports.ImportJSON)
		schedules.POST("/import/jobs", manage, audit(models.AuditActionScheduleImport, "schedule_import"), h.Imports.EnqueueJob)
		schedules.GET("/import/jobs/:id", manage, h.Imports.GetJob)

		schedules.GET("/export", h.Exports.Timetable)
	}

	api.GET("/groups/active", h.Groups.Active)

	rooms := api.Group("/rooms")
	{
		rooms.GET("", h.Rooms.List)
		rooms.GET("/:id", h.Rooms.Get)
		rooms.POST("", manage, audit(models.AuditActionRoomCreate, "room"), h.Rooms.Create)
		rooms.PUT("/:id", manage, audit(models.AuditActionRoomUpdate, "room"), h.Rooms.Update)
		rooms.PATCH("/:id/toggle", manage, audit(models.AuditActionRoomToggle, "room"), h.Rooms.Toggle)
	}

	periods := api.Group("/periods")
	{
		periods.GET("", h.Periods.List)
		periods.GET("/active", h.Periods.Active)
		periods.GET("/:id", h.Periods.Get)
		periods.POST("", manage, audit(models.AuditActionPeriodCreate, "academic_period"), h.Periods.Create)
		periods.PUT("/:id", manage, audit(models.AuditActionPeriodUpdate, "academic_period"), h.Periods.Update)
		periods.POST("/:id/open", manage, audit(models.AuditActionPeriodOpen, "academic_period"), h.Periods.Open)
		periods.POST("/:id/close", manage, audit(models.AuditActionPeriodClose, "academic_period"), h.Periods.Close)
	}

	return r
}
