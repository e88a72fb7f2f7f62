package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/training-monitor-api/internal/handler"
	"github.com/noah-isme/training-monitor-api/internal/middleware"
	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/service"
	"github.com/noah-isme/training-monitor-api/pkg/config"
	"github.com/noah-isme/training-monitor-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/training-monitor-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/training-monitor-api/pkg/middleware/requestid"
)

type routeDeps struct {
	auth    middleware.TokenValidator
	metrics *service.MetricsService

	authH       *handler.AuthHandler
	metricsH    *handler.MetricsHandler
	institution *handler.InstitutionHandler
	trainee     *handler.TraineeHandler
	supervisor  *handler.SupervisorHandler
	assignment  *handler.AssignmentHandler
	evaluation  *handler.EvaluationHandler
	attendance  *handler.AttendanceHandler
	report      *handler.ReportHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))

	r.GET("/health", d.metricsH.Health)
	r.GET("/ready", d.metricsH.Ready)
	r.GET("/metrics", d.metricsH.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", d.authH.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.auth), middleware.AssignmentMemo())
	secured.GET("/auth/me", d.authH.Me)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor)

	institutions := secured.Group("/institutions")
	institutions.GET("", d.institution.List)
	institutions.GET("/:id", d.institution.Get)
	institutions.POST("", adminOnly, d.institution.Create)

	trainees := secured.Group("/trainees")
	trainees.GET("", d.trainee.List)
	trainees.GET("/:id", d.trainee.Get)
	trainees.GET("/:id/supervisors", d.trainee.Supervisors)
	trainees.POST("", adminOnly, d.trainee.Create)
	trainees.PUT("/:id", adminOnly, d.trainee.Update)

	supervisors := secured.Group("/supervisors")
	supervisors.GET("", adminOnly, d.supervisor.List)
	supervisors.GET("/:id", adminOnly, d.supervisor.Get)
	supervisors.GET("/:id/trainees", staff, d.supervisor.Trainees)
	supervisors.POST("", adminOnly, d.supervisor.Create)

	assignments := secured.Group("/assignments", adminOnly)
	assignments.POST("", d.assignment.Create)
	assignments.DELETE("/:id", d.assignment.Delete)

	evaluations := secured.Group("/evaluations")
	evaluations.GET("", d.evaluation.List)
	evaluations.GET("/export", d.evaluation.Export)
	evaluations.GET("/:id", d.evaluation.Get)
	evaluations.POST("", staff, d.evaluation.Create)
	evaluations.POST("/:id/review", d.evaluation.Review)

	attendance := secured.Group("/attendance")
	attendance.GET("", d.attendance.List)
	attendance.GET("/:id", d.attendance.Get)
	attendance.POST("", d.attendance.Create)
	attendance.POST("/:id/review", d.attendance.Review)

	reports := secured.Group("/reports")
	reports.GET("", d.report.List)
	reports.GET("/:id", d.report.Get)
	reports.POST("", d.report.Create)
	reports.POST("/:id/review", d.report.Review)

	return r
}
