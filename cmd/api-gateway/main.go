package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/training-monitor-api/api/swagger"
	"github.com/noah-isme/training-monitor-api/internal/handler"
	"github.com/noah-isme/training-monitor-api/internal/policy"
	"github.com/noah-isme/training-monitor-api/internal/repository"
	"github.com/noah-isme/training-monitor-api/internal/service"
	"github.com/noah-isme/training-monitor-api/pkg/cache"
	"github.com/noah-isme/training-monitor-api/pkg/config"
	"github.com/noah-isme/training-monitor-api/pkg/database"
	"github.com/noah-isme/training-monitor-api/pkg/export"
	"github.com/noah-isme/training-monitor-api/pkg/logger"
)

// @title Training Monitor API
// @version 1.0.0
// @description Trainee supervision, evaluation and attendance review
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Assignments.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, assignment cache disabled", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient)
	defer cacheRepo.Close() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	traineeRepo := repository.NewTraineeRepository(db)
	supervisorRepo := repository.NewSupervisorRepository(db)

	assignmentCache := service.NewCacheService(
		cacheRepo,
		metrics,
		cfg.Assignments.CacheTTL,
		logr,
		redisClient != nil,
	)
	assignments := service.NewAssignmentService(
		repository.NewAssignmentRepository(db),
		traineeRepo,
		supervisorRepo,
		users,
		validate,
		logr,
		service.WithAssignmentCache(assignmentCache),
		service.WithPrimaryPolicy(cfg.Assignments.PrimaryPolicy),
	)
	resolver := policy.NewResolver(assignments)
	workflow := service.NewWorkflow(resolver, traineeRepo, users, metrics, logr)

	evaluations := service.NewEvaluationService(repository.NewEvaluationRepository(db), workflow, validate)
	var exporter *service.ExportService
	if cfg.Exports.Enabled {
		exporter = service.NewExportService(evaluations, export.Renderers(), logr)
	}

	auth := service.NewAuthService(users, traineeRepo, supervisorRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	deps := routeDeps{
		auth:        auth,
		metrics:     metrics,
		authH:       handler.NewAuthHandler(auth),
		metricsH:    handler.NewMetricsHandler(metrics, db),
		institution: handler.NewInstitutionHandler(service.NewInstitutionService(institutionRepo, validate)),
		trainee: handler.NewTraineeHandler(
			service.NewTraineeService(traineeRepo, institutionRepo, resolver, users, validate, logr),
			assignments,
		),
		supervisor: handler.NewSupervisorHandler(service.NewSupervisorService(supervisorRepo, institutionRepo, validate), assignments),
		assignment: handler.NewAssignmentHandler(assignments),
		evaluation: handler.NewEvaluationHandler(evaluations, exporterOrNil(exporter)),
		attendance: handler.NewAttendanceHandler(service.NewAttendanceService(repository.NewAttendanceRepository(db), workflow, validate)),
		report:     handler.NewReportHandler(service.NewReportService(repository.NewReportRepository(db), workflow, validate)),
	}

	r := newRouter(cfg, logr, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// exporterOrNil keeps a disabled exporter a true nil interface for the handler.
func exporterOrNil(exporter *service.ExportService) handler.EvaluationExporter {
	if exporter == nil {
		return nil
	}
	return exporter
}
