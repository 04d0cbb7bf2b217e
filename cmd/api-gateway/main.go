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
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/classquest-api/api/swagger"
	"github.com/noah-isme/classquest-api/internal/handler"
	"github.com/noah-isme/classquest-api/internal/middleware"
	"github.com/noah-isme/classquest-api/internal/repository"
	"github.com/noah-isme/classquest-api/internal/service"
	"github.com/noah-isme/classquest-api/pkg/cache"
	"github.com/noah-isme/classquest-api/pkg/config"
	"github.com/noah-isme/classquest-api/pkg/database"
	"github.com/noah-isme/classquest-api/pkg/jobs"
	"github.com/noah-isme/classquest-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/classquest-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/classquest-api/pkg/middleware/requestid"
	"github.com/noah-isme/classquest-api/pkg/storage"
)

// @title ClassQuest API
// @version 1.0.0
// @description Gamified classroom platform: courses, chapters, tests, credits and ranks.
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	app := buildApp(ctx, cfg, db, logr)
	defer app.shutdown()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, middleware.ActorID))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))
	r.Use(middleware.WithResponseMeta())
	registerRoutes(r, cfg, app)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// app holds the wired handlers and the resources that need closing.
type app struct {
	metrics *service.MetricsService
	guard   *service.Guard
	auth    *service.AuthService

	authHandler         *handler.AuthHandler
	profileHandler      *handler.ProfileHandler
	courseHandler       *handler.CourseHandler
	chapterHandler      *handler.ChapterHandler
	testHandler         *handler.TestHandler
	enrollmentHandler   *handler.EnrollmentHandler
	announcementHandler *handler.AnnouncementHandler
	leaderboardHandler  *handler.LeaderboardHandler
	studentHandler      *handler.StudentHandler
	progressHandler     *handler.ProgressHandler
	exportHandler       *handler.ExportHandler
	metricsHandler      *handler.MetricsHandler

	closers []func()
}

func (a *app) shutdown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, logr *zap.Logger) *app {
	a := &app{metrics: service.NewMetricsService()}
	validate := service.NewValidator()

	tx := repository.NewTxManager(db)
	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	chapters := repository.NewChapterRepository(db)
	completions := repository.NewCompletionRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	tests := repository.NewTestRepository(db)
	results := repository.NewTestResultRepository(db)
	announcements := repository.NewAnnouncementRepository(db)

	var cacheSvc *service.CacheService
	if cfg.Leaderboard.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, leaderboard served without cache", zap.Error(err))
		} else {
			a.closers = append(a.closers, func() { _ = client.Close() })
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(client, logr), a.metrics, cfg.Leaderboard.CacheTTL, logr, true)
		}
	}

	a.guard = service.NewGuard(users)
	leaderboard := service.NewLeaderboardService(users, cacheSvc, a.metrics, cfg.Leaderboard.CacheTTL, logr)
	a.auth = service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	scoring := service.NewScoringService(service.ScoringServiceParams{
		Guard:       a.guard,
		Tx:          tx,
		Users:       users,
		Chapters:    chapters,
		Courses:     courses,
		Completions: completions,
		Enrollments: enrollments,
		Tests:       tests,
		Results:     results,
		Leaderboard: leaderboard,
		Metrics:     a.metrics,
		Validator:   validate,
		Logger:      logr,
		Config: service.ScoringConfig{
			AllowResubmission: cfg.Scoring.AllowResubmission,
			MaxManualAward:    cfg.Scoring.MaxManualAward,
		},
	})
	courseSvc := service.NewCourseService(service.CourseServiceParams{
		Guard:       a.guard,
		Tx:          tx,
		Courses:     courses,
		Teachers:    users,
		Chapters:    chapters,
		Completions: completions,
		Enrollments: enrollments,
		Validator:   validate,
		Logger:      logr,
	})
	chapterSvc := service.NewChapterService(service.ChapterServiceParams{
		Guard:       a.guard,
		Tx:          tx,
		Chapters:    chapters,
		Courses:     courses,
		Completions: completions,
		Enrollments: enrollments,
		Validator:   validate,
		Logger:      logr,
	})
	studentSvc := service.NewStudentService(service.StudentServiceParams{
		Guard:       a.guard,
		Tx:          tx,
		Users:       users,
		Courses:     courses,
		Completions: completions,
		Results:     results,
		Enrollments: enrollments,
		Leaderboard: leaderboard,
		Validator:   validate,
		Logger:      logr,
	})

	a.authHandler = handler.NewAuthHandler(a.auth)
	a.profileHandler = handler.NewProfileHandler(service.NewProfileService(a.guard, users, validate, logr))
	a.courseHandler = handler.NewCourseHandler(courseSvc)
	a.chapterHandler = handler.NewChapterHandler(chapterSvc, scoring)
	a.testHandler = handler.NewTestHandler(service.NewTestService(a.guard, tests, validate, logr), scoring)
	a.enrollmentHandler = handler.NewEnrollmentHandler(service.NewEnrollmentService(a.guard, tx, enrollments, courses, users, logr))
	a.announcementHandler = handler.NewAnnouncementHandler(service.NewAnnouncementService(a.guard, announcements, courses, validate, logr))
	a.leaderboardHandler = handler.NewLeaderboardHandler(leaderboard)
	a.studentHandler = handler.NewStudentHandler(studentSvc)
	a.progressHandler = handler.NewProgressHandler(scoring)
	a.metricsHandler = handler.NewMetricsHandler(a.metrics, db)
	a.exportHandler = handler.NewExportHandler(nil)

	if cfg.Exports.Enabled {
		if exportSvc := buildExports(ctx, cfg, db, a, tests, results, validate, logr); exportSvc != nil {
			a.exportHandler = handler.NewExportHandler(exportSvc)
		}
	}
	return a
}

func buildExports(ctx context.Context, cfg *config.Config, db *sqlx.DB, a *app, tests *repository.TestRepository, results *repository.TestResultRepository, validate *validator.Validate, logr *zap.Logger) *service.ExportJobService {
	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Error("exports disabled: storage unavailable", zap.Error(err))
		return nil
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(tests, results, files, signer, logr)
	jobRepo := repository.NewExportJobRepository(db)

	queue := jobs.NewQueue("exports", jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	worker := service.NewExportWorker(jobRepo, exporter, cfg.Exports.WorkerRetries, logr)
	queue.Handle(service.ExportJobType, worker.Handle)
	queue.Start(ctx)
	a.closers = append(a.closers, queue.Stop)

	svc := service.NewExportJobService(a.guard, jobRepo, tests, queue, exporter, validate, logr, service.ExportJobConfig{
		Retention:       cfg.Exports.Retention,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	svc.RecoverPendingJobs(ctx)
	svc.StartCleanup(ctx)
	return svc
}
