package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-intake-api/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-intake-api/internal/middleware"
	"github.com/noah-isme/timetable-intake-api/internal/repository"
	"github.com/noah-isme/timetable-intake-api/internal/service"
	"github.com/noah-isme/timetable-intake-api/pkg/cache"
	"github.com/noah-isme/timetable-intake-api/pkg/config"
	"github.com/noah-isme/timetable-intake-api/pkg/database"
	"github.com/noah-isme/timetable-intake-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-intake-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-intake-api/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-intake-api/pkg/storage"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// Redis backs the optional solver-payload cache. The service runs fine
	// without it, so a connection failure only downgrades to direct reads.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, solver cache disabled", "error", err)
		redisClient = nil
	}

	spool, err := storage.NewUploadSpool(cfg.Uploads.TmpDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload spool", "error", err)
	}
	if removed, err := spool.CleanupOlderThan(0); err != nil {
		logr.Sugar().Warnw("failed to clean stale uploads", "error", err)
	} else if removed > 0 {
		logr.Sugar().Infow("removed stale uploads", "count", removed)
	}

	teacherRepo := repository.NewTeacherRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	divisionRepo := repository.NewDivisionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	ingestSvc := service.NewIngestService(teacherRepo, subjectRepo, roomRepo, divisionRepo, cacheRepo, spool, nil, logr)
	assignmentSvc := service.NewAssignmentService(teacherRepo, subjectRepo, assignmentRepo, logr)
	exportSvc := service.NewExportService(assignmentSvc, nil, nil, logr)
	timetableSvc := service.NewTimetableService(cfg.Solver, cacheRepo, logr)

	uploadHandler := handler.NewUploadHandler(ingestSvc, spool, metricsSvc, logr)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc, exportSvc, logr)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, metricsSvc, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	r.GET("/", uploadHandler.Overview)
	r.POST("/upload", uploadHandler.Upload)
	r.GET("/assign-teachers", assignmentHandler.Board)
	r.POST("/assign", assignmentHandler.Apply)
	r.GET("/assign-teachers/export", assignmentHandler.Export)
	r.GET("/get-timetable", timetableHandler.Get)
	r.GET("/adjust-labs", timetableHandler.AdjustLabs)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting",
		zap.String("addr", addr),
		zap.String("env", cfg.Env),
		zap.String("solver", cfg.Solver.BaseURL),
	)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
