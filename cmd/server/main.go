package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fithub/workout-service/internal/api"
	"fithub/workout-service/internal/cache"
	"fithub/workout-service/internal/config"
	"fithub/workout-service/internal/logging"
	"fithub/workout-service/internal/repository/mongo"
	"fithub/workout-service/internal/service"
	"fithub/workout-service/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logger, err := logging.New(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("starting workout service", zap.String("address", cfg.Server.Address))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	// The partial unique index on assignments backs the one-active-plan-per-
	// member guarantee, so index creation failures are worth surfacing loudly.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercise_catalog")); err != nil {
			logger.Error("exercise index creation failed", zap.Error(err))
		}
		if err := mongo.EnsurePlanIndexes(ctx, appDB.Collection("workout_plans")); err != nil {
			logger.Error("plan index creation failed", zap.Error(err))
		}
		if err := mongo.EnsureAssignmentIndexes(ctx, appDB.Collection("assigned_workout_plans")); err != nil {
			logger.Error("assignment index creation failed", zap.Error(err))
		}
		if err := mongo.EnsureWorkoutLogIndexes(ctx, appDB.Collection("workout_logs")); err != nil {
			logger.Error("workout log index creation failed", zap.Error(err))
		}
	}()

	// --- File Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3, logger)
	if err != nil {
		logger.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	// --- Coherence Layer Backend ---
	var resultCache cache.ResultCache
	if cfg.Cache.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisAddr)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisCache.Close()
		resultCache = redisCache
		logger.Info("coherence layer using redis backend", zap.String("addr", cfg.Cache.RedisAddr))
	} else {
		resultCache = cache.NewMemoryCache()
		logger.Info("coherence layer using in-process backend")
	}
	coherence := cache.New(resultCache, cfg.Cache.TTL, logger)

	// --- Repositories ---
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	assignmentRepo := mongo.NewMongoAssignmentRepository(appDB)
	workoutLogRepo := mongo.NewMongoWorkoutLogRepository(appDB)

	// --- Services ---
	exerciseService := service.NewExerciseService(exerciseRepo, planRepo, fileStorage, logger)
	planService := service.NewPlanService(planRepo, exerciseRepo, assignmentRepo, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, planRepo, logger)
	workoutLogService := service.NewWorkoutLogService(workoutLogRepo, exerciseRepo, logger)

	// --- Expiry Sweep ---
	// Disabled by default; expired ACTIVE assignments are otherwise only
	// transitioned by an explicit complete call.
	sweepDone := make(chan struct{})
	if cfg.Assignment.SweepInterval > 0 {
		go runExpirySweep(assignmentService, cfg.Assignment.SweepInterval, logger, sweepDone)
		logger.Info("assignment expiry sweep enabled", zap.Duration("interval", cfg.Assignment.SweepInterval))
	}

	// --- Router ---
	if cfg.Server.Mode == "production" || cfg.Server.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, cfg.JWT.Secret, coherence, exerciseService, planService, assignmentService, workoutLogService)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen and serve error", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("address", cfg.Server.Address))

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	close(sweepDone)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exiting")
}

// runExpirySweep periodically completes ACTIVE assignments whose endDate has
// passed. Stored status never changes at read time; this sweep is the only
// automatic transition.
func runExpirySweep(assignments service.AssignmentService, interval time.Duration, logger *zap.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := assignments.CompleteExpired(ctx); err != nil {
				logger.Error("expiry sweep failed", zap.Error(err))
			}
			cancel()
		}
	}
}
