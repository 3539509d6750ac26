package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hseg-analytics/riskmeter/internal/artifacts"
	"github.com/hseg-analytics/riskmeter/internal/cache"
	"github.com/hseg-analytics/riskmeter/internal/config"
	apperrors "github.com/hseg-analytics/riskmeter/internal/errors"
	"github.com/hseg-analytics/riskmeter/internal/monitoring"
	"github.com/hseg-analytics/riskmeter/internal/orgstats"
	"github.com/hseg-analytics/riskmeter/internal/predict"
	"github.com/hseg-analytics/riskmeter/internal/privacy"
	"github.com/hseg-analytics/riskmeter/internal/ratelimit"
	"github.com/hseg-analytics/riskmeter/internal/scoring"
	"github.com/hseg-analytics/riskmeter/internal/security"
	"github.com/hseg-analytics/riskmeter/internal/store"
	"github.com/hseg-analytics/riskmeter/internal/textrisk"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := monitoring.NewLogger(parseLogLevel(cfg.LogLevel))
	slog.SetDefault(logger.Logger)

	artifactStore, err := artifacts.NewStore(cfg.ArtifactDir)
	if err != nil {
		logger.Error("Failed to load model artifacts", "error", err)
		os.Exit(1)
	}
	logger.ArtifactLogger("load", artifactStore.Current().Version, nil)

	scorer := scoring.NewScorer(scoring.DefaultConfig())
	predictor := predict.NewPredictor(artifactStore, scorer, predict.Options{
		ConfidenceFloor:        cfg.ConfidenceFloor,
		AllowHeuristicFallback: cfg.AllowHeuristicFallback,
	})
	classifier := textrisk.NewClassifier(artifactStore, cfg.SelfHarmThreshold)
	aggregator := orgstats.NewAggregator(artifactStore, scorer.Config(), gatePolicy(cfg))

	resultStore, err := store.NewSQLiteStore(cfg.DataDir, logger)
	if err != nil {
		logger.Error("Failed to open result store", "error", err)
		os.Exit(1)
	}
	defer resultStore.Close()

	snapshots := cache.NewSnapshotCache(15 * time.Minute)
	limiter := ratelimit.NewLimiter(cfg.IPLimitPerMin)
	metrics := monitoring.NewMetrics()
	privacySvc := privacy.NewService(resultStore, snapshots, logger)

	retentionCtx, stopRetention := context.WithCancel(context.Background())
	defer stopRetention()
	go privacySvc.StartRetentionLoop(retentionCtx, privacy.DefaultRetentionDays)

	api := &API{
		logger:     logger,
		metrics:    metrics,
		artifacts:  artifactStore,
		predictor:  predictor,
		classifier: classifier,
		aggregator: aggregator,
		results:    resultStore,
		snapshots:  snapshots,
		privacy:    privacySvc,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(security.HeadersMiddleware())
	r.Use(cors.Default())
	r.Use(monitoring.RequestMiddleware(metrics, logger))
	r.Use(limiter.Middleware())
	r.Use(apperrors.ErrorHandler())

	r.GET("/healthz", api.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/score/individual", api.ScoreIndividual)
		v1.POST("/classify/text", api.ClassifyText)
		v1.POST("/organizations/snapshot", api.OrganizationSnapshot)
		v1.POST("/artifacts/reload", api.ReloadArtifacts)
		v1.GET("/privacy/policy", api.PrivacyPolicy)
		v1.DELETE("/organizations/:org_id/data", api.DeleteOrgData)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited")
}

// gatePolicy applies per-tier environment overrides onto the canonical
// sample-gate table.
func gatePolicy(cfg *config.Config) orgstats.GatePolicy {
	gate := orgstats.DefaultGatePolicy()
	if cfg.MicroMinSample > 0 {
		gate.Micro = cfg.MicroMinSample
	}
	if cfg.SmallMinSample > 0 {
		gate.Small = cfg.SmallMinSample
	}
	if cfg.MediumMinSample > 0 {
		gate.Medium = cfg.MediumMinSample
	}
	if cfg.LargeMinSample > 0 {
		gate.Large = cfg.LargeMinSample
	}
	return gate
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
