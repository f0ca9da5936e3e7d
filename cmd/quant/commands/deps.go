package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/sentiforecast/internal/brain"
	"github.com/wonny/sentiforecast/internal/external/inference"
	"github.com/wonny/sentiforecast/internal/forecast"
	"github.com/wonny/sentiforecast/internal/modelconfig"
	"github.com/wonny/sentiforecast/internal/s0_data/quality"
	"github.com/wonny/sentiforecast/internal/s3_sentiment"
	"github.com/wonny/sentiforecast/pkg/config"
	"github.com/wonny/sentiforecast/pkg/database"
	"github.com/wonny/sentiforecast/pkg/httputil"
	"github.com/wonny/sentiforecast/pkg/logger"
	"github.com/wonny/sentiforecast/pkg/redis"
)

// runtime 커맨드 공통 의존성
type runtime struct {
	cfg   *config.Config
	log   *logger.Logger
	model *modelconfig.Config

	// 선택 의존성 (설정되지 않으면 nil / disabled)
	db    *database.DB
	redis *redis.Client
	cache *redis.Cache
	infer *inference.Client
}

// initRuntime loads config and connects the optional stores.
// 1. config (.env) → 2. logger → 3. model YAML → 4. DB → 5. Redis → 6. inference client
func initRuntime(ctx context.Context) (*runtime, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	rt := &runtime{cfg: cfg, log: log}

	// 3. Model config (플래그 > MODEL_CONFIG > 기본값)
	path := modelConfigFile
	if path == "" {
		path = cfg.Pipeline.ModelConfigPath
	}
	rt.model, err = modelconfig.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load model config: %w", err)
	}

	// 4. Connect to database (선택)
	if cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		schema := append(append([]string{}, quality.Schema...), forecast.Schema...)
		if err := db.Migrate(ctx, schema...); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		rt.db = db
	}

	// 5. Connect to Redis (비활성 설정이면 no-op 클라이언트)
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	rt.redis = rc
	rt.cache = redis.NewCache(rc, "sentiforecast")

	// 6. Inference client (선택)
	if cfg.Inference.Enabled() {
		httpClient := httputil.NewWithTimeout(log, cfg.Inference.Timeout).
			WithRetry(cfg.Inference.MaxRetries, time.Second)
		if rc.Enabled() {
			// 여러 프로세스가 같은 한도를 공유
			limiter := redis.NewRateLimiter(rc, "ratelimit").Bind(redis.InferenceRateLimit(cfg.Inference.RequestsPerSecond))
			httpClient.WithLimiter(limiter)
		} else {
			httpClient.WithRateLimit(cfg.Inference.RequestsPerSecond)
		}
		rt.infer = inference.NewClient(cfg.Inference, httpClient, rt.cache, log.Component("inference"))
	}

	return rt, nil
}

// orchestrator builds the pipeline orchestrator from the runtime
func (rt *runtime) orchestrator() *brain.Orchestrator {
	var (
		scorer       s3_sentiment.Scorer
		topics       s3_sentiment.TopicClassifier
		qualityRepo  *quality.Repository
		forecastRepo *forecast.Repository
	)
	if rt.infer != nil {
		scorer, topics = rt.infer, rt.infer
	}
	if rt.db != nil {
		qualityRepo = quality.NewRepository(rt.db.Pool)
		forecastRepo = forecast.NewRepository(rt.db.Pool)
	}

	return brain.NewOrchestrator(scorer, topics, quality.NewQualityGate(quality.DefaultConfig()), qualityRepo, forecastRepo, rt.log).
		WithBatchSize(rt.cfg.Inference.BatchSize)
}

// Close releases the optional stores
func (rt *runtime) Close() {
	if rt.db != nil {
		rt.db.Close()
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
}
