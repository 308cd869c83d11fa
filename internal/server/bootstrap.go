package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnnest/internal/adapter"
	"learnnest/internal/adapter/embedding"
	"learnnest/internal/adapter/llm"
	"learnnest/internal/adapter/vectorindex"
	"learnnest/internal/cache"
	"learnnest/internal/config"
	"learnnest/internal/database"
	"learnnest/internal/domain"
	"learnnest/internal/handler"
	"learnnest/internal/logger"
	"learnnest/internal/quizgen"
	"learnnest/internal/repository"
	"learnnest/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container holds the wired application and the resources it owns.
type Container struct {
	App   *fiber.App
	redis *redis.Client
	db    *sqlx.DB
}

// Close releases the database pool and the Redis client.
func (c *Container) Close() error {
	var errs []error
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	return errors.Join(errs...)
}

// Build wires every adapter from cfg. Redis is required. The database, the
// vector index and either completer may be absent: runs then degrade, or are
// refused with a failed precondition when a completer is missing.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.Get()
	container := &Container{}

	authService, err := service.NewAuthService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	container.redis = redisClient
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	log.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))

	var quizLogs *repository.QuizLogRepository
	if cfg.DB.Host != "" {
		db, err := database.NewSQLXOracleDB(ctx, cfg.GetDSN())
		if err != nil {
			_ = container.Close()
			return nil, err
		}
		container.db = db
		quizLogs = repository.NewQuizLogRepository(db, repository.NewTransactionManagerAdapter(db))
	} else {
		log.Warn("Database is not configured; audit records and stored results are disabled")
	}

	embeddingTTL := cfg.ParseTTLStringOrDefault(cfg.CacheTTLs.Embedding, embedding.DefaultTTL)
	embedder, err := newEmbeddingService(cfg, cacheAdapter, embeddingTTL)
	if err != nil {
		log.Error("Embedding service unavailable; retrieval will be skipped", zap.Error(err))
	}

	var index domain.VectorIndex
	if cfg.Pinecone.APIKey != "" && cfg.Pinecone.IndexHost != "" {
		pc, err := vectorindex.NewPineconeIndex(cfg.Pinecone.APIKey, cfg.Pinecone.IndexHost, cfg.Pinecone.Namespace)
		if err != nil {
			log.Error("Vector index unavailable; retrieval will be skipped", zap.Error(err))
		} else {
			index = pc
		}
	} else {
		log.Warn("Pinecone is not configured; retrieval will be skipped")
	}

	primary, err := llm.NewCompleter(ctx, cfg.LLM.Primary, cfg.LLM)
	if err != nil {
		log.Error("Primary completer unavailable", zap.String("provider", cfg.LLM.Primary.Provider), zap.Error(err))
	}
	secondary, err := llm.NewCompleter(ctx, cfg.LLM.Secondary, cfg.LLM)
	if err != nil {
		log.Error("Secondary completer unavailable", zap.String("provider", cfg.LLM.Secondary.Provider), zap.Error(err))
	}

	deps := quizgen.Deps{
		Primary:   primary,
		Secondary: secondary,
		Index:     index,
		Logger:    log.Named("quizgen"),
	}
	// Typed nils must not reach the pipeline's nil checks.
	if embedder != nil {
		deps.Embedder = embedder
	}
	if quizLogs != nil {
		deps.Audit = quizLogs
	}
	pipeline := quizgen.NewPipeline(pipelineConfig(cfg), deps)

	resultTTL := cfg.ParseTTLStringOrDefault(cfg.CacheTTLs.QuizResult, 24*time.Hour)
	resultCache := service.NewQuizResultCacheService(cacheAdapter, resultTTL)

	var (
		results domain.QuizResultRepository
		lister  service.GenerationLogLister
	)
	checks := map[string]handler.Pinger{"redis": cacheAdapter}
	if quizLogs != nil {
		results, lister = quizLogs, quizLogs
		checks["database"] = quizLogs
	}
	quizService := service.NewQuizService(pipeline, results, lister, resultCache)

	container.App = NewApp(cfg.Server, Handlers{
		Quiz:   handler.NewQuizHandler(quizService),
		Health: handler.NewHealthHandler(checks),
		Auth:   authService,
	})
	return container, nil
}

func newEmbeddingService(cfg *config.Config, c domain.Cache, ttl time.Duration) (*embedding.CachedService, error) {
	log := logger.Get().Named("embedding")
	switch cfg.Embedding.Source {
	case "ollama":
		return embedding.NewOllamaEmbeddingService(cfg.Embedding.OllamaServer, cfg.Embedding.OllamaModel, c, ttl, log)
	case "openai":
		return embedding.NewOpenAIEmbeddingService(cfg.LLM.OpenAIAPIKey, cfg.Embedding.OpenAIModel, c, ttl, log)
	default:
		return nil, fmt.Errorf("unsupported embedding source: %s", cfg.Embedding.Source)
	}
}

func pipelineConfig(cfg *config.Config) quizgen.Config {
	return quizgen.Config{
		MaxChunkChars:        cfg.Pipeline.MaxChunkChars,
		MaxChunks:            cfg.Pipeline.MaxChunks,
		SupplementalChars:    cfg.Pipeline.SupplementalChars,
		TopK:                 cfg.Pinecone.TopK,
		Timeout:              cfg.Pipeline.Timeout,
		GeneratorTemperature: cfg.LLM.Primary.Temperature,
		ValidatorTemperature: cfg.LLM.Secondary.Temperature,
		Location:             cfg.TitleLocation(),
	}
}
