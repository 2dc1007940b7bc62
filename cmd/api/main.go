package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/healthnet/backend/internal/api/handlers"
	"github.com/healthnet/backend/internal/cache/redis"
	"github.com/healthnet/backend/internal/catalog"
	"github.com/healthnet/backend/internal/ingestion"
	"github.com/healthnet/backend/internal/kg/builder"
	"github.com/healthnet/backend/internal/kg/neo4j"
	"github.com/healthnet/backend/internal/llm"
	"github.com/healthnet/backend/internal/metrics"
	"github.com/healthnet/backend/internal/middleware/ratelimit"
	"github.com/healthnet/backend/internal/middleware/security"
	"github.com/healthnet/backend/internal/middleware/validation"
	"github.com/healthnet/backend/internal/recommend"
	"github.com/healthnet/backend/internal/severity"
	"github.com/healthnet/backend/internal/storage/sqlite"
	"github.com/healthnet/backend/internal/vector/milvus"
	"github.com/healthnet/backend/pkg/config"
	appLogger "github.com/healthnet/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting HealthNet recommendation API server")

	metrics.Init()

	cat, err := loadCatalog(cfg)
	if err != nil {
		appLogger.Fatal("Failed to load dataset", zap.Error(err))
	}

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
	)

	milvusClient, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.CollectionPrefix,
		cfg.Milvus.VectorDim,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
	}
	defer milvusClient.Close()

	// Index construction failure is a startup failure, not a per-request one.
	indexer := ingestion.NewIndexer(llmClient, milvusClient)
	if err := indexer.BuildAll(context.Background(), cat); err != nil {
		appLogger.Fatal("Failed to build vector index", zap.Error(err))
	}

	policy := severity.ForName(cfg.Severity.Policy)
	generator := recommend.GeneratorForMode(cfg.Generator.Mode, llmClient)

	engine := recommend.NewEngine(cat, llmClient, milvusClient, policy, generator, cfg.Retrieval).
		WithHistory(sqliteClient)

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		ttl := time.Duration(cfg.Redis.TTLSec) * time.Second
		engine.WithCache(redisClient, ttl)
		llmClient.WithEmbeddingCache(redisClient, ttl)
	}

	if cfg.KG.Enabled {
		neo4jClient, err := neo4j.NewClient(
			cfg.Neo4j.URI,
			cfg.Neo4j.Username,
			cfg.Neo4j.Password,
			cfg.Neo4j.Database,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Neo4j client", zap.Error(err))
		}
		defer neo4jClient.Close(context.Background())

		kgBuilder := builder.NewBuilder(neo4jClient)
		if err := kgBuilder.Sync(context.Background(), cat); err != nil {
			appLogger.Fatal("Failed to sync knowledge graph", zap.Error(err))
		}
		engine.WithDoctorFinder(neo4jClient)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	rateLimiter := ratelimit.New(ratelimit.Config{Logger: appLogger.GetLogger()})
	defer rateLimiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(rateLimiter.Middleware())
	app.Use(validation.Middleware(validation.Config{Logger: appLogger.GetLogger()}))

	recommendHandler := handlers.NewRecommendHandler(engine)
	historyHandler := handlers.NewHistoryHandler(sqliteClient)
	analyticsHandler := handlers.NewAnalyticsHandler(cat)
	wsHandler := handlers.NewWebSocketHandler(engine)

	// Primary route plus the versioned alias.
	app.Post("/recommend", recommendHandler.HandleRecommend)

	api := app.Group("/api/v1")
	api.Post("/recommend", recommendHandler.HandleRecommend)
	api.Get("/history", historyHandler.GetHistory)
	api.Post("/feedback", historyHandler.SubmitFeedback)
	api.Get("/analytics/hospitals", analyticsHandler.GetHospitalCapacity)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "healthy",
			"llm_breaker": llmClient.BreakerState(),
			"time":        time.Now().Unix(),
		})
	})

	// Not ready while the provider circuit is open: recommendations would
	// fail immediately anyway.
	api.Get("/ready", func(c *fiber.Ctx) error {
		state := llmClient.BreakerState()
		if state == "open" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":      "degraded",
				"llm_breaker": state,
			})
		}
		return c.JSON(fiber.Map{
			"status":      "ready",
			"llm_breaker": state,
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/recommend", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Dataset.Source == "csv" {
		return catalog.LoadCSV(cfg.Dataset.Dir)
	}
	return catalog.Fixture(), nil
}
