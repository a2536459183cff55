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

	"github.com/word-munch/backend/internal/analysis"
	"github.com/word-munch/backend/internal/api/handlers"
	"github.com/word-munch/backend/internal/cache/redis"
	"github.com/word-munch/backend/internal/cognitive"
	"github.com/word-munch/backend/internal/llm"
	"github.com/word-munch/backend/internal/metrics"
	"github.com/word-munch/backend/internal/middleware/ratelimit"
	"github.com/word-munch/backend/internal/middleware/security"
	"github.com/word-munch/backend/internal/middleware/validation"
	"github.com/word-munch/backend/internal/search"
	"github.com/word-munch/backend/internal/storage/sqlite"
	"github.com/word-munch/backend/internal/words"
	"github.com/word-munch/backend/pkg/config"
	appLogger "github.com/word-munch/backend/pkg/logger"
)

const purgeInterval = time.Hour

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

	appLogger.Info("Starting Word Munch API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// The cache is an accelerator, not a dependency. A dead Redis means
	// slower requests, not a dead server.
	redisClient, err := redis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
	)

	var segmentCache analysis.SegmentCache
	var embeddingCache analysis.EmbeddingCache
	var synonymCache words.SynonymCache
	var profileCache cognitive.ProfileCache
	if redisClient != nil {
		segmentCache = redisClient
		embeddingCache = redisClient
		synonymCache = redisClient
		profileCache = redisClient
	}

	segmenter := analysis.NewSegmenter(segmentCache)
	scorer := analysis.NewScorer(llmClient, embeddingCache, segmenter, cfg.Analysis.MaxParallelEmbed)
	extractor := analysis.NewContextExtractor(llmClient)
	synthesizer := analysis.NewFeedbackSynthesizer(llmClient)
	engine := analysis.NewEngine(scorer, extractor, synthesizer)

	profileService := cognitive.NewProfileService(sqliteClient, profileCache)
	recorder := cognitive.NewRecorder(profileService, cfg.Analysis.RecordQueueSize)
	defer recorder.Close()

	muncher := words.NewMuncher(llmClient, synonymCache)
	searchEngine := search.NewEngine(
		llmClient,
		cfg.Search.DefaultTopK,
		cfg.Search.SimilarityThreshold,
		cfg.Search.MaxChunks,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(validation.Middleware(validation.Config{
		MinOriginalWords: cfg.Analysis.MinOriginalWords,
		Logger:           appLogger.GetLogger(),
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	comprehensionHandler := handlers.NewComprehensionHandler(engine, recorder, sqliteClient)
	profileHandler := handlers.NewProfileHandler(profileService)
	wordHandler := handlers.NewWordHandler(muncher)
	searchHandler := handlers.NewSearchHandler(searchEngine)
	wsHandler := handlers.NewWebSocketHandler(engine, recorder)

	api := app.Group("/api/v1")

	api.Post("/comprehension", comprehensionHandler.HandleAnalyze)
	api.Get("/comprehension/history", comprehensionHandler.GetHistory)

	api.Post("/profile/record", profileHandler.HandleRecord)
	api.Get("/profile", profileHandler.HandleGetProfile)

	api.Post("/words/simplify", wordHandler.HandleSimplify)

	api.Post("/search", searchHandler.HandleSearch)
	api.Post("/extract", searchHandler.HandleExtract)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws/comprehension", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	purgeDone := make(chan struct{})
	go runRetentionPurge(sqliteClient, purgeDone)

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
	close(purgeDone)
	app.Shutdown()
	appLogger.Info("Server stopped")
}

// runRetentionPurge deletes expired cognitive records once an hour until the
// done channel closes.
func runRetentionPurge(db *sqlite.Client, done <-chan struct{}) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			_, err := db.PurgeExpired(ctx, time.Now().Unix())
			cancel()
			if err != nil {
				appLogger.Error("Retention purge failed", zap.Error(err))
			}
		}
	}
}
