package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"jarvislive/internal/capability"
	"jarvislive/internal/classifier"
	"jarvislive/internal/config"
	"jarvislive/internal/conversation"
	"jarvislive/internal/generative"
	"jarvislive/internal/handlers"
	"jarvislive/internal/logging"
	"jarvislive/internal/metrics"
	"jarvislive/internal/models"
	"jarvislive/internal/pipeline"
	"jarvislive/internal/pubsub"
	"jarvislive/internal/routing"
	"jarvislive/internal/session"
)

// capabilityEndpoints maps capability-routed intents to the env var naming
// their MCP server URL. Intents without a configured URL get no executor
// and route to the generative fallback.
var capabilityEndpoints = map[models.Intent]string{
	models.IntentGenerateDocument: "MCP_DOCUMENT_URL",
	models.IntentSendEmail:        "MCP_EMAIL_URL",
	models.IntentSearch:           "MCP_SEARCH_URL",
	models.IntentCalendar:         "MCP_CALENDAR_URL",
	models.IntentStorage:          "MCP_STORAGE_URL",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Jarvis Live voice core...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	// Conversation sink (SQLite, append-only)
	store, err := conversation.NewStore(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to open conversation store: %v", err)
	}
	defer store.Close()
	if err := store.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize conversation store: %v", err)
	}

	// Optional Redis alert publisher
	var publisher metrics.Publisher
	if cfg.RedisURL != "" {
		redisPublisher, err := pubsub.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, alert publishing disabled: %v", err)
		} else {
			defer redisPublisher.Close()
			publisher = redisPublisher
		}
	}

	// Metrics & alerting engine
	instruments := metrics.InitInstruments()
	engine := metrics.NewEngine(metrics.Config{
		SampleCap:              cfg.SampleCap,
		SnapshotWindow:         cfg.SnapshotWindow,
		SnapshotInterval:       cfg.SnapshotInterval,
		SnapshotHistoryCap:     cfg.SnapshotHistoryCap,
		AlertCap:               cfg.AlertCap,
		SlowThreshold:          cfg.SlowThreshold,
		SuccessRateWindow:      cfg.SuccessRateWindow,
		LowSuccessRate:         cfg.LowSuccessRate,
		CapabilityLatencyLimit: cfg.CapabilityLatencyLimit,
		FallbackLatencyLimit:   cfg.FallbackLatencyLimit,
	}, publisher, instruments)
	if err := engine.Start(); err != nil {
		log.Fatalf("❌ Failed to start metrics engine: %v", err)
	}
	defer engine.Stop()

	// Pattern classifier, optionally with a YAML registry override
	var patterns []classifier.Pattern
	if cfg.PatternsPath != "" {
		patterns, err = classifier.LoadPatterns(cfg.PatternsPath)
		if err != nil {
			log.Fatalf("❌ Failed to load pattern registry: %v", err)
		}
		log.Printf("📚 Loaded %d patterns from %s", len(patterns), cfg.PatternsPath)
	}
	local := classifier.NewService(classifier.Options{
		Patterns:        patterns,
		Threshold:       cfg.ClassificationThreshold,
		HistoryCap:      cfg.ClassifierHistoryCap,
		DefaultLanguage: cfg.DefaultLanguage,
	})

	// Remote classification adapter wraps the local classifier when a
	// remote service is configured.
	var pipelineClassifier pipeline.Classifier = local
	if cfg.RemoteClassifierURL != "" {
		remote := classifier.NewRemoteClassifier(classifier.RemoteOptions{
			URL:        cfg.RemoteClassifierURL,
			CacheTTL:   cfg.RemoteCacheTTL,
			RatePerSec: cfg.RemoteRatePerSecond,
			Local:      local,
		})
		pipelineClassifier = remoteAdapter{remote}
		log.Printf("🌐 Remote classifier enabled: %s", cfg.RemoteClassifierURL)
	}

	// Capability executors from configured MCP server URLs
	registry := capability.NewRegistry()
	for intent, envKey := range capabilityEndpoints {
		if url := os.Getenv(envKey); url != "" {
			registry.Register(intent, capability.NewHTTPBridge(url, cfg.CapabilityTimeout))
		}
	}

	// Session manager doubles as the pipeline's activity sink
	manager := session.NewManager(instruments)

	orchestrator := pipeline.NewOrchestrator(pipeline.Options{
		Classifier:        pipelineClassifier,
		Router:            routing.NewRouter(cfg.RoutingThreshold),
		Capabilities:      registry,
		Fallback:          generative.NewTemplateFallback(),
		Sink:              store,
		Recorder:          engine,
		Activity:          manager,
		CapabilityTimeout: cfg.CapabilityTimeout,
		HistoryCap:        cfg.HistoryCap,
	})

	app := fiber.New(fiber.Config{
		AppName:      "jarvislive",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	prometheus := fiberprometheus.New("jarvislive")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	voiceHandler := handlers.NewVoiceHandler(orchestrator, engine)
	healthHandler := handlers.NewHealthHandler(manager)
	wsHandler := handlers.NewWebSocketHandler(manager, orchestrator)

	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")
	api.Post("/voice/command", voiceHandler.HandleCommand)
	api.Get("/voice/history", voiceHandler.HandleHistory)
	api.Get("/metrics/performance", voiceHandler.HandlePerformance)
	api.Get("/metrics/snapshots", voiceHandler.HandleSnapshotHistory)
	api.Get("/metrics/alerts", voiceHandler.HandleAlerts)
	api.Get("/metrics/recommendations", voiceHandler.HandleRecommendations)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/voice", websocket.New(wsHandler.Handle))

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("⏹️  Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️  Shutdown error: %v", err)
		}
	}()

	log.Printf("🎧 Listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
}

// remoteAdapter exposes the remote classifier through the pipeline's
// Classifier interface; the source is folded into the result.
type remoteAdapter struct {
	remote *classifier.RemoteClassifier
}

func (a remoteAdapter) Classify(ctx context.Context, text, userID string) (*models.ClassificationResult, error) {
	result, _ := a.remote.Classify(ctx, text, userID)
	return result, nil
}
