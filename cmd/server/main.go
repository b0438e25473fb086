package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fleetdeck/internal/config"
	"fleetdeck/internal/database"
	"fleetdeck/internal/handlers"
	"fleetdeck/internal/jobs"
	"fleetdeck/internal/logging"
	"fleetdeck/internal/middleware"
	"fleetdeck/internal/services"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting fleetdeck server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	if cfg.SyncAPISecret == "" {
		log.Println("⚠️  SYNC_API_SECRET not set, sync ingress will reject all requests")
	}

	// MongoDB is required
	if cfg.MongoURI == "" {
		log.Fatal("❌ MONGODB_URI environment variable is required")
	}
	db, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer db.Close(context.Background())

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Initialize(initCtx); err != nil {
		cancelInit()
		log.Fatalf("❌ Failed to initialize database indexes: %v", err)
	}
	cancelInit()
	log.Println("✅ MongoDB connected and indexes ensured")

	// Redis is optional: without it there is no cross-instance event
	// fanout and no job locking, but the server still works
	var redisService *services.RedisService
	var pubsubService *services.PubSubService
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, continuing without it: %v", err)
			redisService = nil
		} else {
			pubsubService = services.NewPubSubService(redisService, uuid.New().String())
			if err := pubsubService.Start(); err != nil {
				log.Printf("⚠️  Failed to start pub/sub: %v", err)
				pubsubService = nil
			}
		}
	}

	// Metrics registry
	services.InitMetrics()

	// Services
	activityService := services.NewActivityService(db)
	sessionService := services.NewSessionService(db)
	agentStatusService := services.NewAgentStatusService(db)
	cronService := services.NewCronService(db)
	costService := services.NewCostService(db)
	notificationService := services.NewNotificationService(db)
	taskService := services.NewTaskService(db)
	tradingService := services.NewTradingService(db, agentStatusService)
	syncRequestService := services.NewSyncRequestService(db, cfg.SyncPendingTTL)
	if pubsubService != nil {
		syncRequestService.SetPubSub(pubsubService)
	}

	// Background jobs
	scheduler := jobs.NewScheduler()
	scheduler.Register(jobs.NewSyncRequestReaperJob(syncRequestService, redisService))
	scheduler.Register(jobs.NewRetentionCleanupJob(activityService, costService, redisService, cfg.RetentionDays))
	scheduler.Start()

	// Handlers
	syncHandler := handlers.NewSyncHandler(
		activityService, sessionService, agentStatusService, cronService,
		costService, notificationService, taskService, syncRequestService,
	)
	tradingHandler := handlers.NewTradingHandler(tradingService)
	dashboardHandler := handlers.NewDashboardHandler(
		activityService, sessionService, agentStatusService, cronService,
		costService, notificationService, taskService, tradingService,
		syncRequestService,
	)
	eventsHandler := handlers.NewEventsHandler(pubsubService)
	healthHandler := handlers.NewHealthHandler(db, redisService, eventsHandler)
	adminHandler := handlers.NewAdminHandler(db)

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "fleetdeck v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    4 * 1024 * 1024, // cron batches and turn logs stay well under 4MB
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("fleetdeck")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: true,
	}))

	app.Get("/health", healthHandler.Handle)

	rateLimits := middleware.LoadRateLimitConfig()

	// Sync ingress, bearer-authed
	sync := app.Group("/api/sync",
		middleware.SyncRateLimiter(rateLimits),
		middleware.SyncAuthMiddleware(cfg.SyncAPISecret),
	)
	sync.Post("/activity", syncHandler.SyncActivity)
	sync.Post("/session", syncHandler.SyncSession)
	sync.Post("/agent-status", syncHandler.SyncAgentStatus)
	sync.Post("/cron", syncHandler.SyncCron)
	sync.Post("/cost", syncHandler.SyncCost)
	sync.Post("/notification", syncHandler.SyncNotification)
	sync.Post("/task", syncHandler.SyncTask)
	sync.Get("/pending", syncHandler.GetPending)
	sync.Post("/fulfill", syncHandler.Fulfill)

	trading := sync.Group("/trading/:bot")
	trading.Post("/status", tradingHandler.SyncStatus)
	trading.Post("/trade", tradingHandler.SyncTrade)
	trading.Post("/position", tradingHandler.SyncPosition)
	trading.Post("/pnl", tradingHandler.SyncDailyPnl)
	trading.Post("/strategy", tradingHandler.SyncStrategyPerformance)
	trading.Post("/activity", tradingHandler.SyncTurnLog)

	// Dashboard surface, same-origin trusted
	dash := app.Group("/api/dashboard", middleware.DashboardRateLimiter(rateLimits))
	dash.Post("/sync-request", dashboardHandler.RequestSync)
	dash.Get("/last-sync", dashboardHandler.LastSync)
	dash.Get("/activities", dashboardHandler.ListActivities)
	dash.Get("/sessions", dashboardHandler.ListSessions)
	dash.Get("/sessions/:id", dashboardHandler.GetSession)
	dash.Get("/agents", dashboardHandler.ListAgents)
	dash.Post("/agents/:id/stats", dashboardHandler.UpdateAgentStats)
	dash.Get("/cron", dashboardHandler.ListCronJobs)
	dash.Get("/tasks", dashboardHandler.ListTasks)
	dash.Get("/notifications", dashboardHandler.ListNotifications)
	dash.Post("/notifications/:id/read", dashboardHandler.MarkNotificationRead)
	dash.Get("/costs", dashboardHandler.ListCosts)

	dashTrading := dash.Group("/trading/:bot")
	dashTrading.Get("/trades", dashboardHandler.ListTrades)
	dashTrading.Get("/positions", dashboardHandler.ListPositions)
	dashTrading.Get("/pnl", dashboardHandler.ListDailyPnl)
	dashTrading.Get("/strategy", dashboardHandler.ListStrategyPerformance)
	dashTrading.Get("/activity", dashboardHandler.ListTurnLogs)

	// Admin, behind the same bearer token as the sync ingress
	admin := app.Group("/api/admin",
		middleware.SyncRateLimiter(rateLimits),
		middleware.SyncAuthMiddleware(cfg.SyncAPISecret),
	)
	admin.Post("/clear", adminHandler.Clear)

	// WebSocket event stream
	app.Use("/ws", middleware.WebSocketRateLimiter(rateLimits))
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(eventsHandler.Handle))

	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("🔄 Sync ingress: http://localhost:%s/api/sync", cfg.Port)
	log.Printf("📈 Event stream: ws://localhost:%s/ws/events", cfg.Port)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		scheduler.Stop()

		if pubsubService != nil {
			if err := pubsubService.Stop(); err != nil {
				log.Printf("⚠️ Error stopping pub/sub: %v", err)
			}
		}
		if redisService != nil {
			if err := redisService.Close(); err != nil {
				log.Printf("⚠️ Error closing Redis: %v", err)
			}
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
