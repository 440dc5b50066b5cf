package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todoflow/internal/config"
	"todoflow/internal/handlers"
	"todoflow/internal/logging"
	"todoflow/internal/middleware"
	"todoflow/internal/services"
	"todoflow/internal/store"
	"todoflow/internal/tools"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting TodoFlow Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Store: %s, Model: %s)", cfg.Port, cfg.StorePath, cfg.LLM.Model)

	// Item store - single JSON file, created lazily on first write
	st := store.New(cfg.StorePath)
	log.Printf("📦 [STORE] Using %s (%d todos)", st.Path(), len(st.Load()))

	// Mutation tools
	registry := tools.NewRegistry()
	if err := tools.RegisterTodoTools(registry, st); err != nil {
		log.Fatalf("❌ Failed to register todo tools: %v", err)
	}
	log.Printf("🔧 [TOOLS] Registered %d tools", registry.Count())

	// Per-thread conversation memory (process lifetime only)
	sessions := services.NewSessionService()

	// Prometheus metrics
	services.InitMetrics(sessions)

	// Command resolver
	resolver := services.NewResolverService(cfg.LLM, st, registry, sessions)
	log.Printf("🤖 [RESOLVER] Provider: %s, max iterations: %d", cfg.LLM.BaseURL, cfg.LLM.MaxToolIterations)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "TodoFlow v1.0",
		ReadTimeout:  300 * time.Second, // local models (Ollama) can take minutes to cold start
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  300 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("todoflow")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// Rate limiting
	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Command=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.CommandMax,
	)

	// Fiber's CORS middleware does not allow AllowCredentials with wildcard origins
	allowCredentials := cfg.AllowedOrigins != "*"
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowCredentials,
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	app.Use("/todos", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(st, sessions)
	todoHandler := handlers.NewTodoHandler(st)
	commandHandler := handlers.NewCommandHandler(resolver)

	// Routes
	app.Get("/health", healthHandler.Check)

	app.Post("/todos/process-command", middleware.CommandRateLimiter(rateLimitConfig), commandHandler.Process)

	app.Get("/todos", todoHandler.List)
	app.Post("/todos", todoHandler.Create)
	app.Delete("/todos", todoHandler.DeleteAll)
	app.Get("/todos/:id", todoHandler.Get)
	app.Put("/todos/:id", todoHandler.Update)
	app.Delete("/todos/:id", todoHandler.Delete)

	log.Printf("🌐 Server starting on http://localhost:%s", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("💬 Command endpoint: POST http://localhost:%s/todos/process-command?command=...", cfg.Port)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
