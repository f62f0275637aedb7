package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"practimatch/job-match-api/internal/config"
	"practimatch/job-match-api/internal/handlers"
	"practimatch/job-match-api/internal/repositories"
	"practimatch/job-match-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize Redis
	ctx := context.Background()
	rdb, err := config.InitRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Redis: %v", err)
	}
	log.Println("✅ Redis connected successfully")

	// Initialize repositories
	postingRepo := repositories.NewJobPostingRepository(db)
	cvRepo := repositories.NewCVRepository(db)
	failureRepo := repositories.NewMetadataFailureRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	pdfParser := services.NewPDFParserService()
	log.Println("✅ Services initialized successfully")

	// Initialize Gemini AI
	geminiService, err := services.NewGeminiService(
		cfg.Gemini.APIKey,
		cfg.Gemini.CallTimeout,
		cfg.Gemini.MaxRetries,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	log.Println("✅ Gemini AI initialized successfully")

	// Initialize Qdrant
	vectorIndex, err := services.NewVectorIndex(cfg.Qdrant.URL, cfg.Qdrant.APIKey)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	if err := vectorIndex.EnsureCollection(ctx, cfg.Matching.DefaultCollection); err != nil {
		log.Printf("⚠️  Could not prepare default vector collection: %v", err)
	}
	log.Println("✅ Qdrant initialized successfully")

	// Match cache and scoring
	matchCache := services.NewMatchCache(rdb)
	scoringEngine := services.NewScoringEngine()

	matcherService := services.NewMatcherService(
		cvRepo,
		postingRepo,
		vectorIndex,
		matchCache,
		scoringEngine,
		cfg.Matching.DefaultCollection,
		cfg.Matching.ShortlistLimit,
		cfg.Matching.DefaultLimit,
	)

	pipelineService := services.NewPipelineService(
		postingRepo,
		failureRepo,
		geminiService,
		vectorIndex,
		matchCache,
		cfg.Matching.DefaultCollection,
	)
	log.Println("✅ Pipeline and matcher services initialized")

	// CV processing worker
	cvProcessor := services.NewCVProcessor(cvRepo, storageService, pdfParser, geminiService)
	worker := services.NewWorker(cvRepo, cvProcessor, cfg.Worker.Concurrency)
	worker.Start(ctx)
	log.Println("✅ Worker started successfully")

	// Initialize handlers
	pipelineHandler := handlers.NewPipelineHandler(pipelineService, failureRepo)
	matchHandler := handlers.NewMatchHandler(matcherService)
	cacheHandler := handlers.NewCacheHandler(matchCache)
	cvHandler := handlers.NewCVHandler(cvRepo, storageService, worker)
	postingHandler := handlers.NewPostingHandler(postingRepo, cfg.Matching.DefaultCollection)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Job Match API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// API endpoints
	api.Post("/pipeline/run", pipelineHandler.HandleRun)
	api.Get("/pipeline/failures", pipelineHandler.HandleGetFailures)
	api.Post("/match/postings", matchHandler.HandleMatchPostings)
	api.Post("/match/posting", matchHandler.HandleMatchSingle)
	api.Post("/cache/clear", cacheHandler.HandleClear)
	api.Post("/cvs", cvHandler.HandleUpload)
	api.Get("/cvs/:id", cvHandler.HandleGetCV)
	api.Get("/postings/recent", postingHandler.HandleGetRecent)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Job Match API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/pipeline/run",
				"GET /api/v1/pipeline/failures",
				"POST /api/v1/match/postings",
				"POST /api/v1/match/posting",
				"POST /api/v1/cache/clear",
				"POST /api/v1/cvs",
				"GET /api/v1/cvs/:id",
				"GET /api/v1/postings/recent",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}

}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
