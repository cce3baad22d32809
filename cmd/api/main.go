package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zojatech/healthmate/backend/internal/adapters/cache"
	"github.com/zojatech/healthmate/backend/internal/adapters/database"
	"github.com/zojatech/healthmate/backend/internal/api/handlers"
	"github.com/zojatech/healthmate/backend/internal/api/routes"
	"github.com/zojatech/healthmate/backend/internal/application/analysis"
	"github.com/zojatech/healthmate/backend/internal/application/generation"
	"github.com/zojatech/healthmate/backend/internal/domain/providers"
	"github.com/zojatech/healthmate/backend/internal/domain/repositories"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/clients/docparse"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/clients/gemini"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/clients/openai"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/clients/postgres"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/clients/redis"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/clients/rxnorm"
	"github.com/zojatech/healthmate/backend/internal/infrastructure/observability"
	"github.com/zojatech/healthmate/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize adapters
	documentAdapter := database.NewDocumentAdapter(pgClient)

	baseAnalysisAdapter := database.NewAnalysisAdapter(pgClient)
	var analysisAdapter repositories.AnalysisRepository
	if cacheProvider != nil {
		analysisAdapter = database.NewCachedAnalysisAdapter(baseAnalysisAdapter, cacheProvider)
		log.Println("Analysis adapter wrapped with caching layer")
	} else {
		analysisAdapter = baseAnalysisAdapter
		log.Println("Analysis adapter running without cache (Redis unavailable)")
	}

	// Initialize generation providers, primary first
	var chain []providers.TextGenerator
	if cfg.OpenAI.APIKey != "" {
		openaiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Printf("Warning: Failed to initialize OpenAI client: %v", err)
		} else {
			chain = append(chain, openaiClient)
		}
	}
	if cfg.Gemini.APIKey != "" {
		geminiClient, err := gemini.NewClient(&cfg.Gemini)
		if err != nil {
			log.Printf("Warning: Failed to initialize Gemini client: %v", err)
		} else {
			chain = append(chain, geminiClient)
		}
	}
	if len(chain) == 0 {
		log.Fatalf("No generation provider configured: set OPENAI_API_KEY or GEMINI_API_KEY")
	}
	generator := generation.NewFallback(chain...)

	// Initialize external service clients
	rxnormClient := rxnorm.NewClient(&cfg.RxNorm)
	parserClient := docparse.NewClient(&cfg.Parser)

	// Initialize the analysis pipeline service
	analysisService := analysis.NewAnalysisService(
		documentAdapter,
		analysisAdapter,
		parserClient,
		generator,
		rxnormClient,
		rxnormClient,
		metrics,
		cfg.Pipeline,
	)

	// Initialize handlers
	analysisHandler := handlers.NewAnalysisHandler(analysisService)

	// Set up router
	router := routes.NewRouter(analysisHandler, metrics)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("Server stopped")
}
