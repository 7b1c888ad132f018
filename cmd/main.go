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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/shopmart/tinkoff-gateway/handler"
	"github.com/shopmart/tinkoff-gateway/infra/config"
	"github.com/shopmart/tinkoff-gateway/infra/logger"
	"github.com/shopmart/tinkoff-gateway/infra/opensearch"
	"github.com/shopmart/tinkoff-gateway/infra/response"
	"github.com/shopmart/tinkoff-gateway/infra/store"
	"github.com/shopmart/tinkoff-gateway/provider"

	_ "github.com/shopmart/tinkoff-gateway/provider/tinkoff"
)

var (
	PORT             string
	openSearchLogger *opensearch.Logger
)

func init() {
	// Load Env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Load Env: %v, using process environment", err)
	}
	// init conf
	_ = config.App()

	PORT = config.GetEnv("APP_PORT", "9999")

	cfg := config.GetAppConfig()
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			log.Printf("Failed to initialize OpenSearch client: %v", err)
			log.Println("Continuing without OpenSearch logging...")
		} else {
			openSearchLogger = opensearch.NewLogger(osClient)
			log.Println("OpenSearch logging initialized successfully")
		}
	} else {
		log.Println("OpenSearch logging is disabled")
	}
}

func main() {
	cfg := config.GetAppConfig()

	systemLogger := logger.NewSystemLogger(openSearchLogger, logger.SystemLoggerConfig{
		EnableConsole:    true,
		EnableOpenSearch: openSearchLogger != nil,
		MinLevel:         logger.LogLevel(cfg.LoggingLevel),
		Service:          "tinkoff-gateway",
		Version:          "1.0.0",
		Environment:      config.GetEnv("APP_ENV", "development"),
	})
	logRegistry := logger.NewRegistry(systemLogger)

	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer sqliteStore.Close()

	deps := provider.Deps{
		Orders: sqliteStore,
		Params: config.NewMethodParamsStore(sqliteStore),
		HTTP:   provider.DefaultHTTPClient(),
		Log:    logRegistry,
	}

	// Instantiate every registered payment plugin
	plugins := make(map[string]provider.PaymentPlugin)
	for _, name := range provider.DefaultRegistry.PluginNames() {
		plugin, err := provider.CreatePlugin(name, deps)
		if err != nil {
			log.Printf("Failed to create plugin %s: %v", name, err)
			continue
		}
		plugins[name] = plugin
		log.Printf("Registered payment plugin: %s", name)
	}

	checkoutHandler := handler.NewCheckoutHandler(plugins, sqliteStore, cfg.BaseURL)

	// The log query surface is only available when OpenSearch is configured;
	// a nil logger makes the handler answer 503.
	var logSearcher handler.LoggerInterface
	if openSearchLogger != nil {
		logSearcher = openSearchLogger
	}
	logsHandler := handler.NewLogsHandler(logSearcher)

	// Chi Define Routes
	r := chi.NewRouter()

	// Basic Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300, // Preflight cache time (second)
	}))

	// Health check endpoint (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]any{
			"status":             "ok",
			"timestamp":          time.Now().UTC(),
			"version":            "1.0.0",
			"opensearch_enabled": openSearchLogger != nil,
			"plugins":            provider.DefaultRegistry.PluginNames(),
		}
		response.Success(w, http.StatusOK, "Service is healthy", health)
	})

	r.Route("/v1", func(r chi.Router) {
		checkoutHandler.Routes(r)
		r.Route("/logs", logsHandler.Routes)
	})

	// Not Found
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found", nil)
	})

	// Create a context that listens for interrupt and terminate signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", PORT),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 60 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err.Error())
		}
	}()

	log.Println("API is running on", PORT)

	// Block until a signal is received
	<-ctx.Done()

	log.Println("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
