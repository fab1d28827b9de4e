package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"car-valuation/internal/config"
	"car-valuation/internal/handlers"
	"car-valuation/internal/kafka"
	"car-valuation/internal/logger"
	"car-valuation/internal/redis"
	"car-valuation/internal/services"
	"car-valuation/internal/valuation"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	kafkaHealthCheck = kafka.CheckHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	redis    *redis.Client
	producer *kafka.Producer
	mux      *http.ServeMux
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting car valuation server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	app.log.Info("Server exited")
	app.close()
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)

	method, err := valuation.ParseMethod(cfg.Valuation.Method)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("valuation config: %w", err)
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	producer, err := newKafkaProducer(&cfg.Kafka, log)
	if err != nil {
		_ = redisClient.Close()
		_ = log.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	calculator := valuation.NewCalculator(method)
	valuationService := services.NewValuationService(calculator, redisClient, producer, log, &cfg.Valuation)
	rateLimiter := services.NewRateLimiter(redisClient, log, &cfg.RateLimit)

	valuationHandler := handlers.NewValuationHandler(valuationService, log)
	healthHandler := handlers.NewHealthHandler(redisClient, cfg.Kafka.Brokers, kafkaHealthCheck)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter, log, &cfg.RateLimit)

	mux := setupRoutes(valuationHandler, healthHandler, rateLimitHandler, rateLimiter, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	log.WithField("method", method).Info("Valuation calculator configured")

	return &application{
		cfg:      cfg,
		log:      log,
		redis:    redisClient,
		producer: producer,
		mux:      mux,
		server:   server,
	}, nil
}

// close освобождает внешние подключения и файл логов
func (a *application) close() {
	_ = a.producer.Close()
	_ = a.redis.Close()
	_ = a.log.Close()
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(valuationHandler *handlers.ValuationHandler, healthHandler *handlers.HealthHandler, rateLimitHandler *handlers.RateLimitHandler, rateLimiter *services.RateLimiter, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	applyAPI := func(h http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(handlers.RateLimitMiddleware(rateLimiter, log, h))
	}

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(healthHandler.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(healthHandler.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(healthHandler.Liveness))

	// Valuation endpoints
	mux.HandleFunc("/api/valuations", applyAPI(valuationHandler.CreateValuation))

	// Rate limit status
	mux.HandleFunc("/api/rate-limit/status", corsMiddleware(rateLimitHandler.Status))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, http.StatusNotFound, "Route not found")
	})

	return mux
}

func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
