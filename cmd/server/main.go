package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relocation-quote/internal/config"
	"relocation-quote/internal/database"
	"relocation-quote/internal/distance"
	"relocation-quote/internal/handlers"
	"relocation-quote/internal/kafka"
	"relocation-quote/internal/logger"
	"relocation-quote/internal/models"
	"relocation-quote/internal/redis"
	"relocation-quote/internal/services"
	"relocation-quote/internal/settings"

	"github.com/joho/godotenv"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// providerTimeout ограничивает HTTP-запрос к геокодеру или маршрутизатору;
// таймаут попытки задаётся политикой повторов и обычно короче.
const providerTimeout = 15 * time.Second

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	mux      *http.ServeMux
	server   *http.Server
}

func main() {
	// .env необязателен: в контейнере переменные приходят из окружения
	_ = godotenv.Load()

	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting relocation quote server...")

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
	_ = app.consumer.Stop()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	_ = app.producer.Close()
	_ = app.redis.Close()
	_ = app.db.Close()
	app.log.Info("Server exited")
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)

	db, err := dbConnect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	producer, err := newKafkaProducer(&cfg.Kafka, log)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	consumer, err := newKafkaConsumer(&cfg.Kafka, log)
	if err != nil {
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	closeAll := func() {
		_ = consumer.Stop()
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
	}

	aggregator, err := buildAggregator(cfg, redisClient, log)
	if err != nil {
		closeAll()
		return nil, err
	}

	settingsStore := settings.NewStore(db, redisClient, log, &cfg.Settings)
	quoteService := services.NewQuoteService(settingsStore, aggregator, producer, log)
	rateLimiter := services.NewRateLimiter(redisClient, log, &cfg.RateLimit)

	quoteHandler := handlers.NewQuoteHandler(quoteService, log)
	healthHandler := handlers.NewHealthHandler(db, redisClient, cfg.Kafka.Brokers, kafkaHealthCheck)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter, log)

	registerEventHandlers(consumer, settingsStore, log)
	if err := consumer.Start(); err != nil {
		closeAll()
		return nil, fmt.Errorf("kafka consumer start: %w", err)
	}

	mux := setupRoutes(quoteHandler, healthHandler, rateLimitHandler)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		producer: producer,
		consumer: consumer,
		mux:      mux,
		server:   server,
	}, nil
}

// buildAggregator собирает геокодер, маршрутизатор и базу по конфигурации.
// Если координаты базы не заданы, они определяются по адресу при старте.
func buildAggregator(cfg *config.Config, cache distance.Cache, log *logger.Logger) (*distance.Aggregator, error) {
	httpClient := &http.Client{Timeout: providerTimeout}

	geocoder, err := distance.NewGeocoder(&cfg.Geocoding, httpClient)
	if err != nil {
		return nil, fmt.Errorf("geocoder: %w", err)
	}
	router, err := distance.NewRouter(&cfg.Routing, httpClient)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	resolver := distance.NewAddressResolver(geocoder, cache, log, &cfg.Geocoding)
	routes := distance.NewRouteCalculator(router, log, &cfg.Routing)

	depot := distance.Coordinate{Lat: cfg.Depot.Lat, Lon: cfg.Depot.Lon}
	if depot == (distance.Coordinate{}) && cfg.Depot.Address != "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		depot, err = resolver.Resolve(ctx, cfg.Depot.Address)
		if err != nil {
			return nil, fmt.Errorf("depot address: %w", err)
		}
	}
	log.WithFields(map[string]interface{}{
		"lat":      depot.Lat,
		"lon":      depot.Lon,
		"geocoder": cfg.Geocoding.Provider,
		"router":   cfg.Routing.Provider,
	}).Info("Distance backend configured")

	return distance.NewAggregator(resolver, routes, depot, log), nil
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(quoteHandler *handlers.QuoteHandler, healthHandler *handlers.HealthHandler, rateLimitHandler *handlers.RateLimitHandler) *http.ServeMux {
	mux := http.NewServeMux()

	// Лимит только на эндпоинты, которые ходят во внешние геосервисы, у каждого своё окно
	limited := func(scope services.Scope, h http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(rateLimitHandler.Limit(scope, h))
	}

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(healthHandler.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(healthHandler.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(healthHandler.Liveness))

	mux.HandleFunc("/api/quotes", limited(services.ScopeQuotes, quoteHandler.CreateQuote))
	mux.HandleFunc("/api/distance", limited(services.ScopeDistance, quoteHandler.ResolveDistance))
	mux.HandleFunc("/api/pricing/defaults", corsMiddleware(quoteHandler.Defaults))

	mux.HandleFunc("/api/rate-limit/status", corsMiddleware(rateLimitHandler.Status))

	mux.HandleFunc("/", corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "Route not found")
	}))

	return mux
}

type settingsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// registerEventHandlers регистрирует обработчики событий Kafka
func registerEventHandlers(consumer *kafka.Consumer, store settingsInvalidator, log *logger.Logger) {
	consumer.RegisterHandler(models.EventTypeSettingsChanged, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Pricing settings changed, dropping cached settings")
		return store.Invalidate(ctx)
	})
}

// corsMiddleware и другие helper функции
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

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	type errorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
