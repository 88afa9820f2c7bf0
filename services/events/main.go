package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Initialize OpenTelemetry
	tp, err := initTracer()
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	// Initialize MongoDB
	mongoClient, err := initMongo(logger)
	if err != nil {
		logger.Fatal("Failed to initialize mongodb", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(getEnv("MONGODB_DATABASE", "eventflow_eventos"))

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	logger.Info("✅ Connected to redis")

	// Initialize dependencies
	repository := NewEventRepository(db)
	counters := NewRedisCounterStore(rdb)
	ledger := NewInventoryLedger(counters, repository, logger)
	cache := NewRedisCache(rdb)
	useCase := NewEventUseCase(repository, ledger, cache, logger)
	tracer := tp.Tracer("events-service")
	handler := NewEventHandler(useCase, tracer)

	// Setup Gin router
	r := gin.Default()

	r.GET("/health", handler.HealthCheck)
	r.POST("/api/eventos", handler.CreateEvent)
	r.GET("/api/eventos", handler.ListEvents)
	r.GET("/api/eventos/:evento_id", handler.GetEvent)
	r.PUT("/api/eventos/:evento_id/inventario", handler.ReserveInventory)
	r.PUT("/api/eventos/:evento_id/inventario/revertir", handler.ReleaseInventory)

	port := getEnv("PORT", "3002")
	logger.Info("🚀 Events Service listening", zap.String("port", port))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func initMongo(logger *zap.Logger) (*mongo.Client, error) {
	uri := getEnv("MONGODB_URI", "mongodb://localhost:27017")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	logger.Info("✅ Connected to events database")
	return client, nil
}

func initTracer() (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	otlpEndpoint := getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(otlpEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(getEnv("SERVICE_NAME", "events-service")),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	otel.SetTracerProvider(tp)

	return tp, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
