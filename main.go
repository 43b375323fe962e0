package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-entry-service/controllers"
	"order-entry-service/database"
	"order-entry-service/kafka"
	"order-entry-service/models"
	"order-entry-service/repository"
	"order-entry-service/routes"
	"order-entry-service/services"
	"order-entry-service/workers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Redis (queue + cart state) ---
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()

	// --- Postgres (orders + outbox) ---
	db, err := database.ConnectPostgres(database.PostgresConfig{
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		DBName:   cfg.PostgresDB,
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		SSLMode:  cfg.PostgresSSLMode,
	}, logger, &models.Order{}, &models.OrderItem{}, &models.OutboxEvent{})
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}

	// --- Kafka ---
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaStockTopic)
	defer producer.Close()

	// --- Repositories & services ---
	queueRepo := repository.NewQueueRepository(redisClient)
	cartRepo := repository.NewCartRepository(redisClient, cfg.CartTTL)
	orderRepo := repository.NewGormOrderRepository(db)

	queueService := services.NewQueueService(queueRepo, logger)
	cartService := services.NewCartService(cartRepo, logger)
	checkoutService := services.NewCheckoutService(orderRepo, cartRepo, queueRepo, logger)

	// --- Background workers ---
	admitter := workers.NewAdmitter(queueRepo, cfg.QueueAdmitBatch, cfg.QueueAdmitInterval, logger)
	reaper := workers.NewReaper(queueRepo, cfg.QueueEntryTTL, cfg.QueueEvictInterval, logger)
	relay := workers.NewOutboxRelay(orderRepo, producer, cfg.OutboxBatch, cfg.OutboxPollInterval, cfg.OutboxMaxRetries, logger)

	go admitter.Run(ctx)
	go reaper.Run(ctx)
	go relay.Run(ctx)

	// --- HTTP router ---
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	routes.RegisterRoutes(r,
		controllers.NewQueueController(queueService),
		controllers.NewCartController(cartService),
		controllers.NewCheckoutController(checkoutService),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Order entry service is running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Shutdown error", zap.Error(err))
	}
	logger.Info("Server shutdown complete")
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("Request completed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
