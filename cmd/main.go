package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hwmart-pos/pos-service/internal/events"
	"github.com/hwmart-pos/pos-service/internal/handler"
	"github.com/hwmart-pos/pos-service/internal/repository"
	"github.com/hwmart-pos/pos-service/internal/service"
	"github.com/hwmart-pos/pos-service/pkg/config"
	"github.com/hwmart-pos/pos-service/pkg/middleware"
	pkgtls "github.com/hwmart-pos/pos-service/pkg/tls"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 로컬 실행용 .env (없어도 무방)
	_ = godotenv.Load()

	// Logger 초기화
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Config 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// DynamoDB 클라이언트 초기화
	dynamoClient, err := repository.NewDynamoDBClient(cfg)
	if err != nil {
		log.Fatal("Failed to create DynamoDB client:", err)
	}

	// Repository 초기화
	productRepo := repository.NewProductRepository(dynamoClient, cfg.ProductTableName)
	saleRepo := repository.NewSaleRepository(dynamoClient, cfg.SaleTableName, cfg.CounterTableName)
	expenseRepo := repository.NewExpenseRepository(dynamoClient, cfg.ExpenseTableName)

	// Kafka producer (비활성 시 이벤트 발행 생략)
	var publisher service.EventPublisher
	var producer *events.KafkaProducer
	if cfg.KafkaEnabled {
		producer = events.NewKafkaProducer(cfg.KafkaBrokers, logger)
		publisher = producer
		defer producer.Close()
	}

	// Service, Handler 초기화
	inventoryService := service.NewInventoryService(productRepo, logger)
	saleService := service.NewSaleService(inventoryService, saleRepo, publisher, logger)
	expenseService := service.NewExpenseService(expenseRepo, logger)

	productHandler := handler.NewProductHandler(inventoryService, logger)
	saleHandler := handler.NewSaleHandler(saleService, logger)
	expenseHandler := handler.NewExpenseHandler(expenseService, logger)

	// 입고 이벤트 consumer
	var consumer *events.GoodsReceivedConsumer
	if cfg.KafkaEnabled {
		consumer = events.NewGoodsReceivedConsumer(cfg.KafkaBrokers, "pos-service", inventoryService, logger)
		consumer.Start()
	}

	// Gin Router 설정
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Routes — 전부 직원 인증 필요
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTSecret))
	{
		v1.POST("/products", middleware.RequireRole("superadmin"), productHandler.CreateProduct)
		v1.GET("/products", productHandler.ListProducts)
		v1.GET("/products/low-stock", productHandler.LowStockProducts)
		v1.GET("/products/:id", productHandler.GetProduct)
		v1.GET("/products/:id/availability", productHandler.CheckAvailability)
		v1.POST("/products/:id/deduct", middleware.RequireRole("superadmin"), productHandler.DeductStock)
		v1.POST("/products/:id/restore", middleware.RequireRole("superadmin"), productHandler.RestoreStock)
		v1.DELETE("/products/:id", middleware.RequireRole("superadmin"), productHandler.DeactivateProduct)

		v1.POST("/sales", saleHandler.CreateSale)
		v1.GET("/sales/daily", saleHandler.ListDailySales)
		v1.GET("/sales/:invoice", saleHandler.GetSale)
		v1.POST("/sales/:invoice/refund", saleHandler.RefundSale)

		v1.POST("/expenses", expenseHandler.CreateExpense)
		v1.GET("/expenses", expenseHandler.ListExpenses)
	}

	// mTLS (SPIRE) — 기본 비활성
	var tlsCfg pkgtls.TLSConfig
	if err := envconfig.Process("", &tlsCfg); err != nil {
		log.Fatal("Failed to load TLS config:", err)
	}
	serverTLS, err := pkgtls.LoadTLSConfig(&tlsCfg, logger)
	if err != nil {
		log.Fatal("Failed to load TLS config:", err)
	}
	defer pkgtls.Cleanup()

	// Server 시작
	srv := &http.Server{
		Addr:      ":" + cfg.Port,
		Handler:   router,
		TLSConfig: serverTLS,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port))
		var err error
		if serverTLS != nil {
			go pkgtls.WatchCertificates(logger)
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	if consumer != nil {
		consumer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}
