package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/cryptotrading/internal/trader/application"
	"github.com/wyfcoding/cryptotrading/internal/trader/infrastructure/messaging"
	"github.com/wyfcoding/cryptotrading/internal/trader/infrastructure/persistence/mysql"
	"github.com/wyfcoding/cryptotrading/internal/trader/interfaces/consumer"
	httpserver "github.com/wyfcoding/cryptotrading/internal/trader/interfaces/http"
	"github.com/wyfcoding/cryptotrading/internal/trader/views"
	"github.com/wyfcoding/cryptotrading/pkg/config"
	"github.com/wyfcoding/cryptotrading/pkg/db"
	"github.com/wyfcoding/cryptotrading/pkg/logger"
	"github.com/wyfcoding/cryptotrading/pkg/metrics"
	"github.com/wyfcoding/cryptotrading/pkg/mq"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "configs/trader.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	if err := logger.Init(cfg.Logger); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 3. 初始化指标
	metricsImpl := metrics.New(cfg.ServiceName)
	if err := metricsImpl.Register(); err != nil {
		slog.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}
	if cfg.Metrics.Enabled {
		go metrics.ExposeHTTP(cfg.Metrics.Port)
	}

	// 4. 初始化基础设施
	database, err := db.Init(db.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogEnabled:      cfg.Database.LogEnabled,
	})
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Auto Migrate (仅用于开发方便)
	if cfg.Environment == "dev" {
		if err := database.AutoMigrate(
			&mysql.EventPO{},
			&views.BalanceByPairView{},
			&views.TraderByAssetView{},
			&views.MovingAverageByPeriodView{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	kafkaCfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}
	producer, err := mq.NewProducer(kafkaCfg)
	if err != nil {
		slog.Error("failed to create kafka producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	eventConsumer, err := mq.NewConsumer(kafkaCfg, messaging.TraderEventsTopic)
	if err != nil {
		slog.Error("failed to create kafka consumer", "error", err)
		os.Exit(1)
	}
	defer eventConsumer.Close()

	// 5. 初始化仓储
	eventStore := mysql.NewEventStore(database.DB)
	balanceRepo := mysql.NewBalanceViewRepository(database.DB)
	byAssetRepo := mysql.NewTraderByAssetViewRepository(database.DB)
	maRepo := mysql.NewMovingAverageViewRepository(database.DB)
	publisher := messaging.NewKafkaEventPublisher(producer)

	// 6. 初始化应用服务
	commandSvc := application.NewTraderCommandService(eventStore, publisher, metricsImpl)
	querySvc := application.NewTraderQueryService(eventStore, balanceRepo, byAssetRepo, maRepo)
	appService := application.NewTraderService(commandSvc, querySvc)

	balanceProj := application.NewBalanceProjectionService(balanceRepo, logger.Get())
	byAssetProj := application.NewTraderByAssetProjectionService(byAssetRepo, logger.Get())
	maProj := application.NewMovingAverageProjectionService(maRepo, logger.Get())
	projections := consumer.NewProjectionHandler(balanceProj, byAssetProj, maProj, metricsImpl, logger.Get())

	// 7. 初始化接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	httpHandler := httpserver.NewHandler(appService)
	httpHandler.RegisterRoutes(r.Group("/api"))

	// 8. 启动服务
	g, ctx := errgroup.WithContext(context.Background())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("projection consumer starting", "topic", messaging.TraderEventsTopic)
		if err := projections.Run(ctx, eventConsumer); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	// 9. 优雅关闭
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
