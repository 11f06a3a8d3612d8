package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/quantfabric/optionvault/internal/series/application"
	"github.com/quantfabric/optionvault/internal/series/domain"
	"github.com/quantfabric/optionvault/internal/series/infrastructure/assets"
	"github.com/quantfabric/optionvault/internal/series/infrastructure/messaging"
	"github.com/quantfabric/optionvault/internal/series/infrastructure/persistence"
	"github.com/quantfabric/optionvault/internal/series/infrastructure/persistence/mysql"
	seriesredis "github.com/quantfabric/optionvault/internal/series/infrastructure/persistence/redis"
	httpserver "github.com/quantfabric/optionvault/internal/series/interfaces/http"
	"github.com/quantfabric/optionvault/internal/token"
	"github.com/quantfabric/optionvault/pkg/cache"
	"github.com/quantfabric/optionvault/pkg/config"
	"github.com/quantfabric/optionvault/pkg/db"
	"github.com/quantfabric/optionvault/pkg/logger"
	"github.com/quantfabric/optionvault/pkg/metrics"
	"github.com/quantfabric/optionvault/pkg/middleware"
	"github.com/quantfabric/optionvault/pkg/mq"
)

var configPath = flag.String("config", "configs/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 3. 初始化指标
	metricsImpl := metrics.New("series")
	if cfg.Metrics.Enabled {
		if err := metricsImpl.Register(); err != nil {
			slog.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
		_ = metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// 4. 初始化基础设施
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Auto Migrate (仅用于开发方便)
	if cfg.Environment == "dev" {
		if err := database.AutoMigrate(
			&domain.Series{},
			&domain.WriterLock{},
			&domain.ExerciseRecord{},
			&domain.WithdrawalRecord{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// Kafka
	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		GroupID:      cfg.Kafka.GroupID,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		slog.Error("failed to init kafka producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()
	publisher := messaging.NewKafkaPublisher(producer)

	// 资产账本注册表
	registry := token.NewRegistry()
	for _, a := range cfg.Assets {
		if _, err := registry.Register(a.ID, a.Name, a.Symbol, a.Decimals); err != nil {
			slog.Error("failed to register asset", "asset", a.ID, "error", err)
			os.Exit(1)
		}
	}
	ledgers := assets.NewLedgerProvider(registry)

	// 5. 初始化仓储
	mysqlRepo := mysql.NewSeriesRepository(database.DB)
	lockRepo := mysql.NewWriterLockRepository(database.DB)
	recordRepo := mysql.NewRecordRepository(database.DB)

	// 命令路径始终读写主存储，缓存只加速查询路径
	querySeriesRepo := mysqlRepo
	if cfg.Redis.Enabled {
		redisCache, err := cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			slog.Error("failed to init redis", "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		cacheRepo := seriesredis.NewSeriesRedisRepository(redisCache.GetClient())
		querySeriesRepo = persistence.NewCompositeSeriesRepository(mysqlRepo, cacheRepo, logger.Get())
	}

	// 6. 初始化应用服务
	commandSvc := application.NewSeriesService(mysqlRepo, lockRepo, recordRepo, ledgers, publisher, logger.Get())
	querySvc := application.NewSeriesQueryService(querySeriesRepo, lockRepo, recordRepo, ledgers)

	// 7. 初始化接口层
	// gRPC：健康检查与反射
	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.GRPCRecoveryInterceptor(),
		middleware.GRPCLoggingInterceptor(),
	))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcSrv)

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinMetricsMiddleware(metricsImpl),
		middleware.GinCORSMiddleware(),
	)

	httpHandler := httpserver.NewHandler(commandSvc, querySvc)
	httpHandler.RegisterRoutes(r.Group("/api"))

	// 8. 启动服务
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		slog.Info("gRPC server starting", "addr", addr)
		return grpcSrv.Serve(lis)
	})

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		grpcSrv.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
