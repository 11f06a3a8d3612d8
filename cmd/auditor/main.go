// 事件审计工作进程：消费系列事件流，输出结构化审计日志并维护业务指标。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/quantfabric/optionvault/internal/series/application"
	"github.com/quantfabric/optionvault/internal/series/domain"
	"github.com/quantfabric/optionvault/internal/series/infrastructure/messaging"
	"github.com/quantfabric/optionvault/pkg/config"
	"github.com/quantfabric/optionvault/pkg/logger"
	"github.com/quantfabric/optionvault/pkg/metrics"
	"github.com/quantfabric/optionvault/pkg/mq"
)

var configPath = flag.String("config", "configs/config.toml", "config file path")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

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

	metricsImpl := metrics.New("auditor")
	if cfg.Metrics.Enabled {
		if err := metricsImpl.Register(); err != nil {
			slog.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
		_ = metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	consumer, err := mq.NewConsumer(mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
	}, application.TopicSeriesEvents)
	if err != nil {
		slog.Error("failed to init kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		slog.Info("auditor started", "topic", application.TopicSeriesEvents)
		for {
			msg, err := consumer.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			handle(ctx, msg, metricsImpl)
		}
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down auditor...")
		case <-ctx.Done():
		}
		return consumer.Close()
	})

	if err := g.Wait(); err != nil {
		slog.Error("auditor exited with error", "error", err)
	}
}

func handle(ctx context.Context, msg *mq.Message, m *metrics.Metrics) {
	var env messaging.Envelope
	if err := msg.UnmarshalPayload(&env); err != nil {
		logger.Warn(ctx, "skipping malformed event", "offset", msg.Offset, "error", err)
		return
	}

	switch env.Type {
	case domain.EventSeriesCreated:
		m.SeriesCreatedTotal.Inc()
	case domain.EventOptionsMinted:
		m.MintsTotal.Inc()
	case domain.EventOptionsBurned:
		m.BurnsTotal.Inc()
	case domain.EventOptionsExercised:
		m.ExercisesTotal.Inc()
	case domain.EventSeriesExpired:
		m.ExpirationsTotal.Inc()
	case domain.EventCollateralWithdrawn:
		m.WithdrawalsTotal.Inc()
	}

	logger.Info(ctx, "series event",
		"type", env.Type,
		"key", msg.Key,
		"offset", msg.Offset,
		"payload", string(env.Payload),
	)
}
