// cmd/server — the position service: HTTP API plus optional Kafka trade-event
// ingestion over one shared ledger.
//
// Config (env vars):
//
//	SERVER_HOST / SERVER_PORT     — HTTP listen address (default 0.0.0.0:8080)
//	KAFKA_ENABLED                 — "true" to consume trade events (default false)
//	KAFKA_BROKERS                 — comma-separated brokers (default localhost:9092)
//	KAFKA_TRADE_TOPIC             — inbound trade events (default trade-events)
//	KAFKA_POSITION_TOPIC          — outbound position updates (default position-updates)
//	KAFKA_GROUP_ID                — consumer group (default position-service)
//	REDIS_ADDR                    — market price store; empty = in-memory
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/position-service/internal/api"
	"github.com/tradeforge/position-service/internal/config"
	"github.com/tradeforge/position-service/internal/kafka"
	"github.com/tradeforge/position-service/internal/ledger"
	"github.com/tradeforge/position-service/internal/marketdata"
	"github.com/tradeforge/position-service/internal/metrics"
	"github.com/tradeforge/position-service/internal/service"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	var prices marketdata.Source
	if cfg.Redis.Addr != "" {
		store := marketdata.NewRedisStore(cfg.Redis.Addr, 0)
		if err := store.Ping(ctx); err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer store.Close()
		prices = store
		logger.WithField("addr", cfg.Redis.Addr).Info("using redis market price store")
	} else {
		prices = marketdata.NewMemoryStore()
		logger.Info("using in-memory market price store")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	var pub service.PositionPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.PositionTopic)
		defer producer.Close()
		pub = producer
	}

	svc := service.New(ledger.New(), prices, m, pub, logger)

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TradeTopic, cfg.Kafka.GroupID, svc, m, logger)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.WithError(err).Error("trade event consumer stopped")
			}
		}()
	}

	handler := api.NewHandler(svc, logger)
	srv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: api.SetupRoutes(handler, registry),
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("position service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown failed")
	}
}
