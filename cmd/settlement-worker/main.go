package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pronosport/bankroll-platform/internal/ledger"
	"github.com/pronosport/bankroll-platform/internal/ledger-service/producer"
	"github.com/pronosport/bankroll-platform/internal/settlement/archive"
	"github.com/pronosport/bankroll-platform/internal/settlement/provider"
	"github.com/pronosport/bankroll-platform/internal/settlement/worker"
	"github.com/pronosport/bankroll-platform/internal/shared/cache"
	"github.com/pronosport/bankroll-platform/internal/shared/config"
	"github.com/pronosport/bankroll-platform/internal/shared/db"
	"github.com/pronosport/bankroll-platform/internal/shared/kafka"
	"github.com/pronosport/bankroll-platform/internal/shared/logger"
	"github.com/pronosport/bankroll-platform/internal/shared/metrics"
	"github.com/pronosport/bankroll-platform/internal/store"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Redis: store do ledger
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()
	ledgerSvc := ledger.New(store.NewRedis(rdb))

	// Postgres: arquivo de apostas liquidadas
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka producer: eventos bet_settled
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()
	publ := producer.NewKafkaPublisher(nil, settledWriter)

	// Provedor de resultados (api-football)
	results := provider.New(cfg.FootballAPIURL, cfg.FootballAPIKey)

	w := worker.New(log, ledgerSvc, results, archive.NewPostgres(pg), publ)

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health listening", zap.String("addr", ":"+cfg.MetricsPort))

	ctx := context.Background()
	if err := w.Start(ctx, cfg.SettleSchedule); err != nil {
		log.Fatal("start settlement schedule", zap.Error(err))
	}
	log.Info("settlement-worker started", zap.String("schedule", cfg.SettleSchedule))

	// Aguarda sinal de término
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	log.Info("shutting down")
	w.Stop()
}
