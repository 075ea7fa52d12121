package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/pronosport/bankroll-platform/internal/ledger"
	lhttp "github.com/pronosport/bankroll-platform/internal/ledger-service/http"
	"github.com/pronosport/bankroll-platform/internal/ledger-service/producer"
	"github.com/pronosport/bankroll-platform/internal/ledger-service/pubsub"
	"github.com/pronosport/bankroll-platform/internal/ledger-service/ws"
	"github.com/pronosport/bankroll-platform/internal/shared/cache"
	"github.com/pronosport/bankroll-platform/internal/shared/config"
	"github.com/pronosport/bankroll-platform/internal/shared/kafka"
	"github.com/pronosport/bankroll-platform/internal/shared/logger"
	"github.com/pronosport/bankroll-platform/internal/shared/metrics"
	"github.com/pronosport/bankroll-platform/internal/store"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("ledger-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("env", cfg.Env))

	// Redis: store principal do ledger e canal de broadcast
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	ledgerSvc := ledger.New(store.NewRedis(rdb))

	// Kafka producers: bet_placed e bet_settled
	placedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer placedWriter.Close()
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()
	publ := producer.NewKafkaPublisher(placedWriter, settledWriter)

	// WebSocket hub alimentado pelo Pub/Sub do Redis
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(context.Background(), log, rdb, hub, cfg.RedisPubSubChannel)
	bcast := pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel)

	api := lhttp.NewServer(log, ledgerSvc, publ, bcast, hub.HandleWS, cfg.KellyFraction, cfg.MaxStakePct)

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("addr", ":"+cfg.MetricsPort))

	// Servidor HTTP público (API do ledger)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
