package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/pronosport/bankroll-platform/internal/notifier"
	"github.com/pronosport/bankroll-platform/internal/shared/config"
	"github.com/pronosport/bankroll-platform/internal/shared/kafka"
	"github.com/pronosport/bankroll-platform/internal/shared/logger"
	"github.com/pronosport/bankroll-platform/internal/shared/metrics"
	ev "github.com/pronosport/bankroll-platform/pkg/contracts/events"
)

// Métricas Prometheus de entrega de notificações
var (
	notificationsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifier_messages_sent_total",
		Help: "Notificações Telegram entregues",
	})
	notificationsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifier_messages_failed_total",
		Help: "Notificações Telegram com falha de entrega",
	})
)

func main() {
	prometheus.MustRegister(notificationsSent, notificationsFailed)

	cfg := config.Load()
	log, err := logger.New("notifier-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Kafka consumer: consome eventos bet_settled para notificar
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetSettled, "notifier")
	defer reader.Close()

	// DLQ para eventos que não puderam ser notificados
	var dlqWriter *kafkago.Writer
	if cfg.TopicBetSettledDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettledDLQ)
		defer dlqWriter.Close()
	}

	tg := notifier.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
	if !tg.Enabled() {
		log.Warn("telegram credentials missing, notifications disabled")
	}

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error { return nil })
	log.Info("notifier-worker started", zap.String("consume", cfg.TopicBetSettled))

	ctx := context.Background()

	// Loop principal: consome eventos e envia notificações
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var settled ev.BetSettled
		if jerr := json.Unmarshal(msg.Value, &settled); jerr != nil {
			log.Error("unmarshal bet_settled", zap.Error(jerr))
			continue
		}
		if !tg.Enabled() {
			continue
		}

		if err := notifyOne(ctx, tg, settled); err != nil {
			notificationsFailed.Inc()
			log.Error("notify", zap.String("betId", settled.BetID), zap.Error(err))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, settled.BetID, msg.Value)
			}
			continue
		}
		notificationsSent.Inc()
	}
}

// notifyOne envia a notificação com retry simples antes de desistir
func notifyOne(ctx context.Context, tg *notifier.Telegram, settled ev.BetSettled) error {
	text := notifier.FormatSettlement(settled)

	const retries = 3
	var err error
	for i := 0; i < retries; i++ {
		if err = tg.Send(ctx, text); err == nil {
			return nil
		}
		time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
	}
	return err
}
