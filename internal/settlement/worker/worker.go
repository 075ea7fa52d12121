package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pronosport/bankroll-platform/internal/ledger"
	"github.com/pronosport/bankroll-platform/internal/settlement/provider"
	"github.com/pronosport/bankroll-platform/internal/settlement/resolver"
	"github.com/pronosport/bankroll-platform/pkg/contracts/events"
)

// Métricas Prometheus do ciclo de liquidação
var (
	betsChecked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_bets_checked_total",
		Help: "Apostas pendentes verificadas contra o provedor de resultados",
	})
	betsSettled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_bets_settled_total",
		Help: "Apostas liquidadas pelo worker, por resultado",
	}, []string{"result"})
	checkErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_check_errors_total",
		Help: "Falhas ao consultar resultados ou liquidar apostas",
	})
)

func init() {
	prometheus.MustRegister(betsChecked, betsSettled, checkErrors)
}

// ResultProvider consulta o resultado final de uma partida
type ResultProvider interface {
	Result(ctx context.Context, matchID string) (*provider.FixtureResult, error)
}

// Archive persiste apostas liquidadas fora do store principal
type Archive interface {
	InsertSettled(ctx context.Context, userID string, b ledger.Bet) error
}

// Publisher publica o evento de liquidação
type Publisher interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// Worker varre as apostas pendentes de todos os usuários e liquida as que
// já têm resultado final no provedor. A varredura roda sob agenda cron.
type Worker struct {
	log      *zap.Logger
	ledger   *ledger.Service
	provider ResultProvider
	archive  Archive
	publ     Publisher

	cron *cron.Cron
}

func New(log *zap.Logger, l *ledger.Service, p ResultProvider, a Archive, pub Publisher) *Worker {
	return &Worker{
		log:      log,
		ledger:   l,
		provider: p,
		archive:  a,
		publ:     pub,
	}
}

// Start agenda a varredura (formato cron ou "@every ...") e roda uma
// passada imediata na subida
func (w *Worker) Start(ctx context.Context, schedule string) error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(schedule, func() {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Error("settlement run", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	w.cron.Start()

	go func() {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Error("settlement initial run", zap.Error(err))
		}
	}()
	return nil
}

// Stop encerra a agenda e espera o job corrente terminar
func (w *Worker) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// RunOnce executa uma varredura completa de liquidação
func (w *Worker) RunOnce(ctx context.Context) error {
	users, err := w.ledger.UsersWithBets(ctx)
	if err != nil {
		return err
	}

	for _, userID := range users {
		bets, err := w.ledger.Bets(ctx, userID, 0)
		if err != nil {
			w.log.Warn("load bets", zap.String("userId", userID), zap.Error(err))
			checkErrors.Inc()
			continue
		}
		for _, bet := range bets {
			if bet.Status != ledger.StatusPending || bet.MatchID == "" {
				continue
			}
			if err := w.checkOne(ctx, userID, bet); err != nil {
				w.log.Warn("check bet",
					zap.String("betId", bet.ID),
					zap.String("match", bet.HomeTeam+" vs "+bet.AwayTeam),
					zap.Error(err),
				)
				checkErrors.Inc()
			}
		}
	}
	return nil
}

// checkOne consulta o resultado e, se a partida terminou, liquida a aposta
func (w *Worker) checkOne(ctx context.Context, userID string, bet ledger.Bet) error {
	betsChecked.Inc()

	fx, err := w.provider.Result(ctx, bet.MatchID)
	if err != nil {
		return err
	}

	status := resolver.Resolve(bet, *fx)
	if status == ledger.StatusPending {
		return nil // partida em andamento ou mercado não resolvível
	}

	settled, changed, err := w.ledger.Settle(ctx, userID, bet.ID, status == ledger.StatusWon)
	if err != nil {
		return err
	}
	if !changed {
		return nil // outra passada (ou o usuário) já liquidou
	}

	betsSettled.WithLabelValues(string(settled.Status)).Inc()
	w.log.Info("bet settled",
		zap.String("betId", settled.ID),
		zap.String("userId", userID),
		zap.String("result", string(settled.Status)),
	)

	if w.archive != nil {
		if err := w.archive.InsertSettled(ctx, userID, *settled); err != nil {
			// o arquivo é secundário: loga e segue, o ledger já está consistente
			w.log.Warn("archive settled bet", zap.String("betId", settled.ID), zap.Error(err))
		}
	}

	if w.publ != nil {
		acc, aerr := w.ledger.State(ctx, userID)
		if aerr != nil {
			w.log.Warn("state after settle", zap.String("userId", userID), zap.Error(aerr))
		}
		if err := w.publ.PublishBetSettled(ctx, events.BetSettled{
			BetID:        settled.ID,
			UserID:       userID,
			HomeTeam:     settled.HomeTeam,
			AwayTeam:     settled.AwayTeam,
			Market:       settled.Market,
			Selection:    settled.Selection,
			Stake:        settled.Stake,
			PotentialWin: settled.PotentialWin,
			Won:          settled.Status == ledger.StatusWon,
			NewBalance:   acc.Balance,
			Ts:           time.Now(),
		}); err != nil {
			w.log.Warn("publish bet_settled", zap.String("betId", settled.ID), zap.Error(err))
		}
	}
	return nil
}
