package http

import "github.com/prometheus/client_golang/prometheus"

// Métricas Prometheus das operações do ledger
var (
	betsPlacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_bets_placed_total",
		Help: "Total de apostas registradas",
	})
	betsSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_bets_settled_total",
		Help: "Total de apostas liquidadas, por resultado",
	}, []string{"result"})
	bankrollInitTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_bankroll_init_total",
		Help: "Total de configurações de banca inicial",
	})
)

func init() {
	prometheus.MustRegister(betsPlacedTotal, betsSettledTotal, bankrollInitTotal)
}
