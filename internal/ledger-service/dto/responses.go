package dto

import (
	"time"

	"github.com/pronosport/bankroll-platform/internal/ledger"
)

type BankrollResponse struct {
	Success        bool    `json:"success"`
	Balance        float64 `json:"balance"`
	InitialBalance float64 `json:"initialBalance"`
	Locked         bool    `json:"locked"`
	ROI            float64 `json:"roi"`
}

type PlaceBetResponse struct {
	Success    bool       `json:"success"`
	Bet        ledger.Bet `json:"bet"`
	NewBalance float64    `json:"new_balance"`
}

type SettleBetResponse struct {
	BetID      string  `json:"betId"`
	Status     string  `json:"status"` // "won" | "lost" | "unchanged"
	NewBalance float64 `json:"new_balance"`
}

type BetsResponse struct {
	Bets []ledger.Bet `json:"bets"`
}

type KellyResponse struct {
	SuggestedStake float64 `json:"suggested_stake"`
	KellyFraction  float64 `json:"kelly_fraction"`
	MaxStakePct    float64 `json:"max_stake_pct"`
}

// OpCounters expõe os contadores globais de operações do ledger
type OpCounters struct {
	Placed  int64 `json:"placed"`
	Settled int64 `json:"settled"`
}

type StatsResponse struct {
	Success     bool         `json:"success"`
	Data        ledger.Stats `json:"data"`
	Counters    OpCounters   `json:"counters"`
	IsEmpty     bool         `json:"is_empty"`
	GeneratedAt time.Time    `json:"generated_at"`
}

type HistoryResponse struct {
	Points []ledger.HistoryPoint `json:"points"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
