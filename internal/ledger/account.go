package ledger

import (
	"errors"
	"math"
	"time"
)

// Valores default de uma banca ainda não configurada
const (
	DefaultBalance = 100.0

	MinInitialAmount = 10.0
	MaxInitialAmount = 100000.0
)

var (
	ErrInvalidAmount     = errors.New("invalid amount: must be between 10 and 100000")
	ErrAccountLocked     = errors.New("bankroll already configured and locked")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidBet        = errors.New("invalid bet: stake must be > 0 and odds >= 1.0")
)

// Account é a banca virtual de um usuário
type Account struct {
	Balance        float64   `json:"balance"`
	InitialBalance float64   `json:"initialBalance"`
	Locked         bool      `json:"locked"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// ROI retorna o retorno percentual sobre a banca inicial (0 se inicial <= 0)
func (a Account) ROI() float64 {
	if a.InitialBalance <= 0 {
		return 0
	}
	return (a.Balance - a.InitialBalance) / a.InitialBalance * 100
}

// Chaves do store por usuário (layout herdado do ledger original)
func keyBalance(userID string) string { return "user:" + userID + ":bankroll" }
func keyInitial(userID string) string { return "user:" + userID + ":bankroll:initial" }
func keyLocked(userID string) string  { return "user:" + userID + ":bankroll:locked" }
func keyUpdated(userID string) string { return "user:" + userID + ":bankroll:updated" }
func keyHistory(userID string) string { return "user:" + userID + ":bankroll:history" }
func keyBets(userID string) string    { return "user:" + userID + ":bets" }

// Contadores globais de operações
const (
	keyCounterPlaced  = "stats:bets:placed"
	keyCounterSettled = "stats:bets:settled"
)

// round2 arredonda valores monetários para 2 casas
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round1 arredonda percentuais agregados para 1 casa
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
