package events

import "time"

// Evento emitido quando uma aposta pendente é liquidada (won/lost).
type BetSettled struct {
	BetID        string    `json:"betId"`
	UserID       string    `json:"userId"`
	HomeTeam     string    `json:"homeTeam"`
	AwayTeam     string    `json:"awayTeam"`
	Market       string    `json:"market"`
	Selection    string    `json:"selection"`
	Stake        float64   `json:"stake"`
	PotentialWin float64   `json:"potentialWin"`
	Won          bool      `json:"won"`
	NewBalance   float64   `json:"newBalance"`
	Ts           time.Time `json:"ts"`
}
