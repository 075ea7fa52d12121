package ledger

import "time"

// Status é o estado de uma aposta no ledger.
// Máquina de estados: pending -> won | lost (terminais, sem retorno)
type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// TicketType classifica o perfil de risco do ticket apostado.
// Informativo: não altera o comportamento do ledger.
type TicketType string

const (
	TicketSafe TicketType = "safe"
	TicketFun  TicketType = "fun"
)

// Bet é uma aposta registrada contra a banca virtual do usuário.
// O snapshot da partida é congelado no momento da aposta e não é reconsultado.
type Bet struct {
	ID           string     `json:"id"`
	MatchID      string     `json:"matchId"`
	HomeTeam     string     `json:"homeTeam"`
	AwayTeam     string     `json:"awayTeam"`
	League       string     `json:"league"`
	Date         string     `json:"date"` // data da partida, "2006-01-02" ou ISO completo
	TicketType   TicketType `json:"ticketType"`
	Market       string     `json:"market"`
	Selection    string     `json:"selection"`
	Odds         float64    `json:"odds"`
	Stake        float64    `json:"stake"`
	PotentialWin float64    `json:"potentialWin"` // stake * odds, fixado na criação
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	SettledAt    *time.Time `json:"settledAt,omitempty"`
}

// Settled informa se a aposta já atingiu estado terminal
func (b Bet) Settled() bool {
	return b.Status == StatusWon || b.Status == StatusLost
}

// Profit retorna o resultado líquido da aposta.
// A dedução do stake acontece na criação, então ganho = potentialWin - stake,
// perda = -stake e pendente = 0.
func (b Bet) Profit() float64 {
	switch b.Status {
	case StatusWon:
		return round2(b.PotentialWin - b.Stake)
	case StatusLost:
		return -b.Stake
	default:
		return 0
	}
}
