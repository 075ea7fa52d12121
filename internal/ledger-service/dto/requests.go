package dto

type SetBankrollRequest struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"` // em unidades de moeda, faixa [10, 100000]
	Lock   bool    `json:"lock"`   // trava a configuração inicial em definitivo
}

type PlaceBetRequest struct {
	UserID     string  `json:"userId"`
	MatchID    string  `json:"matchId"`
	HomeTeam   string  `json:"homeTeam"`
	AwayTeam   string  `json:"awayTeam"`
	League     string  `json:"league"`
	Date       string  `json:"date"`       // data da partida
	TicketType string  `json:"ticketType"` // "safe" | "fun"
	Market     string  `json:"market"`
	Selection  string  `json:"selection"`
	Odds       float64 `json:"odds"`  // odd decimal que o cliente viu
	Stake      float64 `json:"stake"`
}

type SettleBetRequest struct {
	UserID string `json:"userId"`
	BetID  string `json:"betId"`
	Won    bool   `json:"won"`
}
