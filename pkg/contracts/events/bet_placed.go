package events

type BetPlaced struct {
	BetID      string  `json:"bet_id"`
	UserID     string  `json:"user_id"`
	MatchID    string  `json:"match_id"`
	HomeTeam   string  `json:"home_team"`
	AwayTeam   string  `json:"away_team"`
	TicketType string  `json:"ticket_type"` // "safe" | "fun"
	Market     string  `json:"market"`
	Selection  string  `json:"selection"`
	Stake      float64 `json:"stake"`
	Odds       float64 `json:"odds"`
	TsUnixMs   int64   `json:"ts_unix_ms"`
}
