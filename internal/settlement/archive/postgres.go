package archive

import (
	"context"
	"database/sql"

	"github.com/pronosport/bankroll-platform/internal/ledger"
)

// Postgres arquiva apostas liquidadas para análise de longo prazo.
// Esquema esperado:
//
//	CREATE TABLE settled_bets (
//	    id            TEXT PRIMARY KEY,
//	    user_id       TEXT NOT NULL,
//	    match_id      TEXT,
//	    home_team     TEXT,
//	    away_team     TEXT,
//	    league        TEXT,
//	    match_date    TEXT,
//	    ticket_type   TEXT,
//	    market        TEXT,
//	    selection     TEXT,
//	    odds          DOUBLE PRECISION,
//	    stake         DOUBLE PRECISION,
//	    potential_win DOUBLE PRECISION,
//	    status        TEXT NOT NULL,
//	    profit        DOUBLE PRECISION,
//	    created_at    TIMESTAMPTZ,
//	    settled_at    TIMESTAMPTZ
//	);
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// InsertSettled grava a aposta liquidada; reprocessamento é idempotente
// pelo id da aposta (ON CONFLICT DO NOTHING)
func (p *Postgres) InsertSettled(ctx context.Context, userID string, b ledger.Bet) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO settled_bets
			(id, user_id, match_id, home_team, away_team, league, match_date,
			 ticket_type, market, selection, odds, stake, potential_win,
			 status, profit, created_at, settled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (id) DO NOTHING`,
		b.ID, userID, b.MatchID, b.HomeTeam, b.AwayTeam, b.League, b.Date,
		string(b.TicketType), b.Market, b.Selection, b.Odds, b.Stake, b.PotentialWin,
		string(b.Status), b.Profit(), b.CreatedAt, b.SettledAt,
	)
	return err
}
