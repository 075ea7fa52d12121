package ledger

import (
	"testing"
	"time"
)

const statsToday = "2026-08-29"

func rec(result Status, stake, odds float64, date, market string) Record {
	profit := 0.0
	switch result {
	case StatusWon:
		profit = round2(stake*odds - stake)
	case StatusLost:
		profit = -stake
	}
	return Record{
		ID:     "r",
		Match:  "PSG vs OM",
		Date:   date,
		Market: market,
		Odds:   odds,
		Stake:  stake,
		Result: result,
		Profit: profit,
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	st := ComputeStats(nil, statsToday)

	assertEqual(t, 0, st.Total, "total")
	assertEqual(t, 0.0, st.WinRate, "win rate")
	assertEqual(t, 0, st.Streak, "streak")
	assertEqual(t, "win", st.StreakType, "streak type defaults to win")
	if st.ByMarket == nil {
		t.Error("by_market must be an empty slice, not nil")
	}
}

func TestComputeStatsStreak(t *testing.T) {
	// mais recente primeiro: duas vitórias no topo encerram a contagem na derrota
	records := []Record{
		rec(StatusWon, 10, 2.0, statsToday, "1N2"),
		rec(StatusWon, 10, 2.0, statsToday, "1N2"),
		rec(StatusLost, 10, 2.0, statsToday, "1N2"),
		rec(StatusWon, 10, 2.0, statsToday, "1N2"),
	}

	st := ComputeStats(records, statsToday)
	assertEqual(t, 2, st.Streak, "streak length")
	assertEqual(t, "win", st.StreakType, "streak type")
	assertEqual(t, 75.0, st.WinRate, "win rate")
}

func TestComputeStatsStreakIgnoresPending(t *testing.T) {
	records := []Record{
		rec(StatusPending, 10, 2.0, statsToday, "1N2"),
		rec(StatusLost, 10, 2.0, statsToday, "1N2"),
		rec(StatusLost, 10, 2.0, statsToday, "1N2"),
	}

	st := ComputeStats(records, statsToday)
	assertEqual(t, 2, st.Streak, "pending bets do not break the run")
	assertEqual(t, "loss", st.StreakType, "streak type")
	assertEqual(t, 1, st.Pending, "pending count")
}

func TestComputeStatsROI(t *testing.T) {
	// ganho de 5 sobre stake 10, perda de 20: (5 - 20) / 30 * 100 = -50.0
	records := []Record{
		rec(StatusWon, 10, 1.5, statsToday, "1N2"),
		rec(StatusLost, 20, 2.0, statsToday, "1N2"),
	}

	st := ComputeStats(records, statsToday)
	assertEqual(t, -50.0, st.ROI, "roi")
}

func TestComputeStatsToday(t *testing.T) {
	records := []Record{
		rec(StatusWon, 10, 2.0, statsToday, "1N2"),
		rec(StatusPending, 10, 2.0, statsToday, "1N2"),
		rec(StatusLost, 10, 2.0, "2026-08-20", "1N2"),
	}

	st := ComputeStats(records, statsToday)
	assertEqual(t, 2, st.Today.Total, "today total")
	assertEqual(t, 1, st.Today.Won, "today won")
	assertEqual(t, 1, st.Today.Pending, "today pending")
	assertEqual(t, 100.0, st.Today.WinRate, "today win rate over settled only")
}

func TestComputeStatsLast30Days(t *testing.T) {
	old := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC).Format("2006-01-02") // > 30 dias
	records := []Record{
		rec(StatusWon, 10, 2.0, statsToday, "1N2"),
		rec(StatusLost, 10, 2.0, "2026-08-15", "1N2"),
		rec(StatusWon, 10, 2.0, old, "1N2"),
	}

	st := ComputeStats(records, statsToday)
	assertEqual(t, 2, st.Last30Days.Total, "window excludes old bets")
	assertEqual(t, 1, st.Last30Days.Won, "wins in window")
	assertEqual(t, 50.0, st.Last30Days.WinRate, "win rate in window")
}

func TestComputeStatsByMarket(t *testing.T) {
	records := []Record{
		rec(StatusWon, 10, 2.0, statsToday, "1N2"),
		rec(StatusLost, 10, 2.0, statsToday, ""),
		rec(StatusLost, 10, 2.0, statsToday, "1N2"),
	}

	st := ComputeStats(records, statsToday)
	assertEqual(t, 2, len(st.ByMarket), "bucket count")

	// ordem de primeira aparição
	assertEqual(t, "1N2", st.ByMarket[0].Market, "first market")
	assertEqual(t, 2, st.ByMarket[0].Total, "1N2 total")
	assertEqual(t, 1, st.ByMarket[0].Won, "1N2 won")
	assertEqual(t, 0.0, st.ByMarket[0].ROI, "1N2 roi (+10 - 10 over 20)")

	assertEqual(t, DefaultMarket, st.ByMarket[1].Market, "empty market falls into Autre")
	assertEqual(t, -100.0, st.ByMarket[1].ROI, "Autre roi")
}

func TestRecordFromBet(t *testing.T) {
	settledAt := time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC)
	b := Bet{
		ID:           "b1",
		HomeTeam:     "PSG",
		AwayTeam:     "OM",
		Date:         "2026-08-29T21:00:00Z", // ISO completa deve ser truncada
		Market:       "",
		Selection:    "1",
		Odds:         2.0,
		Stake:        20,
		PotentialWin: 40,
		Status:       StatusWon,
		SettledAt:    &settledAt,
	}

	r := RecordFromBet(b, statsToday)
	assertEqual(t, "PSG vs OM", r.Match, "match label")
	assertEqual(t, "2026-08-29", r.Date, "date truncated to day")
	assertEqual(t, DefaultMarket, r.Market, "market default")
	assertEqual(t, 20.0, r.Profit, "profit derived from status")

	r = RecordFromBet(Bet{Status: StatusPending}, statsToday)
	assertEqual(t, statsToday, r.Date, "missing date falls back to today")
	assertEqual(t, 0.0, r.Profit, "pending profit")
}
