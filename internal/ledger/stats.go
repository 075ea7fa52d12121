package ledger

import (
	"strings"
	"time"
)

// DefaultMarket é o balde usado quando a aposta não informa mercado
const DefaultMarket = "Autre"

// Record é a projeção de uma aposta usada pela agregação de estatísticas.
// Profit já vem derivado do status, então a agregação é puramente aritmética.
type Record struct {
	ID        string  `json:"id"`
	Match     string  `json:"match"`
	Date      string  `json:"date"` // "2006-01-02"
	Market    string  `json:"market"`
	Selection string  `json:"selection"`
	Odds      float64 `json:"odds"`
	Stake     float64 `json:"stake"`
	Result    Status  `json:"result"`
	Profit    float64 `json:"profit"`
}

// RecordFromBet normaliza uma aposta para o formato de agregação.
// Datas ausentes caem no dia corrente; o mercado vazio vira "Autre".
func RecordFromBet(b Bet, today string) Record {
	date := b.Date
	if date == "" {
		date = today
	}
	if len(date) > 10 {
		date = date[:10]
	}
	market := b.Market
	if market == "" {
		market = DefaultMarket
	}
	return Record{
		ID:        b.ID,
		Match:     b.HomeTeam + " vs " + b.AwayTeam,
		Date:      date,
		Market:    market,
		Selection: b.Selection,
		Odds:      b.Odds,
		Stake:     b.Stake,
		Result:    b.Status,
		Profit:    b.Profit(),
	}
}

type TodayStats struct {
	Total   int     `json:"total"`
	Won     int     `json:"won"`
	Lost    int     `json:"lost"`
	Pending int     `json:"pending"`
	WinRate float64 `json:"win_rate"`
}

type Last30Stats struct {
	Total   int     `json:"total"`
	Won     int     `json:"won"`
	WinRate float64 `json:"win_rate"`
}

type MarketStats struct {
	Market string  `json:"market"`
	Total  int     `json:"total"`
	Won    int     `json:"won"`
	ROI    float64 `json:"roi"`
}

// Stats é a visão agregada calculada sob demanda, sem estado próprio
type Stats struct {
	Total      int           `json:"total"`
	Won        int           `json:"won"`
	Lost       int           `json:"lost"`
	Pending    int           `json:"pending"`
	WinRate    float64       `json:"win_rate"`
	ROI        float64       `json:"roi"`
	Streak     int           `json:"streak"`
	StreakType string        `json:"streak_type"` // "win" | "loss"
	Today      TodayStats    `json:"today"`
	ByMarket   []MarketStats `json:"by_market"`
	Last30Days Last30Stats   `json:"last_30_days"`
}

// EmptyStats é o valor "vazio" bem definido da agregação
func EmptyStats() Stats {
	return Stats{StreakType: "win", ByMarket: []MarketStats{}}
}

// ComputeStats agrega um conjunto de registros de aposta de forma determinística.
// A ordem de entrada deve ser a de armazenamento (mais recente primeiro), pois
// a série (streak) é contada a partir do topo da lista.
func ComputeStats(records []Record, today string) Stats {
	if len(records) == 0 {
		return EmptyStats()
	}

	var settled []Record
	var won, lost, pending int
	var totalStaked, totalProfit float64
	for _, r := range records {
		switch r.Result {
		case StatusWon:
			won++
		case StatusLost:
			lost++
		default:
			pending++
			continue
		}
		settled = append(settled, r)
		totalStaked += r.Stake
		totalProfit += r.Profit
	}

	st := EmptyStats()
	st.Total = len(records)
	st.Won = won
	st.Lost = lost
	st.Pending = pending
	if len(settled) > 0 {
		st.WinRate = round1(float64(won) / float64(len(settled)) * 100)
	}
	if totalStaked > 0 {
		st.ROI = round1(totalProfit / totalStaked * 100)
	}

	// série em curso: run inicial de resultados iguais nas apostas resolvidas
	for _, r := range settled {
		t := "loss"
		if r.Result == StatusWon {
			t = "win"
		}
		if st.Streak == 0 {
			st.StreakType = t
			st.Streak = 1
		} else if t == st.StreakType {
			st.Streak++
		} else {
			break
		}
	}

	st.Today = computeToday(records, today)
	st.Last30Days = computeLast30(settled, today)
	st.ByMarket = computeByMarket(settled)

	return st
}

func computeToday(records []Record, today string) TodayStats {
	var t TodayStats
	for _, r := range records {
		if !strings.HasPrefix(r.Date, today) {
			continue
		}
		t.Total++
		switch r.Result {
		case StatusWon:
			t.Won++
		case StatusLost:
			t.Lost++
		default:
			t.Pending++
		}
	}
	if settled := t.Won + t.Lost; settled > 0 {
		t.WinRate = round1(float64(t.Won) / float64(settled) * 100)
	}
	return t
}

func computeLast30(settled []Record, today string) Last30Stats {
	var out Last30Stats
	ref, err := time.Parse("2006-01-02", today)
	if err != nil {
		return out
	}
	cutoff := ref.AddDate(0, 0, -30)
	for _, r := range settled {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil || d.Before(cutoff) {
			continue
		}
		out.Total++
		if r.Result == StatusWon {
			out.Won++
		}
	}
	if out.Total > 0 {
		out.WinRate = round1(float64(out.Won) / float64(out.Total) * 100)
	}
	return out
}

func computeByMarket(settled []Record) []MarketStats {
	type bucket struct {
		total, won     int
		staked, profit float64
	}
	// ordem de primeira aparição para manter o resultado determinístico
	var order []string
	buckets := make(map[string]*bucket)
	for _, r := range settled {
		key := r.Market
		if key == "" {
			key = DefaultMarket
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			order = append(order, key)
		}
		b.total++
		if r.Result == StatusWon {
			b.won++
		}
		b.staked += r.Stake
		b.profit += r.Profit
	}

	out := make([]MarketStats, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		roi := 0.0
		if b.staked > 0 {
			roi = round1(b.profit / b.staked * 100)
		}
		out = append(out, MarketStats{Market: key, Total: b.total, Won: b.won, ROI: roi})
	}
	return out
}
