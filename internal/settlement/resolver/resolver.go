package resolver

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pronosport/bankroll-platform/internal/ledger"
	"github.com/pronosport/bankroll-platform/internal/settlement/provider"
)

var lineRe = regexp.MustCompile(`[\d.]+`)

// Resolve deriva o resultado de uma aposta a partir do resultado da partida.
// Os mercados seguem a nomenclatura (francesa) dos tickets publicados:
// 1N2, double chance, over/under ("plus de"/"moins de") e BTTS
// ("les deux equipes marquent"). Quando nenhuma regra casa, a aposta
// permanece pendente para verificação manual.
func Resolve(bet ledger.Bet, fx provider.FixtureResult) ledger.Status {
	if !fx.Finished() {
		return ledger.StatusPending
	}

	market := strings.ToLower(bet.Market)
	selection := strings.ToLower(bet.Selection)

	// BTTS (les deux equipes marquent)
	if strings.Contains(market, "btts") || strings.Contains(market, "deux equipes marquent") || strings.Contains(market, "les deux") {
		bttsYes := fx.HomeGoals > 0 && fx.AwayGoals > 0
		if strings.Contains(selection, "oui") || strings.Contains(selection, "yes") {
			return verdict(bttsYes)
		}
		if strings.Contains(selection, "non") || strings.Contains(selection, "no") {
			return verdict(!bttsYes)
		}
	}

	// Over/Under sobre o total de gols
	totalGoals := fx.HomeGoals + fx.AwayGoals
	if strings.Contains(market, "over") || strings.Contains(market, "plus de") {
		return verdict(float64(totalGoals) > parseLine(market))
	}
	if strings.Contains(market, "under") || strings.Contains(market, "moins de") {
		return verdict(float64(totalGoals) < parseLine(market))
	}

	homeWon := fx.HomeWinner != nil && *fx.HomeWinner
	awayWon := fx.AwayWinner != nil && *fx.AwayWinner
	isDraw := !homeWon && !awayWon

	// Double chance
	if strings.Contains(market, "double chance") {
		switch {
		case strings.Contains(selection, "1x"),
			strings.Contains(selection, teamPrefix(fx.HomeTeam, 4)) && strings.Contains(selection, "nul"):
			return verdict(homeWon || isDraw)
		case strings.Contains(selection, "x2"),
			strings.Contains(selection, teamPrefix(fx.AwayTeam, 4)) && strings.Contains(selection, "nul"):
			return verdict(awayWon || isDraw)
		case strings.Contains(selection, "12"):
			return verdict(homeWon || awayWon)
		}
	}

	// 1N2 (resultado da partida)
	if selection == "1" || strings.Contains(selection, teamPrefix(fx.HomeTeam, 5)) {
		return verdict(homeWon)
	}
	if selection == "2" || strings.Contains(selection, teamPrefix(fx.AwayTeam, 5)) {
		return verdict(awayWon)
	}
	if selection == "n" || selection == "x" || strings.Contains(selection, "nul") || strings.Contains(selection, "draw") {
		return verdict(isDraw)
	}

	// nenhuma regra casou
	return ledger.StatusPending
}

func verdict(won bool) ledger.Status {
	if won {
		return ledger.StatusWon
	}
	return ledger.StatusLost
}

// parseLine extrai a linha do mercado (ex: "plus de 2.5 buts" -> 2.5)
func parseLine(market string) float64 {
	m := lineRe.FindString(market)
	if m == "" {
		return 2.5
	}
	line, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 2.5
	}
	return line
}

// teamPrefix normaliza e corta o nome do time para casamento aproximado
func teamPrefix(name string, n int) string {
	name = strings.ToLower(name)
	r := []rune(name)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
