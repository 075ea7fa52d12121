package ledger

// Parâmetros default da sugestão de stake
const (
	DefaultKellyFraction = 0.25
	DefaultMaxStakePct   = 0.10
)

// SuggestStake calcula a sugestão de stake pelo critério de Kelly.
// É puramente advisory: nada impede o chamador de ignorar o valor.
//
// confidence aceita probabilidade em [0,1] ou percentual em (1,100];
// odds é decimal (b+1). A fração de Kelly f* = (p*b - q) / b é aplicada
// sobre a banca, reduzida por fraction (Kelly fracionário) e limitada a
// maxPct da banca. Retorna 0 quando não há edge (f* <= 0).
func SuggestStake(balance, confidence, odds, fraction, maxPct float64) float64 {
	if balance <= 0 || odds <= 1.0 {
		return 0
	}

	p := confidence
	if p > 1 {
		p = p / 100
	}
	if p <= 0 {
		return 0
	}
	if p > 1 {
		p = 1
	}

	b := odds - 1
	f := (p*b - (1 - p)) / b
	if f <= 0 {
		return 0
	}

	if fraction <= 0 || fraction > 1 {
		fraction = DefaultKellyFraction
	}
	if maxPct <= 0 || maxPct > 1 {
		maxPct = DefaultMaxStakePct
	}

	stake := f * fraction * balance
	if ceiling := maxPct * balance; stake > ceiling {
		stake = ceiling
	}
	if stake > balance {
		stake = balance
	}
	return round2(stake)
}
