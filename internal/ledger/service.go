package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pronosport/bankroll-platform/internal/store"
)

// Service implementa as operações do ledger de banca sobre o Store.
// Toda mutação de conta roda sob o mutex do usuário correspondente.
type Service struct {
	store store.Store
	locks keyMutex
	now   func() time.Time
}

func New(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// WithClock troca a fonte de tempo (usado em testes)
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// PlaceRequest carrega o snapshot do evento e os parâmetros da aposta
type PlaceRequest struct {
	MatchID    string
	HomeTeam   string
	AwayTeam   string
	League     string
	Date       string
	TicketType TicketType
	Market     string
	Selection  string
	Odds       float64
	Stake      float64
}

// HistoryPoint é um ponto da curva de evolução da banca
type HistoryPoint struct {
	Date     string  `json:"date"`
	Bankroll float64 `json:"bankroll"`
}

// State retorna o estado atual da conta. Conta inexistente não é erro:
// devolve os defaults (100/100, destravada).
func (s *Service) State(ctx context.Context, userID string) (Account, error) {
	return s.loadAccount(ctx, userID)
}

// Initialize configura balance e initialBalance de uma vez só.
// amount deve estar em [10, 100000]; depois de travada (lock=true em uma
// chamada anterior), novas chamadas falham com ErrAccountLocked sem mutação.
func (s *Service) Initialize(ctx context.Context, userID string, amount float64, lock bool) (Account, error) {
	if math.IsNaN(amount) || amount < MinInitialAmount || amount > MaxInitialAmount {
		return Account{}, ErrInvalidAmount
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	locked, err := s.loadLocked(ctx, userID)
	if err != nil {
		return Account{}, err
	}
	if locked {
		return Account{}, ErrAccountLocked
	}

	now := s.now()
	if err := s.setBalance(ctx, userID, amount); err != nil {
		return Account{}, err
	}
	if err := s.store.Set(ctx, keyInitial(userID), formatAmount(amount)); err != nil {
		return Account{}, fmt.Errorf("set initial balance: %w", err)
	}
	if lock {
		if err := s.store.Set(ctx, keyLocked(userID), "true"); err != nil {
			return Account{}, fmt.Errorf("set locked: %w", err)
		}
	}
	if err := s.touch(ctx, userID, now); err != nil {
		return Account{}, err
	}
	s.pushHistory(ctx, userID, now, amount)

	return Account{Balance: amount, InitialBalance: amount, Locked: lock, LastUpdated: now}, nil
}

// Place deduz o stake imediatamente (modelo de reserva não reembolsável)
// e registra a aposta como pendente no topo da lista do usuário.
func (s *Service) Place(ctx context.Context, userID string, req PlaceRequest) (*Bet, error) {
	if req.Stake <= 0 || req.Odds < 1.0 || math.IsNaN(req.Stake) || math.IsNaN(req.Odds) {
		return nil, ErrInvalidBet
	}
	if req.TicketType != TicketFun {
		req.TicketType = TicketSafe
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	acc, err := s.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Stake > acc.Balance {
		return nil, ErrInsufficientFunds
	}

	now := s.now()
	bet := Bet{
		ID:           uuid.NewString(),
		MatchID:      req.MatchID,
		HomeTeam:     req.HomeTeam,
		AwayTeam:     req.AwayTeam,
		League:       req.League,
		Date:         req.Date,
		TicketType:   req.TicketType,
		Market:       req.Market,
		Selection:    req.Selection,
		Odds:         req.Odds,
		Stake:        req.Stake,
		PotentialWin: round2(req.Stake * req.Odds),
		Status:       StatusPending,
		CreatedAt:    now,
	}

	bets, err := s.loadBets(ctx, userID)
	if err != nil {
		return nil, err
	}
	bets = append([]Bet{bet}, bets...) // mais recente primeiro
	if err := s.saveBets(ctx, userID, bets); err != nil {
		return nil, err
	}

	newBalance := round2(acc.Balance - req.Stake)
	if err := s.setBalance(ctx, userID, newBalance); err != nil {
		return nil, err
	}
	if err := s.touch(ctx, userID, now); err != nil {
		return nil, err
	}
	s.pushHistory(ctx, userID, now, newBalance)
	_, _ = s.store.Incr(ctx, keyCounterPlaced)

	return &bet, nil
}

// Settle liquida uma aposta pendente. Aposta inexistente ou já terminal é
// no-op silencioso (idempotência de liquidação): retorna (nil, false, nil)
// e não mexe no saldo uma segunda vez.
func (s *Service) Settle(ctx context.Context, userID, betID string, won bool) (*Bet, bool, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	bets, err := s.loadBets(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	idx := -1
	for i := range bets {
		if bets[i].ID == betID {
			idx = i
			break
		}
	}
	if idx < 0 || bets[idx].Status != StatusPending {
		return nil, false, nil
	}

	now := s.now()
	if won {
		bets[idx].Status = StatusWon
	} else {
		bets[idx].Status = StatusLost
	}
	bets[idx].SettledAt = &now

	acc, err := s.loadAccount(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	newBalance := acc.Balance
	if won {
		// o stake já saiu na criação; o potentialWin embute o retorno do stake
		newBalance = round2(acc.Balance + bets[idx].PotentialWin)
	}

	if err := s.saveBets(ctx, userID, bets); err != nil {
		return nil, false, err
	}
	if err := s.setBalance(ctx, userID, newBalance); err != nil {
		return nil, false, err
	}
	if err := s.touch(ctx, userID, now); err != nil {
		return nil, false, err
	}
	s.pushHistory(ctx, userID, now, newBalance)
	_, _ = s.store.Incr(ctx, keyCounterSettled)

	settled := bets[idx]
	return &settled, true, nil
}

// Bets retorna as apostas do usuário, mais recentes primeiro.
// limit <= 0 retorna todas.
func (s *Service) Bets(ctx context.Context, userID string, limit int) ([]Bet, error) {
	bets, err := s.loadBets(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(bets) > limit {
		bets = bets[:limit]
	}
	return bets, nil
}

// History retorna a curva da banca em ordem cronológica (até limit pontos).
// Sem histórico, devolve dois pontos default: partida em 100 e saldo atual.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]HistoryPoint, error) {
	if limit <= 0 {
		limit = 100
	}
	raw, err := s.store.LRange(ctx, keyHistory(userID), 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	if len(raw) == 0 {
		acc, err := s.loadAccount(ctx, userID)
		if err != nil {
			return nil, err
		}
		today := s.now().Format("2006-01-02")
		return []HistoryPoint{
			{Date: today, Bankroll: DefaultBalance},
			{Date: today, Bankroll: acc.Balance},
		}, nil
	}

	// armazenado com LPush, então vem em ordem cronológica inversa
	out := make([]HistoryPoint, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var p HistoryPoint
		if err := json.Unmarshal([]byte(raw[i]), &p); err != nil {
			continue // ponto corrompido não derruba a curva
		}
		out = append(out, p)
	}
	return out, nil
}

// UsersWithBets lista os usuários que têm apostas registradas
func (s *Service) UsersWithBets(ctx context.Context) ([]string, error) {
	keys, err := s.store.Keys(ctx, "user:*:bets")
	if err != nil {
		return nil, fmt.Errorf("enumerate bet keys: %w", err)
	}
	users := make([]string, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimSuffix(strings.TrimPrefix(k, "user:"), ":bets")
		if id != "" && id != k {
			users = append(users, id)
		}
	}
	return users, nil
}

// AllRecords varre as apostas de todos os usuários e converte para registros
// de estatística. Registro corrompido é pulado, nunca aborta a varredura.
func (s *Service) AllRecords(ctx context.Context) ([]Record, error) {
	keys, err := s.store.Keys(ctx, "user:*:bets")
	if err != nil {
		return nil, fmt.Errorf("enumerate bet keys: %w", err)
	}

	today := s.now().Format("2006-01-02")
	var records []Record
	for _, key := range keys {
		raw, err := s.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			continue
		}
		for _, item := range items {
			var b Bet
			if err := json.Unmarshal(item, &b); err != nil {
				continue
			}
			records = append(records, RecordFromBet(b, today))
		}
	}
	return records, nil
}

// Counters retorna os contadores globais de operações do ledger
// (apostas registradas e liquidadas desde o início do site)
func (s *Service) Counters(ctx context.Context) (placed, settled int64, err error) {
	placed, err = s.readCounter(ctx, keyCounterPlaced)
	if err != nil {
		return 0, 0, err
	}
	settled, err = s.readCounter(ctx, keyCounterSettled)
	if err != nil {
		return 0, 0, err
	}
	return placed, settled, nil
}

func (s *Service) readCounter(ctx context.Context, key string) (int64, error) {
	v, err := s.store.Get(ctx, key)
	if err == store.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	n, perr := strconv.ParseInt(v, 10, 64)
	if perr != nil {
		return 0, nil // contador corrompido conta como zero
	}
	return n, nil
}

// --- helpers de persistência ---

func (s *Service) loadAccount(ctx context.Context, userID string) (Account, error) {
	acc := Account{Balance: DefaultBalance, InitialBalance: DefaultBalance}

	if v, err := s.store.Get(ctx, keyBalance(userID)); err == nil {
		if f, perr := strconv.ParseFloat(v, 64); perr == nil {
			acc.Balance = f
		}
	} else if err != store.ErrNotFound {
		return acc, fmt.Errorf("read balance: %w", err)
	}

	if v, err := s.store.Get(ctx, keyInitial(userID)); err == nil {
		if f, perr := strconv.ParseFloat(v, 64); perr == nil {
			acc.InitialBalance = f
		}
	} else if err != store.ErrNotFound {
		return acc, fmt.Errorf("read initial balance: %w", err)
	}

	locked, err := s.loadLocked(ctx, userID)
	if err != nil {
		return acc, err
	}
	acc.Locked = locked

	if v, err := s.store.Get(ctx, keyUpdated(userID)); err == nil {
		if t, perr := time.Parse(time.RFC3339, v); perr == nil {
			acc.LastUpdated = t
		}
	} else if err != store.ErrNotFound {
		return acc, fmt.Errorf("read last updated: %w", err)
	}

	return acc, nil
}

func (s *Service) loadLocked(ctx context.Context, userID string) (bool, error) {
	v, err := s.store.Get(ctx, keyLocked(userID))
	if err == store.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read locked: %w", err)
	}
	return v == "true", nil
}

func (s *Service) loadBets(ctx context.Context, userID string) ([]Bet, error) {
	raw, err := s.store.Get(ctx, keyBets(userID))
	if err == store.ErrNotFound {
		return []Bet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bets: %w", err)
	}
	var bets []Bet
	if err := json.Unmarshal([]byte(raw), &bets); err != nil {
		return nil, fmt.Errorf("decode bets: %w", err)
	}
	return bets, nil
}

func (s *Service) saveBets(ctx context.Context, userID string, bets []Bet) error {
	b, err := json.Marshal(bets)
	if err != nil {
		return fmt.Errorf("encode bets: %w", err)
	}
	if err := s.store.Set(ctx, keyBets(userID), string(b)); err != nil {
		return fmt.Errorf("write bets: %w", err)
	}
	return nil
}

func (s *Service) setBalance(ctx context.Context, userID string, v float64) error {
	if err := s.store.Set(ctx, keyBalance(userID), formatAmount(v)); err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	return nil
}

func (s *Service) touch(ctx context.Context, userID string, now time.Time) error {
	if err := s.store.Set(ctx, keyUpdated(userID), now.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write last updated: %w", err)
	}
	return nil
}

// pushHistory registra um ponto da curva; falha aqui não invalida a operação
func (s *Service) pushHistory(ctx context.Context, userID string, now time.Time, balance float64) {
	p := HistoryPoint{Date: now.Format("2006-01-02"), Bankroll: balance}
	b, _ := json.Marshal(p)
	_ = s.store.LPush(ctx, keyHistory(userID), string(b))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
