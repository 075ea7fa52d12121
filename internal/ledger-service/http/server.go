package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pronosport/bankroll-platform/internal/ledger"
	"github.com/pronosport/bankroll-platform/internal/ledger-service/dto"
	"github.com/pronosport/bankroll-platform/pkg/contracts/events"
)

// Publisher publica os eventos de ciclo de vida das apostas
type Publisher interface {
	PublishBetPlaced(context.Context, events.BetPlaced) error
	PublishBetSettled(context.Context, events.BetSettled) error
}

// Broadcaster repassa mutações de banca para o canal de broadcast (WS)
type Broadcaster interface {
	BroadcastBankroll(ctx context.Context, userID string, balance, roi float64) error
}

// Server expõe a API REST do ledger de banca
type Server struct {
	log    *zap.Logger
	ledger *ledger.Service
	publ   Publisher
	bcast  Broadcaster
	wsFn   http.HandlerFunc

	kellyFraction float64
	maxStakePct   float64
}

// NewServer instancia o servidor HTTP do ledger.
// publ, bcast e wsHandler são opcionais (nil desliga o recurso).
func NewServer(log *zap.Logger, l *ledger.Service, publ Publisher, bcast Broadcaster, wsHandler http.HandlerFunc, kellyFraction, maxStakePct float64) *Server {
	if kellyFraction <= 0 {
		kellyFraction = ledger.DefaultKellyFraction
	}
	if maxStakePct <= 0 {
		maxStakePct = ledger.DefaultMaxStakePct
	}
	return &Server{
		log:           log,
		ledger:        l,
		publ:          publ,
		bcast:         bcast,
		wsFn:          wsHandler,
		kellyFraction: kellyFraction,
		maxStakePct:   maxStakePct,
	}
}

// Router retorna o roteador HTTP com os endpoints do ledger
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/bankroll", s.getBankroll)          // estado da conta
	r.Post("/bankroll", s.setBankroll)         // configura banca inicial
	r.Get("/bets", s.listBets)                 // apostas, mais recentes primeiro
	r.Post("/bets", s.placeBet)                // registra aposta
	r.Post("/bets/settle", s.settleBet)        // liquida aposta pendente
	r.Get("/bets/kelly", s.kellySuggestion)    // sugestão de stake (advisory)
	r.Get("/stats/predictions", s.statsGlobal) // agregado de todos os usuários
	r.Get("/stats/bankroll", s.statsHistory)   // curva da banca do usuário

	if s.wsFn != nil {
		r.Get("/ws", s.wsFn)
	}
	return r
}

// getBankroll retorna saldo, banca inicial, trava e ROI do usuário
// Conta inexistente devolve os defaults, nunca 404
func (s *Server) getBankroll(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId required")
		return
	}
	acc, err := s.ledger.State(r.Context(), userID)
	if err != nil {
		s.log.Error("bankroll state", zap.String("userId", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.BankrollResponse{
		Success:        true,
		Balance:        acc.Balance,
		InitialBalance: acc.InitialBalance,
		Locked:         acc.Locked,
		ROI:            acc.ROI(),
	})
}

// setBankroll configura a banca inicial (uma única vez quando lock=true)
func (s *Server) setBankroll(w http.ResponseWriter, r *http.Request) {
	var req dto.SetBankrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId required")
		return
	}

	acc, err := s.ledger.Initialize(r.Context(), req.UserID, req.Amount, req.Lock)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrAccountLocked):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			s.log.Error("bankroll init", zap.String("userId", req.UserID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	bankrollInitTotal.Inc()
	s.broadcast(r.Context(), req.UserID, acc)
	writeJSON(w, http.StatusOK, dto.BankrollResponse{
		Success:        true,
		Balance:        acc.Balance,
		InitialBalance: acc.InitialBalance,
		Locked:         acc.Locked,
		ROI:            acc.ROI(),
	})
}

// placeBet registra a aposta e deduz o stake do saldo
func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID == "" || req.HomeTeam == "" || req.AwayTeam == "" || req.Market == "" || req.Selection == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	bet, err := s.ledger.Place(r.Context(), req.UserID, ledger.PlaceRequest{
		MatchID:    req.MatchID,
		HomeTeam:   req.HomeTeam,
		AwayTeam:   req.AwayTeam,
		League:     req.League,
		Date:       req.Date,
		TicketType: ledger.TicketType(req.TicketType),
		Market:     req.Market,
		Selection:  req.Selection,
		Odds:       req.Odds,
		Stake:      req.Stake,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidBet):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrInsufficientFunds):
			writeError(w, http.StatusConflict, err.Error())
		default:
			s.log.Error("place bet", zap.String("userId", req.UserID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	betsPlacedTotal.Inc()

	if s.publ != nil {
		if err := s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
			BetID:      bet.ID,
			UserID:     req.UserID,
			MatchID:    bet.MatchID,
			HomeTeam:   bet.HomeTeam,
			AwayTeam:   bet.AwayTeam,
			TicketType: string(bet.TicketType),
			Market:     bet.Market,
			Selection:  bet.Selection,
			Stake:      bet.Stake,
			Odds:       bet.Odds,
		}); err != nil {
			// evento perdido não invalida a aposta já registrada
			s.log.Warn("publish bet_placed", zap.String("betId", bet.ID), zap.Error(err))
		}
	}

	acc, err := s.ledger.State(r.Context(), req.UserID)
	if err != nil {
		s.log.Warn("state after place", zap.String("userId", req.UserID), zap.Error(err))
	}
	s.broadcast(r.Context(), req.UserID, acc)

	writeJSON(w, http.StatusOK, dto.PlaceBetResponse{
		Success:    true,
		Bet:        *bet,
		NewBalance: acc.Balance,
	})
}

// settleBet liquida uma aposta pendente; repetição é no-op (idempotente)
func (s *Server) settleBet(w http.ResponseWriter, r *http.Request) {
	var req dto.SettleBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID == "" || req.BetID == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	bet, changed, err := s.ledger.Settle(r.Context(), req.UserID, req.BetID, req.Won)
	if err != nil {
		s.log.Error("settle bet", zap.String("betId", req.BetID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	acc, aerr := s.ledger.State(r.Context(), req.UserID)
	if aerr != nil {
		s.log.Warn("state after settle", zap.String("userId", req.UserID), zap.Error(aerr))
	}

	if !changed {
		// aposta inexistente ou já terminal: nada mudou
		writeJSON(w, http.StatusOK, dto.SettleBetResponse{
			BetID:      req.BetID,
			Status:     "unchanged",
			NewBalance: acc.Balance,
		})
		return
	}

	betsSettledTotal.WithLabelValues(string(bet.Status)).Inc()

	if s.publ != nil {
		if err := s.publ.PublishBetSettled(r.Context(), events.BetSettled{
			BetID:        bet.ID,
			UserID:       req.UserID,
			HomeTeam:     bet.HomeTeam,
			AwayTeam:     bet.AwayTeam,
			Market:       bet.Market,
			Selection:    bet.Selection,
			Stake:        bet.Stake,
			PotentialWin: bet.PotentialWin,
			Won:          req.Won,
			NewBalance:   acc.Balance,
			Ts:           time.Now(),
		}); err != nil {
			s.log.Warn("publish bet_settled", zap.String("betId", bet.ID), zap.Error(err))
		}
	}
	s.broadcast(r.Context(), req.UserID, acc)

	writeJSON(w, http.StatusOK, dto.SettleBetResponse{
		BetID:      bet.ID,
		Status:     string(bet.Status),
		NewBalance: acc.Balance,
	})
}

// listBets retorna as apostas do usuário, mais recentes primeiro
func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	bets, err := s.ledger.Bets(r.Context(), userID, limit)
	if err != nil {
		s.log.Error("list bets", zap.String("userId", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.BetsResponse{Bets: bets})
}

// kellySuggestion calcula a sugestão de stake a partir da banca atual
// Aceita balance explícito ou userId para buscar o saldo no ledger
func (s *Server) kellySuggestion(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	confidence, err1 := strconv.ParseFloat(q.Get("confidence"), 64)
	odds, err2 := strconv.ParseFloat(q.Get("odds"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "confidence and odds required")
		return
	}

	var balance float64
	if userID := q.Get("userId"); userID != "" {
		acc, err := s.ledger.State(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		balance = acc.Balance
	} else {
		var err error
		balance, err = strconv.ParseFloat(q.Get("balance"), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "balance or userId required")
			return
		}
	}

	stake := ledger.SuggestStake(balance, confidence, odds, s.kellyFraction, s.maxStakePct)
	writeJSON(w, http.StatusOK, dto.KellyResponse{
		SuggestedStake: stake,
		KellyFraction:  s.kellyFraction,
		MaxStakePct:    s.maxStakePct,
	})
}

// statsGlobal agrega as apostas de todos os usuários (visão do site)
func (s *Server) statsGlobal(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.AllRecords(r.Context())
	if err != nil {
		s.log.Error("aggregate records", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	placed, settledCount, err := s.ledger.Counters(r.Context())
	if err != nil {
		// contadores são acessórios: não derrubam a agregação
		s.log.Warn("read op counters", zap.Error(err))
	}

	today := time.Now().Format("2006-01-02")
	data := ledger.ComputeStats(records, today)
	writeJSON(w, http.StatusOK, dto.StatsResponse{
		Success:     true,
		Data:        data,
		Counters:    dto.OpCounters{Placed: placed, Settled: settledCount},
		IsEmpty:     len(records) == 0,
		GeneratedAt: time.Now(),
	})
}

// statsHistory retorna a curva de evolução da banca do usuário
func (s *Server) statsHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId required")
		return
	}
	points, err := s.ledger.History(r.Context(), userID, 100)
	if err != nil {
		s.log.Error("bankroll history", zap.String("userId", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.HistoryResponse{Points: points})
}

// broadcast repassa o novo estado da banca para o canal WS (best effort)
func (s *Server) broadcast(ctx context.Context, userID string, acc ledger.Account) {
	if s.bcast == nil {
		return
	}
	if err := s.bcast.BroadcastBankroll(ctx, userID, acc.Balance, acc.ROI()); err != nil {
		s.log.Warn("broadcast bankroll", zap.String("userId", userID), zap.Error(err))
	}
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}
