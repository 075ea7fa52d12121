package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pronosport/bankroll-platform/internal/ledger"
	"github.com/pronosport/bankroll-platform/internal/ledger-service/dto"
	"github.com/pronosport/bankroll-platform/internal/store"
	"github.com/pronosport/bankroll-platform/pkg/contracts/events"
)

// fakePublisher captura os eventos publicados pelo servidor
type fakePublisher struct {
	placed  []events.BetPlaced
	settled []events.BetSettled
}

func (f *fakePublisher) PublishBetPlaced(_ context.Context, e events.BetPlaced) error {
	f.placed = append(f.placed, e)
	return nil
}

func (f *fakePublisher) PublishBetSettled(_ context.Context, e events.BetSettled) error {
	f.settled = append(f.settled, e)
	return nil
}

func newTestServer() (*Server, *fakePublisher) {
	svc := ledger.New(store.NewMemory()).WithClock(func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	})
	pub := &fakePublisher{}
	return NewServer(zap.NewNop(), svc, pub, nil, nil, 0, 0), pub
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestGetBankrollDefaults(t *testing.T) {
	srv, _ := newTestServer()
	router := srv.Router()

	rr := doJSON(t, router, http.MethodGet, "/bankroll?userId=alice", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[dto.BankrollResponse](t, rr)
	if resp.Balance != 100 || resp.InitialBalance != 100 || resp.Locked {
		t.Errorf("unexpected defaults: %+v", resp)
	}

	rr = doJSON(t, router, http.MethodGet, "/bankroll", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing userId: expected 400, got %d", rr.Code)
	}
}

func TestSetBankrollValidationAndLock(t *testing.T) {
	srv, _ := newTestServer()
	router := srv.Router()

	rr := doJSON(t, router, http.MethodPost, "/bankroll", dto.SetBankrollRequest{UserID: "alice", Amount: 5})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("amount below minimum: expected 400, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodPost, "/bankroll", dto.SetBankrollRequest{UserID: "alice", Amount: 200, Lock: true})
	if rr.Code != http.StatusOK {
		t.Fatalf("init: status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[dto.BankrollResponse](t, rr)
	if resp.Balance != 200 || !resp.Locked {
		t.Errorf("unexpected state after init: %+v", resp)
	}

	// conta travada rejeita nova configuração
	rr = doJSON(t, router, http.MethodPost, "/bankroll", dto.SetBankrollRequest{UserID: "alice", Amount: 500})
	if rr.Code != http.StatusForbidden {
		t.Errorf("locked account: expected 403, got %d", rr.Code)
	}
}

func TestPlaceAndSettleFlow(t *testing.T) {
	srv, pub := newTestServer()
	router := srv.Router()

	place := dto.PlaceBetRequest{
		UserID:    "alice",
		MatchID:   "1100",
		HomeTeam:  "PSG",
		AwayTeam:  "OM",
		Market:    "1N2",
		Selection: "1",
		Odds:      2.0,
		Stake:     20,
	}
	rr := doJSON(t, router, http.MethodPost, "/bets", place)
	if rr.Code != http.StatusOK {
		t.Fatalf("place: status %d: %s", rr.Code, rr.Body.String())
	}
	placed := decode[dto.PlaceBetResponse](t, rr)
	if placed.NewBalance != 80 {
		t.Errorf("expected balance 80, got %v", placed.NewBalance)
	}
	if placed.Bet.PotentialWin != 40 {
		t.Errorf("expected potential win 40, got %v", placed.Bet.PotentialWin)
	}
	if len(pub.placed) != 1 || pub.placed[0].BetID != placed.Bet.ID {
		t.Errorf("expected one bet_placed event, got %+v", pub.placed)
	}

	settle := dto.SettleBetRequest{UserID: "alice", BetID: placed.Bet.ID, Won: true}
	rr = doJSON(t, router, http.MethodPost, "/bets/settle", settle)
	if rr.Code != http.StatusOK {
		t.Fatalf("settle: status %d: %s", rr.Code, rr.Body.String())
	}
	settled := decode[dto.SettleBetResponse](t, rr)
	if settled.Status != "won" || settled.NewBalance != 120 {
		t.Errorf("unexpected settle response: %+v", settled)
	}
	if len(pub.settled) != 1 || !pub.settled[0].Won {
		t.Errorf("expected one bet_settled event, got %+v", pub.settled)
	}

	// repetição é no-op e não publica evento duplicado
	rr = doJSON(t, router, http.MethodPost, "/bets/settle", settle)
	repeat := decode[dto.SettleBetResponse](t, rr)
	if repeat.Status != "unchanged" || repeat.NewBalance != 120 {
		t.Errorf("unexpected repeat response: %+v", repeat)
	}
	if len(pub.settled) != 1 {
		t.Errorf("repeat settle must not publish again, got %d events", len(pub.settled))
	}
}

func TestPlaceBetErrorMapping(t *testing.T) {
	srv, _ := newTestServer()
	router := srv.Router()

	base := dto.PlaceBetRequest{
		UserID: "alice", HomeTeam: "PSG", AwayTeam: "OM",
		Market: "1N2", Selection: "1", Odds: 2.0,
	}

	over := base
	over.Stake = 500
	rr := doJSON(t, router, http.MethodPost, "/bets", over)
	if rr.Code != http.StatusConflict {
		t.Errorf("insufficient funds: expected 409, got %d", rr.Code)
	}

	bad := base
	bad.Stake = 20
	bad.Odds = 0.5
	rr = doJSON(t, router, http.MethodPost, "/bets", bad)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid odds: expected 400, got %d", rr.Code)
	}

	missing := base
	missing.Stake = 20
	missing.Market = ""
	rr = doJSON(t, router, http.MethodPost, "/bets", missing)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing market: expected 400, got %d", rr.Code)
	}
}

func TestListBets(t *testing.T) {
	srv, _ := newTestServer()
	router := srv.Router()

	for i := 0; i < 3; i++ {
		rr := doJSON(t, router, http.MethodPost, "/bets", dto.PlaceBetRequest{
			UserID: "alice", HomeTeam: "PSG", AwayTeam: "OM",
			Market: "1N2", Selection: "1", Odds: 2.0, Stake: 10,
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("place %d: %d", i, rr.Code)
		}
	}

	rr := doJSON(t, router, http.MethodGet, "/bets?userId=alice&limit=2", nil)
	resp := decode[dto.BetsResponse](t, rr)
	if len(resp.Bets) != 2 {
		t.Errorf("expected 2 bets with limit, got %d", len(resp.Bets))
	}
}

func TestKellySuggestion(t *testing.T) {
	srv, _ := newTestServer()
	router := srv.Router()

	// defaults: f* = 0.2, fração 0.25 -> 5 sobre banca de 100
	rr := doJSON(t, router, http.MethodGet, "/bets/kelly?balance=100&confidence=0.6&odds=2.0", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[dto.KellyResponse](t, rr)
	if resp.SuggestedStake != 5 {
		t.Errorf("expected suggested stake 5, got %v", resp.SuggestedStake)
	}

	// userId resolve o saldo no ledger (conta default = 100)
	rr = doJSON(t, router, http.MethodGet, "/bets/kelly?userId=alice&confidence=0.6&odds=2.0", nil)
	resp = decode[dto.KellyResponse](t, rr)
	if resp.SuggestedStake != 5 {
		t.Errorf("expected suggested stake 5 via userId, got %v", resp.SuggestedStake)
	}

	rr = doJSON(t, router, http.MethodGet, "/bets/kelly?balance=100", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing params: expected 400, got %d", rr.Code)
	}
}

func TestStatsEndpoints(t *testing.T) {
	srv, _ := newTestServer()
	router := srv.Router()

	rr := doJSON(t, router, http.MethodGet, "/stats/predictions", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	stats := decode[dto.StatsResponse](t, rr)
	if !stats.IsEmpty || stats.Data.StreakType != "win" {
		t.Errorf("unexpected empty stats: %+v", stats)
	}

	rr = doJSON(t, router, http.MethodGet, "/stats/bankroll?userId=alice", nil)
	hist := decode[dto.HistoryResponse](t, rr)
	if len(hist.Points) != 2 {
		t.Errorf("expected default two-point curve, got %d", len(hist.Points))
	}
}

func TestStatsExposeOpCounters(t *testing.T) {
	srv, _ := newTestServer()
	router := srv.Router()

	rr := doJSON(t, router, http.MethodPost, "/bets", dto.PlaceBetRequest{
		UserID: "alice", HomeTeam: "PSG", AwayTeam: "OM",
		Market: "1N2", Selection: "1", Odds: 2.0, Stake: 20,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("place: %d", rr.Code)
	}
	placed := decode[dto.PlaceBetResponse](t, rr)

	rr = doJSON(t, router, http.MethodPost, "/bets/settle",
		dto.SettleBetRequest{UserID: "alice", BetID: placed.Bet.ID, Won: false})
	if rr.Code != http.StatusOK {
		t.Fatalf("settle: %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodGet, "/stats/predictions", nil)
	stats := decode[dto.StatsResponse](t, rr)
	if stats.Counters.Placed != 1 || stats.Counters.Settled != 1 {
		t.Errorf("unexpected op counters: %+v", stats.Counters)
	}
}
