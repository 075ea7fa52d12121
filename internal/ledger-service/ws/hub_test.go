package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pronosport/bankroll-platform/internal/ledger-service/pubsub"
)

func newWSServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(func(r *http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// subscribeAndSync inscreve o usuário e usa ping/pong como barreira:
// quando o pong volta, o subscribe anterior já foi processado
func subscribeAndSync(t *testing.T, conn *websocket.Conn, userID string) {
	t.Helper()
	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", UserID: userID}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil || pong["type"] != "pong" {
		t.Fatalf("expected pong, got %v %v", pong, err)
	}
}

func TestBroadcastRoutesByUser(t *testing.T) {
	hub, srv := newWSServer(t)

	alice := dial(t, srv)
	bob := dial(t, srv)
	subscribeAndSync(t, alice, "alice")
	subscribeAndSync(t, bob, "bob")

	hub.Broadcast(BankrollUpdate{UserID: "alice", Payload: map[string]float64{"balance": 80}})

	alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got BankrollUpdate
	if err := alice.ReadJSON(&got); err != nil {
		t.Fatalf("alice read: %v", err)
	}
	if got.UserID != "alice" {
		t.Errorf("unexpected update: %+v", got)
	}

	// bob não está inscrito em alice: nada deve chegar
	bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := bob.ReadMessage(); err == nil {
		t.Error("bob must not receive alice's update")
	}
}

func TestBroadcastAfterUnsubscribe(t *testing.T) {
	hub, srv := newWSServer(t)

	conn := dial(t, srv)
	subscribeAndSync(t, conn, "alice")

	if err := conn.WriteJSON(ClientMsg{Type: "unsubscribe", UserID: "alice"}); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	// barreira: garante que o unsubscribe foi processado
	conn.WriteJSON(ClientMsg{Type: "ping"})
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("pong: %v", err)
	}

	hub.Broadcast(BankrollUpdate{UserID: "alice", Payload: "x"})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("unsubscribed client must not receive updates")
	}
}

func TestDisconnectCleansSubscriptions(t *testing.T) {
	hub, srv := newWSServer(t)

	conn := dial(t, srv)
	subscribeAndSync(t, conn, "alice")
	conn.Close()

	// o handler remove a conexão das assinaturas ao sair do loop de leitura
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.RLock()
		n := len(hub.subs)
		hub.mu.RUnlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscriptions not cleaned after disconnect: %d left", n)
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast(BankrollUpdate{UserID: "alice", Payload: "x"}) // não deve panicar
}

// O pong sai da goroutine de leitura do handler e o Broadcast da goroutine
// do subscriber; as escritas na mesma conexão precisam ser serializadas
func TestConcurrentPingAndBroadcast(t *testing.T) {
	hub, srv := newWSServer(t)

	conn := dial(t, srv)
	subscribeAndSync(t, conn, "alice")

	const n = 50
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			hub.Broadcast(BankrollUpdate{UserID: "alice", Payload: i})
		}
	}()

	for i := 0; i < n; i++ {
		if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
			t.Fatalf("ping %d: %v", i, err)
		}
	}
	<-done

	// n pongs + n broadcasts, em qualquer ordem
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < 2*n; i++ {
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
	}
}

// O payload publicado pelo RedisBroadcaster precisa decodificar no formato
// que o hub entrega aos clientes
func TestBroadcasterPayloadRoundTrip(t *testing.T) {
	hub, srv := newWSServer(t)

	conn := dial(t, srv)
	subscribeAndSync(t, conn, "alice")

	wire, err := json.Marshal(pubsub.WSUpdate{
		UserID:  "alice",
		Payload: pubsub.BankrollPayload{Balance: 80, ROI: -20},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	// mesmo caminho do subscriber: bytes do canal -> BankrollUpdate -> hub
	var upd BankrollUpdate
	if err := json.Unmarshal(wire, &upd); err != nil {
		t.Fatalf("unmarshal wire payload: %v", err)
	}
	hub.Broadcast(upd)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		UserID  string `json:"userId"`
		Payload struct {
			Balance float64 `json:"balance"`
			ROI     float64 `json:"roi"`
		} `json:"payload"`
	}
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.UserID != "alice" || got.Payload.Balance != 80 || got.Payload.ROI != -20 {
		t.Errorf("unexpected payload: %+v", got)
	}
}
