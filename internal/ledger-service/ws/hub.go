package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// client embrulha a conexão com um mutex de escrita: o gorilla/websocket
// só admite um escritor por vez, e aqui o pong (goroutine de leitura) e o
// Broadcast (goroutine do subscriber Redis) escrevem na mesma conexão.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *client) sendJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub roteia atualizações de banca para as conexões WebSocket inscritas.
// Cada cliente se inscreve no próprio userID e só recebe as mutações
// daquela conta; o dashboard usa isso para acompanhar a banca em tempo real.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// userID -> conjunto de clientes inscritos
	subs map[string]map[*client]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket.
// Aceita subscribe/unsubscribe por usuário e responde a pings.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.subscribe(msg.UserID, c)
		case "unsubscribe":
			h.unsubscribe(msg.UserID, c)
		case "ping":
			_ = c.sendJSON(map[string]string{"type": "pong"})
		}
	}
	h.drop(c)
}

func (h *Hub) subscribe(userID string, c *client) {
	if userID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[userID]; !ok {
		h.subs[userID] = make(map[*client]struct{})
	}
	h.subs[userID][c] = struct{}{}
}

func (h *Hub) unsubscribe(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[userID]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, userID)
		}
	}
}

// drop remove o cliente de todas as assinaturas ao desconectar
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, userID)
		}
	}
}

// Broadcast entrega a atualização somente aos clientes inscritos no userID
func (h *Hub) Broadcast(update BankrollUpdate) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[update.UserID]))
	for c := range h.subs[update.UserID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, _ := json.Marshal(update)
	for _, c := range targets {
		_ = c.send(b)
	}
}
