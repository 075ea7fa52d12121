package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const ChannelBankrollBroadcast = "bankroll_updates_broadcast"

// RedisBroadcaster repassa mutações de banca para o canal Pub/Sub
// consumido pelo hub WebSocket do ledger-service
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = ChannelBankrollBroadcast
	}
	return &RedisBroadcaster{r: r, channel: channel}
}

// Payload padrão para o WS do ledger-service
type WSUpdate struct {
	UserID  string      `json:"userId"`
	Payload interface{} `json:"payload"`
}

// BankrollPayload é o corpo enviado aos clientes conectados
type BankrollPayload struct {
	Balance float64 `json:"balance"`
	ROI     float64 `json:"roi"`
}

func (b *RedisBroadcaster) BroadcastBankroll(ctx context.Context, userID string, balance, roi float64) error {
	upd := WSUpdate{UserID: userID, Payload: BankrollPayload{Balance: balance, ROI: roi}}
	payload, _ := json.Marshal(upd)
	return b.r.Publish(ctx, b.channel, payload).Err()
}
