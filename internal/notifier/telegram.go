package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pronosport/bankroll-platform/pkg/contracts/events"
)

// Telegram envia notificações de liquidação via Bot API
type Telegram struct {
	Token  string
	ChatID string
	HTTP   *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		Token:  token,
		ChatID: chatID,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled informa se as credenciais do bot estão configuradas
func (t *Telegram) Enabled() bool {
	return t.Token != "" && t.ChatID != ""
}

// Send publica uma mensagem de texto no chat configurado
func (t *Telegram) Send(ctx context.Context, text string) error {
	payload, _ := json.Marshal(map[string]string{
		"chat_id": t.ChatID,
		"text":    text,
	})
	url := "https://api.telegram.org/bot" + t.Token + "/sendMessage"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram http %s", resp.Status)
	}
	return nil
}

// FormatSettlement monta o texto da notificação de um evento bet_settled
// (mensagens em francês, idioma do produto)
func FormatSettlement(e events.BetSettled) string {
	if e.Won {
		return fmt.Sprintf("Pari gagné: %s vs %s — %s / %s (+%.2f EUR)",
			e.HomeTeam, e.AwayTeam, e.Market, e.Selection, e.PotentialWin-e.Stake)
	}
	return fmt.Sprintf("Pari perdu: %s vs %s — %s / %s (-%.2f EUR)",
		e.HomeTeam, e.AwayTeam, e.Market, e.Selection, e.Stake)
}
