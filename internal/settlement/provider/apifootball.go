package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Client consulta resultados de partidas na api-football (v3)
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// FixtureResult é o snapshot do resultado de uma partida
type FixtureResult struct {
	MatchID    string
	Status     string // código curto: NS, 1H, FT, AET, PEN, ...
	HomeTeam   string
	AwayTeam   string
	HomeWinner *bool
	AwayWinner *bool
	HomeGoals  int
	AwayGoals  int
}

// Finished informa se a partida chegou a um resultado final
func (f FixtureResult) Finished() bool {
	switch f.Status {
	case "FT", "AET", "PEN":
		return true
	}
	return false
}

// resposta da api-football (somente os campos usados)
type fixturesResponse struct {
	Response []struct {
		Fixture struct {
			ID     int64 `json:"id"`
			Status struct {
				Short string `json:"short"`
			} `json:"status"`
		} `json:"fixture"`
		Teams struct {
			Home struct {
				Name   string `json:"name"`
				Winner *bool  `json:"winner"`
			} `json:"home"`
			Away struct {
				Name   string `json:"name"`
				Winner *bool  `json:"winner"`
			} `json:"away"`
		} `json:"teams"`
		Goals struct {
			Home *int `json:"home"`
			Away *int `json:"away"`
		} `json:"goals"`
	} `json:"response"`
}

// Result busca o resultado de uma partida pelo id do fixture
func (c *Client) Result(ctx context.Context, matchID string) (*FixtureResult, error) {
	url := c.BaseURL + "/fixtures?id=" + matchID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-apisports-key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fixtures request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fixtures http %s", resp.Status)
	}

	var out fixturesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("fixtures decode: %w", err)
	}
	if len(out.Response) == 0 {
		return nil, fmt.Errorf("fixture %s not found", matchID)
	}

	fx := out.Response[0]
	r := &FixtureResult{
		MatchID:    strconv.FormatInt(fx.Fixture.ID, 10),
		Status:     fx.Fixture.Status.Short,
		HomeTeam:   fx.Teams.Home.Name,
		AwayTeam:   fx.Teams.Away.Name,
		HomeWinner: fx.Teams.Home.Winner,
		AwayWinner: fx.Teams.Away.Winner,
	}
	if fx.Goals.Home != nil {
		r.HomeGoals = *fx.Goals.Home
	}
	if fx.Goals.Away != nil {
		r.AwayGoals = *fx.Goals.Away
	}
	return r, nil
}
