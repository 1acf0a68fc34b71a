package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"genshin-bingo/internal/game/viewmodel"
)

type apiClient struct {
	base     string
	adminKey string
	token    string
	http     *http.Client
}

func newAPIClient(base, adminKey string) *apiClient {
	return &apiClient{
		base:     strings.TrimRight(base, "/"),
		adminKey: adminKey,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type apiError struct {
	Status int
	Code   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api %d: %s", e.Status, e.Code)
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.adminKey != "" {
		req.Header.Set("X-Admin-Key", c.adminKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &apiError{Status: resp.StatusCode, Code: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) register(ctx context.Context, name string) (string, error) {
	var out struct {
		Player struct {
			ID string `json:"id"`
		} `json:"player"`
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/players", map[string]string{"name": name}, &out); err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Player.ID, nil
}

func (c *apiClient) state(ctx context.Context) (*viewmodel.StateView, error) {
	var st viewmodel.StateView
	if err := c.do(ctx, http.MethodGet, "/api/state", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *apiClient) act(ctx context.Context, a action, st *viewmodel.StateView) error {
	switch a {
	case actionPrepare:
		if err := c.do(ctx, http.MethodPost, "/api/me/board/random", nil, nil); err != nil {
			return err
		}
		return c.do(ctx, http.MethodPost, "/api/me/ready", nil, nil)
	case actionRequestStart:
		return c.do(ctx, http.MethodPost, "/api/game/start-request", nil, nil)
	case actionAgree:
		return c.do(ctx, http.MethodPost, "/api/game/start-request/agree", nil, nil)
	case actionDraw:
		return c.do(ctx, http.MethodPost, "/api/game/draw", map[string]int{"expected_turn": st.CurrentOrder}, nil)
	}
	return nil
}

func (c *apiClient) wsURL() (string, error) {
	u, err := url.Parse(c.base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()
	return u.String(), nil
}
