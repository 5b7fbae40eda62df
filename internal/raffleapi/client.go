package raffleapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"raffle_tracker/internal/domain"
)

const (
	rafflePath = "/api/raffle"
	claimPath  = "/api/raffle/claim"
)

// Config holds client configuration.
type Config struct {
	Timeout time.Duration
	// DefaultGatewayOrigin is used when a token carries no origin of its
	// own.
	DefaultGatewayOrigin string
}

// Client talks to the raffle gateway. Token and call origin are per-raffle,
// supplied by the token sub-record on every call.
type Client struct {
	httpClient    *http.Client
	defaultOrigin string
	logger        *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		defaultOrigin: cfg.DefaultGatewayOrigin,
		logger:        logger.With("component", "raffleapi"),
	}
}

// RefreshToken fetches a fresh bearer token from the raffle's webview URL.
func (c *Client) RefreshToken(ctx context.Context, webviewURL string) (*domain.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, webviewURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.WebbitToken == "" {
		return nil, fmt.Errorf("token endpoint returned no token")
	}

	token := &domain.Token{
		WebbitToken:    tr.WebbitToken,
		WebviewURL:     webviewURL,
		GatewayOrigin:  tr.GatewayOrigin,
		TokenFetchedAt: time.Now().Unix(),
	}
	if token.GatewayOrigin == "" {
		token.GatewayOrigin = c.defaultOrigin
	}

	c.logger.Debug("refreshed token", "gateway_origin", token.GatewayOrigin)
	return token, nil
}

// FetchRaffleData fetches the raffle's authoritative state. Non-2xx
// statuses are returned in the Result for the caller to classify; only
// transport failures are errors.
func (c *Client) FetchRaffleData(ctx context.Context, token domain.Token) (*Result, error) {
	return c.do(ctx, http.MethodGet, rafflePath, token)
}

// Claim submits a claim for the raffle. Claims are irreversible on the
// gateway side, so callers gate them behind the engine's policies.
func (c *Client) Claim(ctx context.Context, token domain.Token) (*Result, error) {
	return c.do(ctx, http.MethodPost, claimPath, token)
}

func (c *Client) do(ctx context.Context, method, path string, token domain.Token) (*Result, error) {
	origin := token.GatewayOrigin
	if origin == "" {
		origin = c.defaultOrigin
	}
	url := strings.TrimRight(origin, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.WebbitToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	result := &Result{Status: resp.StatusCode}
	if !result.OK() {
		c.logger.Debug("gateway returned non-success status",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		)
		return result, nil
	}

	var rr raffleResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	data := rr.Raffle
	if data == nil {
		data = &RaffleData{}
	}
	if rr.Winner != nil {
		if data.WinnerID == "" {
			data.WinnerID = rr.Winner.WinnerID
		}
		if data.WinnerName == "" {
			data.WinnerName = rr.Winner.WinnerName
		}
	}
	result.Data = data
	return result, nil
}
