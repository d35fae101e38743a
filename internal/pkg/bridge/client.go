package bridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/comanda-app/comanda/internal/pkg/env"
	qrcode "github.com/skip2/go-qrcode"
)

const defaultBridgeURL = "http://localhost:8081"

// Client talks to the WhatsApp bridge HTTP API.
type Client struct {
	BaseURL string

	HTTPClient *http.Client
}

// QRRequest asks the bridge for a fresh pairing code.
type QRRequest struct {
	DeviceID string `json:"deviceId"`
	StoreID  uint   `json:"storeId"`
}

// QRResponse is the bridge's answer to a pairing code request. QRDuration is
// the server-side validity in seconds; zero means the caller's default applies.
type QRResponse struct {
	QRCode            string `json:"qrCode"`
	QRDuration        int    `json:"qr_duration"`
	IsAlreadyLoggedIn bool   `json:"isAlreadyLoggedIn"`
}

func NewClientFromEnv() *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(env.GetEnv("WHATSAPP_BRIDGE_URL", defaultBridgeURL)), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// RequestQR asks the bridge to start (or resume) pairing for a device and
// returns the raw pairing code plus its validity window.
func (c *Client) RequestQR(ctx context.Context, deviceHash string, storeID uint) (*QRResponse, error) {
	if strings.TrimSpace(deviceHash) == "" {
		return nil, errors.New("device hash is required")
	}

	body, err := json.Marshal(QRRequest{DeviceID: deviceHash, StoreID: storeID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/qr", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bridge qr request failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var out QRResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if !out.IsAlreadyLoggedIn && strings.TrimSpace(out.QRCode) == "" {
		return nil, errors.New("bridge qr response contained neither a code nor a logged-in flag")
	}
	return &out, nil
}

// WebSocketURL derives the bridge's live channel endpoint from its base URL:
// same host, scheme rewritten http→ws / https→wss, path /ws.
func (c *Client) WebSocketURL() (string, error) {
	return WebSocketURL(c.BaseURL)
}

func WebSocketURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("invalid bridge base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// already a websocket URL
	default:
		return "", fmt.Errorf("unsupported bridge URL scheme: %s", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// QRCodeDataURL renders a raw pairing code as a PNG data URL suitable for an
// <img> tag, so the frontend never needs a QR library.
func QRCodeDataURL(rawCode string) (string, error) {
	if strings.TrimSpace(rawCode) == "" {
		return "", errors.New("pairing code is empty")
	}
	png, err := qrcode.Encode(rawCode, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
