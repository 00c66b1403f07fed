package analytics

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	DefaultPixelBaseURL    = "https://graph.facebook.com"
	DefaultPixelAPIVersion = "v18.0"
)

// PixelConfig locates the Conversions API.
type PixelConfig struct {
	BaseURL     string
	APIVersion  string
	AccessToken string
	Timeout     time.Duration
}

// PixelSink posts purchase events to the Meta Conversions API of the pixel
// named in the event.
type PixelSink struct {
	cfg    PixelConfig
	client *http.Client
	now    func() time.Time
}

// PixelOption configures a PixelSink.
type PixelOption func(*PixelSink)

// WithHTTPClient replaces the transport used for delivery. The access token is
// still attached.
func WithHTTPClient(client *http.Client) PixelOption {
	return func(s *PixelSink) {
		s.client = client
	}
}

// WithNowTime sets the clock used for event_time.
func WithNowTime(now func() time.Time) PixelOption {
	return func(s *PixelSink) {
		s.now = now
	}
}

func NewPixelSink(cfg PixelConfig, options ...PixelOption) (*PixelSink, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("[NewPixelSink] access token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultPixelBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultPixelAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	s := &PixelSink{cfg: cfg, client: http.DefaultClient, now: time.Now}
	for _, opt := range options {
		opt(s)
	}
	s.client = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"}),
			Base:   s.client.Transport,
		},
	}
	return s, nil
}

type pixelPayload struct {
	Data []pixelEvent `json:"data"`
}

type pixelEvent struct {
	EventName      string          `json:"event_name"`
	EventTime      int64           `json:"event_time"`
	EventID        string          `json:"event_id"`
	EventSourceURL string          `json:"event_source_url,omitempty"`
	ActionSource   string          `json:"action_source"`
	UserData       pixelUserData   `json:"user_data"`
	CustomData     pixelCustomData `json:"custom_data"`
}

type pixelUserData struct {
	Phone []string `json:"ph,omitempty"`
	Email []string `json:"em,omitempty"`
}

type pixelCustomData struct {
	Value       json.Number `json:"value"`
	Currency    string      `json:"currency"`
	ContentIDs  []string    `json:"content_ids"`
	ContentType string      `json:"content_type"`
	NumItems    int         `json:"num_items"`
}

func (s *PixelSink) Emit(ctx context.Context, event Event) error {
	if event.PixelID == "" {
		return errors.New("[PixelSink.Emit] pixel id is required")
	}

	body, err := json.Marshal(s.payload(event))
	if err != nil {
		return fmt.Errorf("[PixelSink.Emit] encode: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/events", strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.APIVersion, event.PixelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("[PixelSink.Emit] request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("[PixelSink.Emit] %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 300 {
		msg := gjson.GetBytes(respBody, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("[PixelSink.Emit] status %d: %s", resp.StatusCode, msg)
	}
	return nil
}

func (s *PixelSink) payload(event Event) pixelPayload {
	eventTime := event.Time
	if eventTime.IsZero() {
		eventTime = s.now()
	}
	numItems := event.NumItems
	if numItems == 0 {
		numItems = 1
	}
	currency := event.Currency
	if currency == "" {
		currency = "BDT"
	}
	name := event.Name
	if name == "" {
		name = EventPurchase
	}

	pe := pixelEvent{
		EventName:      name,
		EventTime:      eventTime.Unix(),
		EventID:        event.CorrelationID,
		EventSourceURL: event.SourceURL,
		ActionSource:   "website",
		CustomData: pixelCustomData{
			Value:       json.Number(event.Value.String()),
			Currency:    currency,
			ContentIDs:  []string{event.ProductID.String()},
			ContentType: "product",
			NumItems:    numItems,
		},
	}
	if event.CustomerPhone != "" {
		pe.UserData.Phone = []string{hashUserData(event.CustomerPhone)}
	}
	if event.CustomerEmail != "" {
		pe.UserData.Email = []string{hashUserData(event.CustomerEmail)}
	}
	return pixelPayload{Data: []pixelEvent{pe}}
}

// hashUserData normalizes and SHA-256 hashes a customer identifier as the
// Conversions API requires.
func hashUserData(v string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(v))))
	return hex.EncodeToString(sum[:])
}
