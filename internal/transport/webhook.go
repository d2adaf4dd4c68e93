package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/popeskul/cadence/internal/config"
)

// WebhookRequest is the body posted to a generic SMS webhook.
type WebhookRequest struct {
	To      string `json:"to"`
	Content string `json:"content"`
}

// WebhookResponse is the body a webhook answers with.
type WebhookResponse struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

// WebhookSender posts messages to an HTTP endpoint that relays them as SMS.
type WebhookSender struct {
	url        string
	authKey    string
	httpClient *http.Client
}

func NewWebhookSender(cfg *config.WebhookConfig, timeout time.Duration) *WebhookSender {
	return &WebhookSender{
		url:        cfg.URL,
		authKey:    cfg.AuthKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *WebhookSender) Send(ctx context.Context, to, body string) (*SendResult, error) {
	jsonData, err := json.Marshal(WebhookRequest{To: to, Content: body})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.authKey != "" {
		req.Header.Set("x-ins-auth-key", s.authKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: "failed to send request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &Error{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(raw))}
	}

	var webhookResp WebhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&webhookResp); err != nil || webhookResp.MessageID == "" {
		webhookResp.MessageID = fmt.Sprintf("temp-%d", time.Now().UnixNano())
	}

	return &SendResult{ProviderID: webhookResp.MessageID}, nil
}
