package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config holds email provider configuration
type Config struct {
	APIURL      string
	APIKey      string
	FromAddress string
	FromName    string
	Timeout     time.Duration
}

// Sender delivers email through a JSON-over-HTTP transactional email
// provider. It satisfies the reminder engine's Notifier contract.
type Sender struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewSender creates a new email sender
func NewSender(cfg Config, logger *zap.Logger) *Sender {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Sender{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// SendEmail sends one email and returns the provider's delivery id
func (s *Sender) SendEmail(ctx context.Context, to, subject, bodyText, bodyHTML string) (string, error) {
	payload := sendRequest{
		From:    s.fromHeader(),
		To:      []string{to},
		Subject: subject,
		Text:    bodyText,
		HTML:    bodyHTML,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Email request failed", zap.String("to", to), zap.Error(err))
		return "", fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("failed to read email response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("Email provider rejected message",
			zap.String("to", to),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return "", fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse email response: %w", err)
	}

	s.logger.Debug("Email accepted by provider",
		zap.String("to", to),
		zap.String("message_id", parsed.ID))

	return parsed.ID, nil
}

func (s *Sender) fromHeader() string {
	if s.cfg.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromAddress)
	}
	return s.cfg.FromAddress
}
