package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

var (
	nonDigits = regexp.MustCompile(`\D`)
	boldTags  = regexp.MustCompile(`</?b>`)
	htmlTags  = regexp.MustCompile(`</?[a-z]+>`)
)

// StripHTML converts the Telegram-oriented HTML markup of composed texts
// into WhatsApp's own formatting: <b> becomes *, every other tag is dropped.
func StripHTML(text string) string {
	text = boldTags.ReplaceAllString(text, "*")
	return htmlTags.ReplaceAllString(text, "")
}

// WhatsApp sends messages through a Z-API instance.
type WhatsApp struct {
	baseURL     string
	clientToken string
	client      *http.Client
	logger      *logging.Logger
}

func NewWhatsApp(instanceID, token, clientToken string, logger *logging.Logger) *WhatsApp {
	return &WhatsApp{
		baseURL:     fmt.Sprintf("https://api.z-api.io/instances/%s/token/%s", instanceID, token),
		clientToken: clientToken,
		client:      &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
	}
}

func (w *WhatsApp) Send(ctx context.Context, ep models.Endpoint, text string) error {
	phone := NormalizePhone(ep.Address)

	payload, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": StripHTML(text),
	})
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/send-text", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.clientToken != "" {
		req.Header.Set("Client-Token", w.clientToken)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", phone, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("z-api returned status %d for phone %s", resp.StatusCode, phone)
	}
	return nil
}

// NormalizePhone strips formatting and prefixes the Brazilian country code
// on bare 10-11 digit numbers.
func NormalizePhone(raw string) string {
	phone := nonDigits.ReplaceAllString(raw, "")
	if len(phone) >= 10 && len(phone) <= 11 {
		phone = "55" + phone
	}
	return phone
}
