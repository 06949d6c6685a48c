package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram delivers notifications through the Telegram Bot API.
type Telegram struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  string
}

var _ Notifier = (*Telegram)(nil)

func NewTelegram(client *http.Client, token, chatID string) *Telegram {
	return &Telegram{
		client:  client,
		baseURL: telegramAPIBase,
		token:   token,
		chatID:  chatID,
	}
}

func (t *Telegram) Send(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    message,
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
