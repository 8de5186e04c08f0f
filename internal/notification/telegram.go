package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"watchpost/internal/models"
)

// TelegramProvider sends Telegram bot notifications
type TelegramProvider struct{}

func init() {
	RegisterProvider(&TelegramProvider{})
}

func (t *TelegramProvider) Name() string {
	return "telegram"
}

func (t *TelegramProvider) Send(ctx context.Context, channel *models.NotificationChannel, message *Message) error {
	botToken := channel.Config["bot_token"]
	chatID := channel.Config["chat_id"]

	if botToken == "" {
		return fmt.Errorf("bot_token is required")
	}
	if chatID == "" {
		return fmt.Errorf("chat_id is required")
	}

	text := fmt.Sprintf("<b>%s</b>\n\n", message.Title)
	text += fmt.Sprintf("%s\n\n", message.Body)
	text += fmt.Sprintf("<b>Monitor:</b> %s\n", message.MonitorName)
	if message.MonitorURL != "" {
		text += fmt.Sprintf("<b>URL:</b> %s\n", message.MonitorURL)
	}
	text += fmt.Sprintf("<b>Time:</b> %s", message.Time)

	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Telegram API returned status %d", resp.StatusCode)
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode Telegram response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("Telegram API error: %s", result.Description)
	}

	return nil
}

func (t *TelegramProvider) Validate(config map[string]string) error {
	if config["bot_token"] == "" {
		return fmt.Errorf("bot_token is required")
	}
	if config["chat_id"] == "" {
		return fmt.Errorf("chat_id is required")
	}
	return nil
}
