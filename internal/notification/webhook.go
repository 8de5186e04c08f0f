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

// WebhookProvider sends generic webhook notifications
type WebhookProvider struct{}

func init() {
	RegisterProvider(&WebhookProvider{})
}

func (w *WebhookProvider) Name() string {
	return "webhook"
}

func (w *WebhookProvider) Send(ctx context.Context, channel *models.NotificationChannel, message *Message) error {
	url := channel.Config["webhook_url"]
	if url == "" {
		return fmt.Errorf("webhook_url is required")
	}

	method := channel.Config["method"]
	if method == "" {
		method = http.MethodPost
	}

	payload := map[string]interface{}{
		"title":        message.Title,
		"body":         message.Body,
		"monitor_name": message.MonitorName,
		"monitor_url":  message.MonitorURL,
		"status":       message.Status,
		"time":         message.Time,
		"important":    message.Important,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Watchpost/1.0")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func (w *WebhookProvider) Validate(config map[string]string) error {
	if config["webhook_url"] == "" {
		return fmt.Errorf("webhook_url is required")
	}
	return nil
}
