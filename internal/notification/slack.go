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

// SlackProvider sends Slack webhook notifications
type SlackProvider struct{}

func init() {
	RegisterProvider(&SlackProvider{})
}

func (s *SlackProvider) Name() string {
	return "slack"
}

func (s *SlackProvider) Send(ctx context.Context, channel *models.NotificationChannel, message *Message) error {
	webhookURL := channel.Config["webhook_url"]
	if webhookURL == "" {
		return fmt.Errorf("webhook_url is required")
	}

	username := channel.Config["username"]
	if username == "" {
		username = "Watchpost"
	}

	color := "good"
	if message.Status == models.StatusDown {
		color = "danger"
	}

	attachment := map[string]interface{}{
		"color":  color,
		"title":  message.Title,
		"text":   message.Body,
		"ts":     time.Now().Unix(),
		"footer": "Watchpost",
		"fields": []map[string]interface{}{
			{"title": "Monitor", "value": message.MonitorName, "short": true},
			{"title": "Status", "value": message.Status, "short": true},
			{"title": "URL", "value": message.MonitorURL, "short": false},
		},
	}

	payload := map[string]interface{}{
		"username":    username,
		"attachments": []interface{}{attachment},
	}
	if ch := channel.Config["channel"]; ch != "" {
		payload["channel"] = ch
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func (s *SlackProvider) Validate(config map[string]string) error {
	if config["webhook_url"] == "" {
		return fmt.Errorf("webhook_url is required")
	}
	return nil
}
