package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"taskclock/internal/domain"
)

// Webhook delivers due tasks to the agent service over HTTP.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type firing struct {
	TaskID       string `json:"task_id"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	Timezone     string `json:"timezone"`
	FiredAt      string `json:"fired_at"`
}

func (w *Webhook) Run(ctx context.Context, task domain.Task) error {
	body, err := json.Marshal(firing{
		TaskID:       task.ID,
		Name:         task.Name,
		Instructions: task.Instructions,
		Timezone:     task.Timezone,
		FiredAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read webhook response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
