package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kvitt/internal/config"
)

const userAgent = "kvitt/0.1.0"

// Service defines the notification surface exposed to the submission flow.
type Service interface {
	NotifySubmissionComplete(ctx context.Context, expenseID, total string) error
	NotifySubmissionFailed(ctx context.Context, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifySubmissionComplete(ctx context.Context, expenseID, total string) error {
	data := payload{
		title:    "kvitt - Expense Submitted",
		message:  fmt.Sprintf("Expense %s submitted (%s)", expenseID, total),
		tags:     []string{"kvitt", "submission", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySubmissionFailed(ctx context.Context, reason string) error {
	data := payload{
		title:   "kvitt - Submission Failed",
		message: fmt.Sprintf("Submission failed: %s", strings.TrimSpace(reason)),
		tags:    []string{"kvitt", "submission", "failed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "kvitt - Test",
		message: "Notifications are configured correctly",
		tags:    []string{"kvitt", "test"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	endpoint := n.endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://ntfy.sh/" + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notification returned %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifySubmissionComplete(context.Context, string, string) error { return nil }

func (noopService) NotifySubmissionFailed(context.Context, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
