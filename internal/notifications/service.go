package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"showrunner/internal/config"
)

const userAgent = "Showrunner/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyEpisodePublished(ctx context.Context, projectID, episodeID int64) error
	NotifyProjectCompleted(ctx context.Context, projectID int64) error
	NotifyPipelineError(ctx context.Context, entityType, phase, reason string) error
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
		episodes: cfg.Notifications.Episodes,
		errors:   cfg.Notifications.Errors,
	}
}

// NewNop returns a Service that discards every notification.
func NewNop() Service {
	return noopService{}
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
	episodes bool
	errors   bool
}

func (n *ntfyService) NotifyEpisodePublished(ctx context.Context, projectID, episodeID int64) error {
	if !n.episodes {
		return nil
	}
	data := payload{
		title:   "Showrunner - Episode Published",
		message: fmt.Sprintf("Episode %d of project %d is live", episodeID, projectID),
		tags:    []string{"showrunner", "episode", "published"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProjectCompleted(ctx context.Context, projectID int64) error {
	if !n.episodes {
		return nil
	}
	data := payload{
		title:    "Showrunner - Project Complete",
		message:  fmt.Sprintf("Project %d finished its pipeline", projectID),
		tags:     []string{"showrunner", "project", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPipelineError(ctx context.Context, entityType, phase, reason string) error {
	if !n.errors {
		return nil
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "Showrunner - Pipeline Error",
		message:  fmt.Sprintf("%s/%s failed: %s", entityType, phase, reason),
		tags:     []string{"showrunner", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Showrunner - Test",
		message:  "Notification system test",
		tags:     []string{"showrunner", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyEpisodePublished(context.Context, int64, int64) error { return nil }

func (noopService) NotifyProjectCompleted(context.Context, int64) error { return nil }

func (noopService) NotifyPipelineError(context.Context, string, string, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
