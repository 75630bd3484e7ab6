package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"castcut/internal/config"
)

const userAgent = "castcut/0.1"

// Run summarizes a finished run for a notification.
type Run struct {
	ID      string
	Kind    string
	Output  string
	Cuts    int
	Program time.Duration
	Elapsed time.Duration
}

// Service is the notification surface used by the pipeline.
type Service interface {
	RunCompleted(ctx context.Context, run Run) error
	RunFailed(ctx context.Context, run Run, failureKind string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notifier backed by ntfy when a topic is configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		notifyFailures: cfg.Notifications.NotifyFailures,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	notifyFailures bool
}

func (n *ntfyService) RunCompleted(ctx context.Context, run Run) error {
	name := filepath.Base(run.Output)
	var msg strings.Builder
	fmt.Fprintf(&msg, "🎬 %s ready: %s", kindLabel(run.Kind), name)
	if run.Program > 0 {
		fmt.Fprintf(&msg, "\n%s program", run.Program.Round(time.Second))
		if run.Kind == "multicam" {
			fmt.Fprintf(&msg, ", %d cuts", run.Cuts)
		}
	}
	if run.Elapsed > 0 {
		fmt.Fprintf(&msg, "\nrendered in %s", run.Elapsed.Round(time.Second))
	}
	return n.send(ctx, payload{
		title:   "castcut - " + kindLabel(run.Kind) + " complete",
		message: msg.String(),
		tags:    []string{"castcut", run.Kind, "completed"},
	})
}

func (n *ntfyService) RunFailed(ctx context.Context, run Run, failureKind string, err error) error {
	if !n.notifyFailures {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ ")
	builder.WriteString(kindLabel(run.Kind))
	if run.Output != "" {
		builder.WriteString(" for ")
		builder.WriteString(filepath.Base(run.Output))
	}
	builder.WriteString(" failed")
	if failureKind = strings.TrimSpace(failureKind); failureKind != "" {
		builder.WriteString(" (")
		builder.WriteString(failureKind)
		builder.WriteString(")")
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "castcut - Error",
		message:  builder.String(),
		tags:     []string{"castcut", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "castcut - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"castcut", "test"},
		priority: "low",
	})
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

func kindLabel(kind string) string {
	switch kind {
	case "multicam":
		return "Multicam"
	case "short":
		return "Short"
	case "cut":
		return "Cut"
	case "":
		return "Run"
	default:
		return kind
	}
}

type noopService struct{}

func (noopService) RunCompleted(context.Context, Run) error             { return nil }
func (noopService) RunFailed(context.Context, Run, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error              { return nil }
