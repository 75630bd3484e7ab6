package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"castcut/internal/config"
	"castcut/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.RunCompleted(context.Background(), notifications.Run{Kind: "multicam"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield a noop notifier, got %v", err)
	}
}

type captured struct {
	title    string
	tags     string
	priority string
	body     string
	calls    int
}

func newServer(t *testing.T, got *captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.calls++
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		got.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "multicam completed",
			send: func(s notifications.Service) error {
				return s.RunCompleted(context.Background(), notifications.Run{
					Kind:    "multicam",
					Output:  "/out/episode-12.mp4",
					Cuts:    41,
					Program: 3725 * time.Second,
					Elapsed: 312 * time.Second,
				})
			},
			expectTitle:   "castcut - Multicam complete",
			expectMessage: "🎬 Multicam ready: episode-12.mp4\n1h2m5s program, 41 cuts\nrendered in 5m12s",
			expectTags:    "castcut,multicam,completed",
		},
		{
			name: "short completed",
			send: func(s notifications.Service) error {
				return s.RunCompleted(context.Background(), notifications.Run{
					Kind:    "short",
					Output:  "/out/episode-short-90s.mp4",
					Program: 60 * time.Second,
				})
			},
			expectTitle:   "castcut - Short complete",
			expectMessage: "🎬 Short ready: episode-short-90s.mp4\n1m0s program",
			expectTags:    "castcut,short,completed",
		},
		{
			name: "failure",
			send: func(s notifications.Service) error {
				return s.RunFailed(context.Background(), notifications.Run{Kind: "multicam", Output: "/out/ep.mp4"},
					"render", errors.New("render mux failed"))
			},
			expectTitle:    "castcut - Error",
			expectMessage:  "❌ Multicam for ep.mp4 failed (render): render mux failed",
			expectTags:     "castcut,error,alert",
			expectPriority: "high",
		},
		{
			name: "test",
			send: func(s notifications.Service) error {
				return s.TestNotification(context.Background())
			},
			expectTitle:    "castcut - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "castcut,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got captured
			server := newServer(t, &got)

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeoutSeconds = 5

			if err := tc.send(notifications.NewService(&cfg)); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceSuppressesFailuresWhenDisabled(t *testing.T) {
	var got captured
	server := newServer(t, &got)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.NotifyFailures = false

	svc := notifications.NewService(&cfg)
	if err := svc.RunFailed(context.Background(), notifications.Run{Kind: "cut"}, "render", errors.New("boom")); err != nil {
		t.Fatalf("RunFailed: %v", err)
	}
	if got.calls != 0 {
		t.Fatalf("expected no request, got %d", got.calls)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic not found", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for 404")
	}
}
