// Package notifications pushes run outcomes to ntfy.
//
// NewService returns a no-op notifier when no topic is configured, so the
// pipeline can always call it. Messages are plain text with ntfy's Title,
// Tags and Priority headers.
package notifications
