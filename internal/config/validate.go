package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateShort(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAlignment() error {
	if c.Alignment.LeadSeconds < 0 {
		return errors.New("alignment.lead_seconds must be >= 0")
	}
	for name, offset := range c.Alignment.Offsets {
		if offset < 0 {
			return fmt.Errorf("alignment.offsets.%s must be >= 0", name)
		}
	}
	return nil
}

func (c *Config) validateSelection() error {
	s := c.Selection
	if s.WindowSeconds <= 0 {
		return errors.New("selection.window_seconds must be positive")
	}
	if s.ExhaustionMarginSeconds < 0 {
		return errors.New("selection.exhaustion_margin_seconds must be >= 0")
	}
	if s.TailMarginSeconds < 0 {
		return errors.New("selection.tail_margin_seconds must be >= 0")
	}
	if s.MarginRatio <= 0 || s.MarginRatio > 1 {
		return errors.New("selection.margin_ratio must be in (0, 1]")
	}
	if s.MaxUnfocused < 1 {
		return errors.New("selection.max_unfocused must be at least 1")
	}
	if s.MaxFocused < 1 {
		return errors.New("selection.max_focused must be at least 1")
	}
	switch s.Metric {
	case "peak", "rms":
	default:
		return fmt.Errorf("selection.metric: unsupported value %q (want peak or rms)", s.Metric)
	}
	return nil
}

func (c *Config) validateRender() error {
	r := c.Render
	if r.Threads < 0 {
		return errors.New("render.threads must be >= 0")
	}
	if r.CRF < 0 || r.CRF > 51 {
		return errors.New("render.crf must be between 0 and 51")
	}
	if r.GOP < 1 {
		return errors.New("render.gop must be at least 1")
	}
	if r.FrameRate < 1 || r.FrameRate > 120 {
		return errors.New("render.frame_rate must be between 1 and 120")
	}
	if r.JumpCutMarginSeconds < 0 {
		return errors.New("render.jump_cut_margin_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateShort() error {
	if c.Short.Width <= 0 || c.Short.Height <= 0 {
		return errors.New("short.width and short.height must be positive")
	}
	if c.Short.Height%2 != 0 || c.Short.Width%2 != 0 {
		return errors.New("short.width and short.height must be even")
	}
	if c.Short.SplitRatio <= 0 || c.Short.SplitRatio > 1 {
		return errors.New("short.split_ratio must be in (0, 1]")
	}
	if c.Short.DefaultSeconds <= 0 {
		return errors.New("short.default_seconds must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	n := c.Notifications
	if n.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must be >= 0")
	}
	if n.NtfyTopic == "" {
		return nil
	}
	u, err := url.Parse(n.NtfyTopic)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", n.NtfyTopic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
