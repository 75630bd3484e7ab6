package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Tools names the external binaries castcut shells out to.
type Tools struct {
	FFmpeg     string `toml:"ffmpeg"`
	FFprobe    string `toml:"ffprobe"`
	Aligner    string `toml:"aligner"`
	AutoEditor string `toml:"auto_editor"`
}

// Alignment controls how source offsets are resolved.
type Alignment struct {
	Enabled bool `toml:"enabled"`
	// LeadSeconds is the duplicated lead prepended to the reference before
	// alignment; it is trimmed again when segments are mapped back to files.
	LeadSeconds float64 `toml:"lead_seconds"`
	// Offsets pins per-file offsets (base name -> seconds) and bypasses the aligner.
	Offsets map[string]float64 `toml:"offsets"`
}

// Selection tunes the active-speaker engine.
type Selection struct {
	WindowSeconds           float64 `toml:"window_seconds"`
	ExhaustionMarginSeconds float64 `toml:"exhaustion_margin_seconds"`
	TailMarginSeconds       float64 `toml:"tail_margin_seconds"`
	MarginRatio             float64 `toml:"margin_ratio"`
	MaxUnfocused            int     `toml:"max_unfocused"`
	MaxFocused              int     `toml:"max_focused"`
	// Metric is "peak" or "rms".
	Metric string `toml:"metric"`
}

// Render controls segment extraction and the final mux.
type Render struct {
	Workers int    `toml:"workers"`
	Threads int    `toml:"threads"`
	CRF     int    `toml:"crf"`
	Preset  string `toml:"preset"`
	GOP     int    `toml:"gop"`
	// FrameRate is forced on every extracted segment so concat can stream-copy.
	FrameRate      int    `toml:"frame_rate"`
	AudioBitrate   string `toml:"audio_bitrate"`
	NormalizeAudio bool   `toml:"normalize_audio"`
	// JumpCutMarginSeconds is the silence margin handed to auto-editor.
	JumpCutMarginSeconds float64 `toml:"jump_cut_margin_seconds"`
}

// Short configures vertical short-form clips.
type Short struct {
	Width          int     `toml:"width"`
	Height         int     `toml:"height"`
	SplitRatio     float64 `toml:"split_ratio"`
	DefaultSeconds float64 `toml:"default_seconds"`
}

// Enhance configures loudness normalization of finished programs.
type Enhance struct {
	TargetLUFS float64 `toml:"target_lufs"`
	TruePeak   float64 `toml:"true_peak"`
}

// Notifications configures ntfy push notifications for finished runs.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-podcast. Empty disables notifications.
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	NotifyFailures        bool   `toml:"notify_failures"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for castcut.
//
// Configuration sections by subsystem:
//   - Paths: scratch, output and log directories
//   - Tools: external binaries (ffmpeg, ffprobe, aligner, auto-editor)
//   - Alignment: offset resolution and the duplicated reference lead
//   - Selection: active-speaker engine parameters
//   - Render: extraction workers and encoder settings
//   - Short: vertical clip geometry
//   - Enhance: loudness normalization targets
//   - Notifications: ntfy push on run completion or failure
//   - Logging: log format, level, and rotation
type Config struct {
	Paths         Paths         `toml:"paths"`
	Tools         Tools         `toml:"tools"`
	Alignment     Alignment     `toml:"alignment"`
	Selection     Selection     `toml:"selection"`
	Render        Render        `toml:"render"`
	Short         Short         `toml:"short"`
	Enhance       Enhance       `toml:"enhance"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/castcut/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("castcut.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work, output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for extraction and muxing.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFmpeg); bin != "" {
		return bin
	}
	return defaultFFmpeg
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFprobe); bin != "" {
		return bin
	}
	return defaultFFprobe
}

// AlignerBinary returns the external aligner executable.
func (c *Config) AlignerBinary() string {
	if bin := strings.TrimSpace(c.Tools.Aligner); bin != "" {
		return bin
	}
	return defaultAligner
}

// AutoEditorBinary returns the auto-editor executable used for jump cuts.
func (c *Config) AutoEditorBinary() string {
	if bin := strings.TrimSpace(c.Tools.AutoEditor); bin != "" {
		return bin
	}
	return defaultAutoEditor
}

// Lead returns the duplicated reference lead as a duration.
func (c *Config) Lead() time.Duration {
	return Seconds(c.Alignment.LeadSeconds)
}

// Seconds converts fractional seconds into a duration rounded to the millisecond.
func Seconds(value float64) time.Duration {
	return time.Duration(math.Round(value*1000)) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
