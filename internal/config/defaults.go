package config

const (
	defaultWorkDir                 = "~/.local/share/castcut/work"
	defaultOutputDir               = "output"
	defaultLogDir                  = "~/.local/share/castcut/logs"
	defaultFFmpeg                  = "ffmpeg"
	defaultFFprobe                 = "ffprobe"
	defaultAligner                 = "audalign-cli"
	defaultAutoEditor              = "auto-editor"
	defaultLeadSeconds             = 5
	defaultWindowSeconds           = 5
	defaultExhaustionMarginSeconds = 5
	defaultTailMarginSeconds       = 11
	defaultMarginRatio             = 0.05
	defaultMaxUnfocused            = 2
	defaultMaxFocused              = 2
	defaultMetric                  = "peak"
	defaultRenderWorkers           = 4
	defaultRenderThreads           = 10
	defaultRenderCRF               = 18
	defaultRenderPreset            = "ultrafast"
	defaultRenderGOP               = 15
	defaultRenderFrameRate         = 30
	defaultAudioBitrate            = "256k"
	defaultJumpCutMarginSeconds    = 0.75
	defaultShortWidth              = 1080
	defaultShortHeight             = 1920
	defaultShortSplitRatio         = 0.08
	defaultShortSeconds            = 60
	defaultEnhanceTargetLUFS       = -14
	defaultEnhanceTruePeak         = -1.0
	defaultNtfyTimeoutSeconds      = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLogMaxSizeMB            = 50
	defaultLogMaxBackups           = 5
	defaultLogMaxAgeDays           = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:     defaultFFmpeg,
			FFprobe:    defaultFFprobe,
			Aligner:    defaultAligner,
			AutoEditor: defaultAutoEditor,
		},
		Alignment: Alignment{
			Enabled:     true,
			LeadSeconds: defaultLeadSeconds,
		},
		Selection: Selection{
			WindowSeconds:           defaultWindowSeconds,
			ExhaustionMarginSeconds: defaultExhaustionMarginSeconds,
			TailMarginSeconds:       defaultTailMarginSeconds,
			MarginRatio:             defaultMarginRatio,
			MaxUnfocused:            defaultMaxUnfocused,
			MaxFocused:              defaultMaxFocused,
			Metric:                  defaultMetric,
		},
		Render: Render{
			Workers:              defaultRenderWorkers,
			Threads:              defaultRenderThreads,
			CRF:                  defaultRenderCRF,
			Preset:               defaultRenderPreset,
			GOP:                  defaultRenderGOP,
			FrameRate:            defaultRenderFrameRate,
			AudioBitrate:         defaultAudioBitrate,
			NormalizeAudio:       true,
			JumpCutMarginSeconds: defaultJumpCutMarginSeconds,
		},
		Short: Short{
			Width:          defaultShortWidth,
			Height:         defaultShortHeight,
			SplitRatio:     defaultShortSplitRatio,
			DefaultSeconds: defaultShortSeconds,
		},
		Enhance: Enhance{
			TargetLUFS: defaultEnhanceTargetLUFS,
			TruePeak:   defaultEnhanceTruePeak,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
			NotifyFailures:        true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
