package mediapreview

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config configures preview extraction and playback.
type Config struct {
	// MaxTextureSize caps the preview side length when a call passes 0
	MaxTextureSize int `yaml:"max_texture_size"`
	// PrerollTimeout bounds the preroll wait and the frame pull
	PrerollTimeout time.Duration `yaml:"preroll_timeout"`
	// SeekFraction is how far into a video the preview is taken (0.05 = 5%).
	// 0 means the default.
	SeekFraction float64 `yaml:"seek_fraction"`
	// SeekFallback is the preview position when the duration is unknown.
	// 0 means the default.
	SeekFallback time.Duration `yaml:"seek_fallback"`
	// StrictStateTransitions aborts a preview when a state change fails instead
	// of still trying to pull a frame
	StrictStateTransitions bool `yaml:"strict_state_transitions"`

	Playback  PlaybackConfig  `yaml:"playback"`
	GStreamer GStreamerConfig `yaml:"gstreamer"`
}

// PlaybackConfig contains live playback settings
type PlaybackConfig struct {
	// EnableAudio adds an audio pass-through branch to video playback
	EnableAudio bool `yaml:"enable_audio"`
	// Loop restarts a video from the beginning at end of stream
	Loop bool `yaml:"loop"`
	// Sync renders frames against the pipeline clock (real-time speed)
	Sync bool `yaml:"sync"`
	// StopTimeout bounds the wait for the bus monitor on stop
	StopTimeout time.Duration `yaml:"stop_timeout"`
	// StatsWindow is the number of delivery timestamps kept for FPS stats
	StatsWindow int `yaml:"stats_window"`
}

// GStreamerConfig contains decode engine settings
type GStreamerConfig struct {
	// DebugLevel sets GST_DEBUG (0-9) when the variable is not already set
	DebugLevel int `yaml:"debug_level"`
}

// DefaultConfig returns the defaults: 1024 px textures, 5 s preroll timeout,
// 5% seek (1 s when the duration is unknown), lenient state transitions.
func DefaultConfig() Config {
	return Config{
		MaxTextureSize: 1024,
		PrerollTimeout: 5 * time.Second,
		SeekFraction:   0.05,
		SeekFallback:   time.Second,
		Playback: PlaybackConfig{
			EnableAudio: true,
			Loop:        false,
			Sync:        true,
			StopTimeout: 3 * time.Second,
			StatsWindow: 120,
		},
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration and fills zero values with defaults.
func (c *Config) Validate() error {
	def := DefaultConfig()

	if c.MaxTextureSize < 0 {
		return fmt.Errorf("max_texture_size must be >= 0")
	}
	if c.MaxTextureSize == 0 {
		c.MaxTextureSize = def.MaxTextureSize
	}

	if c.PrerollTimeout < 0 {
		return fmt.Errorf("preroll_timeout must be >= 0")
	}
	if c.PrerollTimeout == 0 {
		c.PrerollTimeout = def.PrerollTimeout
	}

	if c.SeekFraction < 0 || c.SeekFraction >= 1 {
		return fmt.Errorf("seek_fraction must be in [0, 1), got %.3f", c.SeekFraction)
	}
	if c.SeekFraction == 0 {
		c.SeekFraction = def.SeekFraction
	}
	if c.SeekFallback < 0 {
		return fmt.Errorf("seek_fallback must be >= 0")
	}
	if c.SeekFallback == 0 {
		c.SeekFallback = def.SeekFallback
	}

	if c.Playback.StopTimeout <= 0 {
		c.Playback.StopTimeout = def.Playback.StopTimeout
	}
	if c.Playback.StatsWindow < 2 {
		c.Playback.StatsWindow = def.Playback.StatsWindow
	}

	if c.GStreamer.DebugLevel < 0 || c.GStreamer.DebugLevel > 9 {
		return fmt.Errorf("gstreamer.debug_level must be 0-9, got %d", c.GStreamer.DebugLevel)
	}

	return nil
}

// Environment variables read by ApplyEnv.
const (
	EnvMaxTextureSize         = "MEDIA_PREVIEW_MAX_TEXTURE_SIZE"
	EnvPrerollTimeout         = "MEDIA_PREVIEW_PREROLL_TIMEOUT"
	EnvStrictStateTransitions = "MEDIA_PREVIEW_STRICT_STATE_TRANSITIONS"
	EnvEnableAudio            = "MEDIA_PREVIEW_ENABLE_AUDIO"
	EnvLoop                   = "MEDIA_PREVIEW_LOOP"
	EnvGSTDebug               = "MEDIA_PREVIEW_GST_DEBUG"
)

// LoadEnvFile loads a .env file into the process environment. A missing file is
// not an error.
func LoadEnvFile(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("media-preview: no .env file", "paths", paths)
			return nil
		}
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from MEDIA_PREVIEW_* variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvMaxTextureSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxTextureSize, err)
		}
		c.MaxTextureSize = n
	}

	if v, ok := lookup(EnvPrerollTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPrerollTimeout, err)
		}
		c.PrerollTimeout = d
	}

	for _, b := range []struct {
		key string
		dst *bool
	}{
		{EnvStrictStateTransitions, &c.StrictStateTransitions},
		{EnvEnableAudio, &c.Playback.EnableAudio},
		{EnvLoop, &c.Playback.Loop},
	} {
		if v, ok := lookup(b.key); ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", b.key, err)
			}
			*b.dst = parsed
		}
	}

	if v, ok := lookup(EnvGSTDebug); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvGSTDebug, err)
		}
		c.GStreamer.DebugLevel = n
	}

	return c.Validate()
}
