// Command mediapreview extracts preview frames and plays media into an SDL window.
//
// Usage:
//
//	mediapreview preview --kind video --output thumb.png clip.mp4
//	mediapreview play --kind device --width 640 --height 480 /dev/video0
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	mediapreview "github.com/e7canasta/media-preview"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "mediapreview",
		Usage:   "extract preview frames and play media into a texture",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "optional .env file with MEDIA_PREVIEW_* overrides"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "strict", Usage: "abort previews on failed state transitions"},
		},
		Before: func(c *cli.Context) error {
			setupLogging(os.Stderr, c.Bool("debug"))
			return nil
		},
		Commands: []*cli.Command{
			previewCommand(),
			playCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("mediapreview: command failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging installs a text handler on terminals and JSON otherwise.
func setupLogging(w *os.File, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(newHandler(w, isTerminal(w), level)))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newHandler(w io.Writer, terminal bool, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if terminal {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// loadConfig builds the configuration: defaults or --config, then .env and
// MEDIA_PREVIEW_* variables, then command-line flags.
func loadConfig(c *cli.Context) (mediapreview.Config, error) {
	cfg := mediapreview.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := mediapreview.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if err := mediapreview.LoadEnvFile(c.String("env-file")); err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, fmt.Errorf("invalid environment: %w", err)
	}

	if c.IsSet("strict") {
		cfg.StrictStateTransitions = c.Bool("strict")
	}
	return cfg, cfg.Validate()
}

// sourceArg reads the locator argument and the --kind flag.
func sourceArg(c *cli.Context) (mediapreview.SourceDescriptor, error) {
	if c.NArg() != 1 {
		return mediapreview.SourceDescriptor{}, fmt.Errorf("expected exactly one locator argument, got %d", c.NArg())
	}
	kind, err := mediapreview.ParseSourceKind(c.String("kind"))
	if err != nil {
		return mediapreview.SourceDescriptor{}, err
	}
	return mediapreview.NewSourceDescriptor(c.Args().First(), kind)
}

var kindFlag = &cli.StringFlag{
	Name:    "kind",
	Aliases: []string{"k"},
	Value:   "video",
	Usage:   "source kind: image, video or device",
}
