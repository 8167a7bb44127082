package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/veandco/go-sdl2/sdl"

	mediapreview "github.com/e7canasta/media-preview"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "play a source into an SDL window (space toggles pause, q quits)",
		ArgsUsage: "<locator>",
		Flags: []cli.Flag{
			kindFlag,
			&cli.IntFlag{Name: "width", Value: 640, Usage: "sink width"},
			&cli.IntFlag{Name: "height", Value: 480, Usage: "sink height"},
			&cli.BoolFlag{Name: "loop", Usage: "restart videos at end of stream"},
			&cli.BoolFlag{Name: "no-audio", Usage: "drop the audio branch"},
			&cli.DurationFlag{Name: "stats-interval", Value: 10 * time.Second, Usage: "interval between stats reports (0 = off)"},
		},
		Action: runPlay,
	}
}

func runPlay(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("loop") {
		cfg.Playback.Loop = c.Bool("loop")
	}
	if c.Bool("no-audio") {
		cfg.Playback.EnableAudio = false
	}

	src, err := sourceArg(c)
	if err != nil {
		return err
	}
	width, height := c.Int("width"), c.Int("height")

	w, err := openWindow(fmt.Sprintf("mediapreview - %s", src.Locator), width, height)
	if err != nil {
		return err
	}
	defer w.close()

	mgr, err := mediapreview.NewManager(cfg, w.binder)
	if err != nil {
		return err
	}
	defer mgr.Close()

	id := w.binder.Allocate()
	if err := mgr.StartPlayback(src, width, height, id); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var statsTick <-chan time.Time
	if interval := c.Duration("stats-interval"); interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		statsTick = ticker.C
	}

	for {
		select {
		case <-sigCh:
			slog.Info("mediapreview: interrupted, shutting down")
			return mgr.StopPlayback()
		case <-statsTick:
			logStats(mgr.PlaybackStats())
		default:
		}

		switch pollEvents() {
		case actionQuit:
			return mgr.StopPlayback()
		case actionToggle:
			state, err := mgr.TogglePlayback()
			if err != nil {
				slog.Warn("mediapreview: toggle failed", "error", err)
			} else {
				slog.Info("mediapreview: playback toggled", "state", state)
			}
		}

		if _, _, err := mgr.PollLatestFrame(); err != nil && !errors.Is(err, mediapreview.ErrNotPlaying) {
			slog.Warn("mediapreview: frame upload failed", "error", err)
		}
		w.draw(id)
		sdl.Delay(5)
	}
}

func logStats(st mediapreview.PlaybackStats) {
	slog.Info("mediapreview: playback stats",
		"state", st.State,
		"resolution", st.Resolution,
		"frames_delivered", st.FramesDelivered,
		"frames_overwritten", st.FramesOverwritten,
		"uploads", st.Uploads,
		"uploads_skipped", st.UploadsSkipped,
		"fps_mean", fmt.Sprintf("%.2f", st.FPSMean),
		"fps_stddev", fmt.Sprintf("%.2f", st.FPSStdDev),
		"stable", st.IsStable,
		"loops", st.Loops,
		"errors", st.Errors,
	)
}
