package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	mediapreview "github.com/e7canasta/media-preview"
	"github.com/e7canasta/media-preview/internal/surface"
)

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "extract one preview frame",
		ArgsUsage: "<locator>",
		Flags: []cli.Flag{
			kindFlag,
			&cli.IntFlag{Name: "max-texture-size", Aliases: []string{"m"}, Usage: "cap of the texture side (0 = config)"},
			&cli.DurationFlag{Name: "timeout", Aliases: []string{"t"}, Usage: "preroll timeout (0 = config)"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the texture as PNG"},
			&cli.BoolFlag{Name: "show", Usage: "display the texture in a window until closed"},
		},
		Action: runPreview,
	}
}

func runPreview(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	src, err := sourceArg(c)
	if err != nil {
		return err
	}

	mgr, err := mediapreview.NewManager(cfg, nil)
	if err != nil {
		return err
	}
	defer mgr.Close()

	started := time.Now()
	tex, err := mgr.GetPreview(src, c.Int("max-texture-size"), c.Duration("timeout"))
	if err != nil {
		if mediapreview.Recoverable(err) {
			slog.Warn("mediapreview: no preview available", "locator", src.Locator, "error", err)
		}
		return err
	}

	fmt.Printf("source:   %s (%s)\n", src.Locator, src.Kind)
	fmt.Printf("original: %dx%d\n", tex.OriginalWidth, tex.OriginalHeight)
	fmt.Printf("texture:  %dx%d %s\n", tex.Side(), tex.Side(), tex.PixelFormat)
	fmt.Printf("elapsed:  %v\n", time.Since(started).Round(time.Millisecond))

	if path := c.String("output"); path != "" {
		if err := savePNG(path, tex.Surface); err != nil {
			return err
		}
		slog.Info("mediapreview: texture saved", "path", path)
	}

	if c.Bool("show") {
		return showSurface(fmt.Sprintf("mediapreview - %s", src.Locator), tex.Surface)
	}
	return nil
}

// savePNG writes an RGB24 surface as PNG.
func savePNG(path string, s *surface.Surface) error {
	if s.Layout.Format != surface.FormatRGB24 {
		return fmt.Errorf("cannot encode %v surface", s.Layout.Format)
	}

	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			v := s.Pixel(x, y)
			img.SetRGBA(x, y, color.RGBA{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), A: 0xff})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return f.Close()
}
