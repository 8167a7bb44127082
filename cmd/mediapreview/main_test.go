package main

import (
	"bytes"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/e7canasta/media-preview/internal/surface"
)

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer

	slog.New(newHandler(&buf, false, slog.LevelInfo)).Info("hello", "k", 1)
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("non-terminal output should be JSON, got %q", buf.String())
	}

	buf.Reset()
	slog.New(newHandler(&buf, true, slog.LevelInfo)).Info("hello", "k", 1)
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("terminal output should be text, got %q", buf.String())
	}

	buf.Reset()
	slog.New(newHandler(&buf, true, slog.LevelInfo)).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug record written at info level: %q", buf.String())
	}
}

func TestSavePNG(t *testing.T) {
	layout, _ := surface.LayoutFor(surface.FormatRGB24)
	s, err := surface.New(2, 2, layout)
	if err != nil {
		t.Fatal(err)
	}
	s.SetPixel(1, 0, 0x0000ff) // red

	path := filepath.Join(t.TempDir(), "thumb.png")
	if err := savePNG(path, s); err != nil {
		t.Fatalf("savePNG() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	r, g, b, _ := img.At(1, 0).RGBA()
	if r>>8 != 0xff || g != 0 || b != 0 {
		t.Errorf("pixel (1,0) = %d,%d,%d, want red", r>>8, g>>8, b>>8)
	}
}

func TestSavePNG_RejectsOtherFormats(t *testing.T) {
	layout, _ := surface.LayoutFor(surface.FormatGray8)
	s, _ := surface.New(1, 1, layout)
	if err := savePNG(filepath.Join(t.TempDir(), "x.png"), s); err == nil {
		t.Error("expected error for GRAY8 surface")
	}
}
