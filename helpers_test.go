package mediapreview

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/e7canasta/media-preview/internal/engine"
	"github.com/e7canasta/media-preview/internal/engine/enginetest"
	"github.com/e7canasta/media-preview/internal/texture/texturetest"
)

// mediaFile creates an empty file the locator resolver accepts.
func mediaFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	return path
}

func source(t *testing.T, kind SourceKind) SourceDescriptor {
	t.Helper()
	name := map[SourceKind]string{
		KindImage:           "photo.jpg",
		KindVideo:           "clip.mp4",
		KindLiveVideoDevice: "video0",
	}[kind]

	src, err := NewSourceDescriptor(mediaFile(t, name), kind)
	if err != nil {
		t.Fatalf("NewSourceDescriptor() error = %v", err)
	}
	return src
}

// withFrame scripts every graph to preroll a w x h RGB sample.
func withFrame(w, h int) func(*enginetest.Graph) {
	return func(g *enginetest.Graph) {
		data, stride := enginetest.RGBFrame(w, h)
		g.Sample = &enginetest.SampleScript{Width: w, Height: h, Stride: stride, Data: data}
	}
}

func newTestManager(t *testing.T, cfg Config, configure func(*enginetest.Graph)) (*Manager, *enginetest.Engine, *texturetest.Recorder) {
	t.Helper()

	eng := &enginetest.Engine{Configure: configure}
	rec := &texturetest.Recorder{}

	m, err := NewManager(cfg, rec, WithEngine(eng))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { m.Close() })

	return m, eng, rec
}

func testFrame(w, h int, fill byte) engine.Frame {
	data, stride := enginetest.RGBFrame(w, h)
	for i := range data {
		if data[i] == 0xff {
			data[i] = fill
		}
	}
	return engine.Frame{Data: data, Width: w, Height: h, Stride: stride, PixelFormat: "RGB", Timestamp: time.Now()}
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
