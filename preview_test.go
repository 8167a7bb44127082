package mediapreview

import (
	"errors"
	"testing"
	"time"

	"github.com/e7canasta/media-preview/internal/engine"
	"github.com/e7canasta/media-preview/internal/engine/enginetest"
	"github.com/e7canasta/media-preview/internal/graph"
	"github.com/e7canasta/media-preview/internal/surface"
)

func TestTextureSide(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		max           int
		want          int
	}{
		{name: "350x220 fits in 512", width: 350, height: 220, max: 1024, want: 512},
		{name: "1300x700 capped", width: 1300, height: 700, max: 512, want: 512},
		{name: "exact power of two", width: 512, height: 512, max: 1024, want: 512},
		{name: "one past power of two", width: 513, height: 10, max: 1024, want: 1024},
		{name: "tall source", width: 10, height: 300, max: 4096, want: 512},
		{name: "single pixel", width: 1, height: 1, max: 1024, want: 1},
		{name: "non power of two cap", width: 2000, height: 100, max: 1000, want: 512},
		{name: "zero cap", width: 100, height: 100, max: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TextureSide(tt.width, tt.height, tt.max)
			if got != tt.want {
				t.Errorf("TextureSide(%d, %d, %d) = %d, want %d", tt.width, tt.height, tt.max, got, tt.want)
			}
			if got&(got-1) != 0 {
				t.Errorf("TextureSide returned %d, not a power of two", got)
			}
		})
	}
}

func TestGetPreview_Success(t *testing.T) {
	m, eng, _ := newTestManager(t, DefaultConfig(), withFrame(350, 220))
	src := source(t, KindImage)

	tex, err := m.GetPreview(src, 1024, time.Second)
	if err != nil {
		t.Fatalf("GetPreview() error = %v", err)
	}

	if tex.Surface.Width != 512 || tex.Surface.Height != 512 {
		t.Errorf("surface = %dx%d, want 512x512", tex.Surface.Width, tex.Surface.Height)
	}
	if tex.OriginalWidth != 350 || tex.OriginalHeight != 220 {
		t.Errorf("original = %dx%d, want 350x220", tex.OriginalWidth, tex.OriginalHeight)
	}
	if tex.PixelFormat != surface.FormatRGB24 {
		t.Errorf("PixelFormat = %v, want RGB", tex.PixelFormat)
	}

	// source pixel (0,0) is R=0,G=0,B=0xff
	if got := tex.Surface.Pixel(0, 0); got != 0xff0000 {
		t.Errorf("Pixel(0,0) = %#06x, want 0xff0000", got)
	}

	spec := eng.Specs()[0]
	if spec.Mode != graph.SinkPull {
		t.Errorf("preview graph mode = %v, want pull", spec.Mode)
	}

	g := eng.Last()
	if !g.Destroyed() {
		t.Error("preview graph not destroyed")
	}
	if m.Active() {
		t.Error("slot still occupied after GetPreview")
	}

	samples := g.Samples()
	if len(samples) != 1 {
		t.Fatalf("pulled %d samples, want exactly 1", len(samples))
	}
	if samples[0].Mapped() || !samples[0].Released() {
		t.Errorf("sample mapped=%v released=%v, want unmapped and released", samples[0].Mapped(), samples[0].Released())
	}
}

func TestGetPreview_CapsAtMaxTextureSize(t *testing.T) {
	m, _, _ := newTestManager(t, DefaultConfig(), withFrame(1300, 700))

	tex, err := m.GetPreview(source(t, KindImage), 512, time.Second)
	if err != nil {
		t.Fatalf("GetPreview() error = %v", err)
	}
	if tex.Side() != 512 {
		t.Errorf("side = %d, want 512", tex.Side())
	}
	if tex.OriginalWidth != 1300 || tex.OriginalHeight != 700 {
		t.Errorf("original = %dx%d, want 1300x700", tex.OriginalWidth, tex.OriginalHeight)
	}
}

func TestGetPreview_DefaultsFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTextureSize = 256
	m, _, _ := newTestManager(t, cfg, withFrame(350, 220))

	tex, err := m.GetPreview(source(t, KindImage), 0, 0)
	if err != nil {
		t.Fatalf("GetPreview() error = %v", err)
	}
	if tex.Side() != 256 {
		t.Errorf("side = %d, want configured cap 256", tex.Side())
	}
}

func TestGetPreview_InvalidKindBuildsNothing(t *testing.T) {
	m, eng, _ := newTestManager(t, DefaultConfig(), withFrame(4, 4))

	src := SourceDescriptor{Locator: mediaFile(t, "x.bin"), Kind: SourceKind(42)}
	tex, err := m.GetPreview(src, 1024, time.Second)

	if tex != nil {
		t.Error("expected no descriptor")
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
	if eng.Builds() != 0 {
		t.Errorf("engine received %d build calls, want 0", eng.Builds())
	}
}

func TestGetPreview_Failures(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*enginetest.Graph)
		buildErr  error
		wantErr   error
		wantPulls int
	}{
		{
			name:     "engine rejects graph",
			buildErr: errors.New("no element uridecodebin"),
			wantErr:  ErrGraphConstruction,
		},
		{
			name:      "end of stream before a frame",
			configure: func(g *enginetest.Graph) {},
			wantErr:   ErrNoFrame,
			wantPulls: 1,
		},
		{
			name: "pull error",
			configure: func(g *enginetest.Graph) {
				g.PullErr = errors.New("no preroll sample within 1s")
			},
			wantErr:   ErrNoFrame,
			wantPulls: 1,
		},
		{
			name: "sample without caps",
			configure: func(g *enginetest.Graph) {
				withFrame(8, 8)(g)
				g.Sample.NoCaps = true
			},
			wantErr:   ErrDimensionQuery,
			wantPulls: 1,
		},
		{
			name: "buffer cannot be mapped",
			configure: func(g *enginetest.Graph) {
				withFrame(8, 8)(g)
				g.Sample.MapErr = errors.New("map failed")
			},
			wantErr:   ErrFrameMapping,
			wantPulls: 1,
		},
		{
			name: "buffer shorter than geometry",
			configure: func(g *enginetest.Graph) {
				withFrame(8, 8)(g)
				g.Sample.Data = g.Sample.Data[:10]
			},
			wantErr:   ErrFrameMapping,
			wantPulls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, eng, _ := newTestManager(t, DefaultConfig(), tt.configure)
			eng.BuildErr = tt.buildErr

			tex, err := m.GetPreview(source(t, KindVideo), 1024, time.Second)
			if tex != nil {
				t.Errorf("expected no descriptor, got %+v", tex)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if m.Active() {
				t.Error("slot still occupied after failed GetPreview")
			}

			g := eng.Last()
			if g == nil {
				return
			}
			if !g.Destroyed() {
				t.Error("graph not destroyed on failure")
			}
			if g.Pulls() != tt.wantPulls {
				t.Errorf("pulls = %d, want %d", g.Pulls(), tt.wantPulls)
			}
			for _, s := range g.Samples() {
				if s.Mapped() || !s.Released() {
					t.Errorf("sample mapped=%v released=%v", s.Mapped(), s.Released())
				}
			}
		})
	}
}

func TestGetPreview_UnresolvableLocator(t *testing.T) {
	m, eng, _ := newTestManager(t, DefaultConfig(), withFrame(4, 4))

	src, _ := NewSourceDescriptor("/does/not/exist.mp4", KindVideo)
	_, err := m.GetPreview(src, 1024, time.Second)

	if !errors.Is(err, ErrSourceResolution) {
		t.Errorf("error = %v, want ErrSourceResolution", err)
	}
	if eng.Builds() != 0 {
		t.Errorf("engine received %d build calls, want 0", eng.Builds())
	}
}

func TestGetPreview_SeekPosition(t *testing.T) {
	tests := []struct {
		name     string
		kind     SourceKind
		duration time.Duration
		known    bool
		want     []enginetest.SeekCall
	}{
		{
			name: "video with duration seeks 5%", kind: KindVideo, duration: 40 * time.Second, known: true,
			want: []enginetest.SeekCall{{Position: 2 * time.Second, Flags: engine.SeekKeyUnit | engine.SeekFlush}},
		},
		{
			name: "video without duration seeks 1s", kind: KindVideo,
			want: []enginetest.SeekCall{{Position: time.Second, Flags: engine.SeekKeyUnit | engine.SeekFlush}},
		},
		{name: "image is not sought", kind: KindImage, duration: time.Second, known: true},
		{name: "device is not sought", kind: KindLiveVideoDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, eng, _ := newTestManager(t, DefaultConfig(), func(g *enginetest.Graph) {
				withFrame(16, 16)(g)
				g.DurationValue, g.DurationKnown = tt.duration, tt.known
			})

			if _, err := m.GetPreview(source(t, tt.kind), 1024, time.Second); err != nil {
				t.Fatalf("GetPreview() error = %v", err)
			}

			got := eng.Last().Seeks()
			if len(got) != len(tt.want) {
				t.Fatalf("seeks = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("seek[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGetPreview_LiveSourcePlaysInsteadOfPreroll(t *testing.T) {
	m, eng, _ := newTestManager(t, DefaultConfig(), withFrame(64, 48))

	if _, err := m.GetPreview(source(t, KindLiveVideoDevice), 1024, time.Second); err != nil {
		t.Fatalf("GetPreview() error = %v", err)
	}

	got := eng.Last().Requested()
	want := []engine.State{engine.StatePaused, engine.StatePlaying}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("requested states = %v, want %v", got, want)
	}
	if !eng.Specs()[0].Live {
		t.Error("device graph should be live")
	}
}

func TestGetPreview_StateTransitionPolicy(t *testing.T) {
	failPause := func(g *enginetest.Graph) {
		withFrame(32, 32)(g)
		g.PauseChange = engine.ChangeFailure
		g.PauseErr = errors.New("could not pause")
	}

	t.Run("lenient continues to pull", func(t *testing.T) {
		m, eng, _ := newTestManager(t, DefaultConfig(), failPause)

		tex, err := m.GetPreview(source(t, KindImage), 1024, time.Second)
		if err != nil {
			t.Fatalf("GetPreview() error = %v", err)
		}
		if tex.Side() != 32 {
			t.Errorf("side = %d, want 32", tex.Side())
		}
		if eng.Last().Pulls() != 1 {
			t.Errorf("pulls = %d, want 1", eng.Last().Pulls())
		}
	})

	t.Run("lenient tolerates failed wait", func(t *testing.T) {
		m, _, _ := newTestManager(t, DefaultConfig(), func(g *enginetest.Graph) {
			withFrame(8, 8)(g)
			g.WaitChange = engine.ChangeFailure
			g.WaitErr = errors.New("preroll failed")
		})

		if _, err := m.GetPreview(source(t, KindImage), 1024, time.Second); err != nil {
			t.Errorf("GetPreview() error = %v, want lenient success", err)
		}
	})

	t.Run("strict aborts", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.StrictStateTransitions = true
		m, eng, _ := newTestManager(t, cfg, failPause)

		tex, err := m.GetPreview(source(t, KindImage), 1024, time.Second)
		if tex != nil || !errors.Is(err, ErrStateTransition) {
			t.Errorf("GetPreview() = (%v, %v), want ErrStateTransition", tex, err)
		}
		if eng.Last().Pulls() != 0 {
			t.Errorf("pulls = %d, want 0", eng.Last().Pulls())
		}
		if !eng.Last().Destroyed() || m.Active() {
			t.Error("graph not torn down after strict failure")
		}
	})
}

func TestGetPreview_StopsActivePlayback(t *testing.T) {
	m, eng, _ := newTestManager(t, DefaultConfig(), withFrame(16, 16))

	if err := m.StartPlayback(source(t, KindVideo), 64, 64, 7); err != nil {
		t.Fatalf("StartPlayback() error = %v", err)
	}
	playGraph := eng.Last()

	if _, err := m.GetPreview(source(t, KindImage), 1024, time.Second); err != nil {
		t.Fatalf("GetPreview() error = %v", err)
	}

	if !playGraph.Destroyed() {
		t.Error("playback graph should be torn down before the preview graph is built")
	}
	if m.PlaybackState() != StateStopped {
		t.Errorf("playback state = %v, want stopped", m.PlaybackState())
	}
	if _, _, err := m.PollLatestFrame(); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("PollLatestFrame() error = %v, want ErrNotPlaying", err)
	}
}
