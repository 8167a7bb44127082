package mediapreview

import (
	"errors"
	"testing"

	"github.com/e7canasta/media-preview/internal/engine/enginetest"
)

func TestFrameConsumer_RequiresBinder(t *testing.T) {
	eng := &enginetest.Engine{}
	m, err := NewManager(DefaultConfig(), nil, WithEngine(eng))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer m.Close()

	if err := m.StartPlayback(source(t, KindVideo), 4, 4, 9); err != nil {
		t.Fatalf("StartPlayback() error = %v", err)
	}
	eng.Last().Deliver(testFrame(4, 4, 0x01))

	_, target, err := m.PollLatestFrame()
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
	if target != 9 {
		t.Errorf("target = %d, want 9", target)
	}
}

func TestFrameConsumer_NilSession(t *testing.T) {
	c := NewFrameConsumer(nil)
	if _, _, err := c.Poll(nil); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("Poll(nil) error = %v, want ErrNotPlaying", err)
	}
}

func TestManager_Closed(t *testing.T) {
	m, eng, _ := newTestManager(t, DefaultConfig(), withFrame(4, 4))

	if err := m.StartPlayback(source(t, KindVideo), 4, 4, 1); err != nil {
		t.Fatalf("StartPlayback() error = %v", err)
	}
	g := eng.Last()

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !g.Destroyed() || m.Active() {
		t.Error("Close did not tear down the active graph")
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, err := m.GetPreview(source(t, KindImage), 64, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("GetPreview after Close error = %v, want ErrClosed", err)
	}
	if err := m.StartPlayback(source(t, KindVideo), 4, 4, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("StartPlayback after Close error = %v, want ErrClosed", err)
	}
}

func TestNewSourceDescriptor(t *testing.T) {
	if _, err := NewSourceDescriptor("  ", KindVideo); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty locator error = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewSourceDescriptor("/a.mp4", SourceKind(0)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero kind error = %v, want ErrInvalidArgument", err)
	}
	src, err := NewSourceDescriptor("/a.mp4", KindVideo)
	if err != nil || src.Locator != "/a.mp4" || src.Kind != KindVideo {
		t.Errorf("NewSourceDescriptor() = (%+v, %v)", src, err)
	}
}

func TestRecoverable(t *testing.T) {
	for _, err := range []error{ErrNoFrame, ErrFrameMapping, ErrDimensionQuery, ErrStateTransition} {
		if !Recoverable(err) {
			t.Errorf("Recoverable(%v) = false", err)
		}
	}
	for _, err := range []error{ErrInvalidArgument, ErrSourceResolution, ErrGraphConstruction} {
		if Recoverable(err) {
			t.Errorf("Recoverable(%v) = true", err)
		}
	}
}
