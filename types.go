package mediapreview

import (
	"fmt"
	"strings"

	"github.com/e7canasta/media-preview/internal/graph"
	"github.com/e7canasta/media-preview/internal/surface"
)

// SourceKind is the kind of media source.
type SourceKind = graph.Kind

const (
	// KindImage is a still image file
	KindImage = graph.KindImage
	// KindVideo is a video file
	KindVideo = graph.KindVideo
	// KindLiveVideoDevice is a capture device such as /dev/video0
	KindLiveVideoDevice = graph.KindLiveVideoDevice
)

// ParseSourceKind parses "image", "video" or "device".
func ParseSourceKind(s string) (SourceKind, error) {
	k, err := graph.ParseKind(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return k, nil
}

// SourceDescriptor identifies a media source. Immutable once created.
type SourceDescriptor = graph.Source

// NewSourceDescriptor validates locator and kind.
func NewSourceDescriptor(locator string, kind SourceKind) (SourceDescriptor, error) {
	if strings.TrimSpace(locator) == "" {
		return SourceDescriptor{}, fmt.Errorf("%w: locator is required", ErrInvalidArgument)
	}
	if !kind.Valid() {
		return SourceDescriptor{}, fmt.Errorf("%w: unsupported source kind %v", ErrInvalidArgument, kind)
	}
	return SourceDescriptor{Locator: locator, Kind: kind}, nil
}

// TextureDescriptor is a finished preview.
type TextureDescriptor struct {
	// Surface is square with a power-of-two side. Owned by the caller.
	Surface *surface.Surface
	// OriginalWidth and OriginalHeight are the decoded source dimensions
	OriginalWidth  int
	OriginalHeight int
	PixelFormat    surface.PixelFormat
}

// Side returns the texture side length.
func (t *TextureDescriptor) Side() int {
	return t.Surface.Width
}

// PlaybackState is the state of the live playback graph.
type PlaybackState int

const (
	// StateStopped means no playback graph exists
	StateStopped PlaybackState = iota
	// StatePaused means the graph is paused
	StatePaused
	// StatePlaying means frames are being delivered
	StatePlaying
)

// String returns a human-readable string representation of the playback state
func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("PlaybackState(%d)", int(s))
	}
}

// PlaybackStats contains live playback statistics
type PlaybackStats struct {
	// FramesDelivered is the number of frames the engine handed to the sink
	FramesDelivered uint64
	// FramesOverwritten counts frames replaced before any poll saw them
	FramesOverwritten uint64
	// Uploads is the number of polls that uploaded a frame
	Uploads uint64
	// UploadsSkipped is the number of polls that found no new frame
	UploadsSkipped uint64
	// FPSMean and FPSStdDev describe the delivery rate over the recent window
	FPSMean   float64
	FPSStdDev float64
	// IsStable reports a steady delivery rate
	IsStable bool
	// Errors counts engine errors by category (resource, codec, network, unknown)
	Errors map[string]uint64
	// Loops is the number of times playback restarted at end of stream
	Loops uint32
	// Resolution is the sink geometry (e.g., "640x480")
	Resolution string
	State      PlaybackState
}
