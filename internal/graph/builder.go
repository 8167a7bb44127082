// Package graph builds decode graph descriptions for the supported source kinds.
//
// Descriptions use gst-launch syntax and always end in an appsink named
// SinkName whose caps are locked to packed RGB:
//
//	Image / Video:   uridecodebin uri=... ! videoconvert ! videoscale ! <caps> ! appsink
//	LiveVideoDevice: v4l2src device=...  ! videoconvert ! videoscale ! <caps> ! appsink
//
// Preview graphs leave width and height open (the source geometry is not known
// yet) and are pulled once. Playback graphs embed the texture size into the caps
// so the engine scales while decoding, and deliver every frame to a callback.
package graph

import (
	"fmt"
	"strings"
)

// SinkName is the element name of the terminal appsink in every description.
const SinkName = "sink"

// RawFormat is the only pixel layout sinks accept.
const RawFormat = "RGB"

// Kind is the type of media source.
type Kind int

const (
	// KindImage is a still image file (not seekable)
	KindImage Kind = iota + 1
	// KindVideo is a seekable video file
	KindVideo
	// KindLiveVideoDevice is a capture device such as /dev/video0 (live, no preroll)
	KindLiveVideoDevice
)

// String returns a human-readable name of the kind
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindLiveVideoDevice:
		return "device"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k == KindImage || k == KindVideo || k == KindLiveVideoDevice
}

// Seekable reports whether a preview may seek into the source. Only video
// files can: images have a single frame and devices are live.
func (k Kind) Seekable() bool {
	return k == KindVideo
}

// Live reports whether the source produces data in real time.
func (k Kind) Live() bool {
	return k == KindLiveVideoDevice
}

// ParseKind parses "image", "video" or "device".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image":
		return KindImage, nil
	case "video":
		return KindVideo, nil
	case "device", "live", "videosource":
		return KindLiveVideoDevice, nil
	default:
		return 0, fmt.Errorf("unknown source kind %q (must be image, video or device)", s)
	}
}

// Source identifies a media source. Immutable once built.
type Source struct {
	// Locator is a filesystem path (or file:// URI) for files, a device path for devices
	Locator string
	Kind    Kind
}

// SinkMode selects how frames leave the graph.
type SinkMode int

const (
	// SinkPull is a single-shot sink read with a blocking preroll pull
	SinkPull SinkMode = iota
	// SinkPush delivers every decoded frame to a callback
	SinkPush
)

// Options tune the generated description.
type Options struct {
	Mode SinkMode
	// Audio adds a pass-through audio branch to video playback graphs
	Audio bool
	// Sync makes a push sink render against the pipeline clock (real-time playback)
	Sync bool
}

// Spec is a buildable description of a decode graph.
type Spec struct {
	Description string
	SinkName    string
	Caps        string
	Mode        SinkMode
	Source      Source
	// Live graphs cannot preroll: pausing them reports no-preroll
	Live bool
}

// Build produces the graph description for src. width and height of 0 leave the
// sink geometry open; push graphs require both.
//
// Returns an error wrapping ErrUnresolvable if the locator cannot be turned into
// an engine reference.
func Build(src Source, width, height int, opts Options) (Spec, error) {
	if !src.Kind.Valid() {
		return Spec{}, fmt.Errorf("graph: unsupported source kind %v", src.Kind)
	}
	if width < 0 || height < 0 || (width == 0) != (height == 0) {
		return Spec{}, fmt.Errorf("graph: invalid sink geometry %dx%d", width, height)
	}
	if opts.Mode == SinkPush && width == 0 {
		return Spec{}, fmt.Errorf("graph: playback graphs need a sink geometry")
	}

	ref, err := Resolve(src)
	if err != nil {
		return Spec{}, err
	}

	caps := rawCaps(width, height)

	var b strings.Builder
	switch src.Kind {
	case KindImage, KindVideo:
		fmt.Fprintf(&b, "uridecodebin uri=%s", quote(ref))
		if opts.Mode == SinkPush && opts.Audio && src.Kind == KindVideo {
			b.WriteString(" name=player")
		}
	case KindLiveVideoDevice:
		fmt.Fprintf(&b, "v4l2src device=%s", quote(ref))
	}

	b.WriteString(" ! videoconvert ! videoscale")

	switch opts.Mode {
	case SinkPull:
		fmt.Fprintf(&b, " ! appsink name=%s caps=%s", SinkName, quote(caps))
	case SinkPush:
		fmt.Fprintf(&b, " ! %s ! appsink name=%s sync=%t max-buffers=1 drop=true", caps, SinkName, opts.Sync)
		if opts.Audio && src.Kind == KindVideo {
			b.WriteString(" player. ! audioconvert ! playsink")
		}
	default:
		return Spec{}, fmt.Errorf("graph: unknown sink mode %d", opts.Mode)
	}

	return Spec{
		Description: b.String(),
		SinkName:    SinkName,
		Caps:        caps,
		Mode:        opts.Mode,
		Source:      src,
		Live:        src.Kind.Live(),
	}, nil
}

// rawCaps builds the sink caps string, e.g. "video/x-raw,width=512,height=512,format=RGB".
func rawCaps(width, height int) string {
	if width == 0 {
		return "video/x-raw,format=" + RawFormat
	}
	return fmt.Sprintf("video/x-raw,width=%d,height=%d,format=%s", width, height, RawFormat)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
