package mediapreview

import (
	"time"

	"github.com/e7canasta/media-preview/internal/texture"
)

// Provider is the interface the browsing application drives.
//
// Implementations must guarantee:
//   - at most one decode graph exists at any time
//   - GetPreview never returns a partially filled descriptor
//   - PollLatestFrame never blocks on a running preview
//   - StopPlayback and Close are idempotent
type Provider interface {
	// GetPreview extracts one frame of src into a square power-of-two RGB
	// surface no larger than maxTextureSize.
	//
	// This call BLOCKS for up to timeout while the graph prerolls and again
	// while the frame is pulled. Run it off the render loop.
	//
	// Any active playback is stopped first.
	//
	// Returns an error wrapping:
	//   - ErrInvalidArgument: unsupported source kind (no graph is built)
	//   - ErrSourceResolution: the locator does not exist or cannot be used
	//   - ErrGraphConstruction: the engine rejected the graph
	//   - ErrNoFrame, ErrDimensionQuery, ErrFrameMapping: no preview this time
	//   - ErrStateTransition: only with strict state transitions
	//
	// Example:
	//   src, _ := mediapreview.NewSourceDescriptor("/media/clip.mp4", mediapreview.KindVideo)
	//   tex, err := p.GetPreview(src, 1024, 5*time.Second)
	//   if err != nil {
	//       if mediapreview.Recoverable(err) {
	//           // show a placeholder, retry later
	//       }
	//       return err
	//   }
	//   texture.UploadSurface(binder, id, tex.Surface)
	GetPreview(src SourceDescriptor, maxTextureSize int, timeout time.Duration) (*TextureDescriptor, error)

	// StartPlayback replaces the current graph with a playback graph scaled to
	// width x height whose frames go to target.
	//
	// Returns immediately; frames arrive asynchronously.
	StartPlayback(src SourceDescriptor, width, height int, target texture.ID) error

	// TogglePlayback pauses a playing graph, or resumes a paused one.
	TogglePlayback() (PlaybackState, error)

	// PollLatestFrame uploads the newest frame if it changed since the last
	// poll. available is false when there was nothing new to upload.
	PollLatestFrame() (available bool, target texture.ID, err error)

	// StopPlayback releases the playback graph.
	StopPlayback() error

	// PlaybackStats returns live playback statistics. Thread-safe.
	PlaybackStats() PlaybackStats

	// Close releases every resource. The provider cannot be used afterwards.
	Close() error
}

var _ Provider = (*Manager)(nil)
