package mediapreview

import "errors"

var (
	// ErrInvalidArgument is returned for unsupported source kinds and bad parameters.
	// No graph is built.
	ErrInvalidArgument = errors.New("media-preview: invalid argument")

	// ErrSourceResolution is returned when the locator cannot be turned into an engine reference.
	ErrSourceResolution = errors.New("media-preview: source resolution failed")

	// ErrGraphConstruction is returned when the engine cannot build the decode graph.
	ErrGraphConstruction = errors.New("media-preview: graph construction failed")

	// ErrStateTransition is returned for failed state changes. Preview extraction
	// only returns it with strict state transitions enabled.
	ErrStateTransition = errors.New("media-preview: state transition failed")

	// ErrNoFrame is returned when no frame could be pulled (timeout, end of stream, decode error).
	ErrNoFrame = errors.New("media-preview: no frame available")

	// ErrFrameMapping is returned when a pulled frame cannot be mapped or converted.
	ErrFrameMapping = errors.New("media-preview: frame mapping failed")

	// ErrDimensionQuery is returned when a pulled frame carries no width/height.
	ErrDimensionQuery = errors.New("media-preview: frame dimensions unavailable")

	// ErrNotPlaying is returned by playback operations when no playback graph is active.
	ErrNotPlaying = errors.New("media-preview: playback not active")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("media-preview: manager closed")
)

// Recoverable reports whether err only means "no result this time": the
// caller may retry later with the same source.
func Recoverable(err error) bool {
	return errors.Is(err, ErrNoFrame) ||
		errors.Is(err, ErrFrameMapping) ||
		errors.Is(err, ErrDimensionQuery) ||
		errors.Is(err, ErrStateTransition)
}
