package mediapreview

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/e7canasta/media-preview/internal/surface"
	"github.com/e7canasta/media-preview/internal/texture"
)

// FrameConsumer uploads the latest playback frame only when its version
// changed since the last upload.
type FrameConsumer struct {
	binder texture.Binder

	mu      sync.Mutex
	session *playbackSession
	seen    uint64

	uploads atomic.Uint64
	skipped atomic.Uint64
}

// NewFrameConsumer returns a consumer uploading through binder.
func NewFrameConsumer(binder texture.Binder) *FrameConsumer {
	return &FrameConsumer{binder: binder}
}

// Poll uploads the newest frame of s into its target texture.
//
// available is false when the version did not change or no frame arrived yet;
// neither is an error. An upload error leaves the version unseen so the next
// poll retries.
func (c *FrameConsumer) Poll(s *playbackSession) (bool, texture.ID, error) {
	if s == nil {
		return false, 0, ErrNotPlaying
	}
	if c.binder == nil {
		return false, s.target, fmt.Errorf("%w: no texture binder configured", ErrInvalidArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// new session, versions restart
	if c.session != s {
		c.session = s
		c.seen = 0
	}

	frame, version, ok := s.frames.Take(c.seen)
	if !ok {
		c.skipped.Add(1)
		return false, s.target, nil
	}
	if len(frame.Data) == 0 {
		slog.Debug("media-preview: no frame yet", "trace_id", s.traceID)
		return false, s.target, nil
	}

	stride := frame.Stride
	if stride == 0 {
		stride = surface.RowStride(frame.Width, 3)
	}

	err := c.binder.Upload(s.target, texture.Upload{
		Width:  frame.Width,
		Height: frame.Height,
		Stride: stride,
		Format: surface.FormatRGB24,
		Data:   frame.Data,
	})
	if err != nil {
		return false, s.target, fmt.Errorf("media-preview: texture upload failed: %w", err)
	}

	c.seen = version
	c.uploads.Add(1)
	return true, s.target, nil
}

// Uploads returns the number of polls that uploaded a frame.
func (c *FrameConsumer) Uploads() uint64 {
	return c.uploads.Load()
}

// Skipped returns the number of polls that found no new frame.
func (c *FrameConsumer) Skipped() uint64 {
	return c.skipped.Load()
}
