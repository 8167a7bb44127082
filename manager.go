package mediapreview

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/e7canasta/media-preview/internal/engine"
	"github.com/e7canasta/media-preview/internal/gstengine"
	"github.com/e7canasta/media-preview/internal/texture"
)

// Manager owns the decode graph slot and serializes preview and playback
// operations on it.
type Manager struct {
	cfg Config

	// opMu serializes slot-changing operations. PollLatestFrame does not take it.
	opMu   sync.Mutex
	closed bool

	slot      *GraphSlot
	extractor *Extractor
	playback  *PlaybackController
	consumer  *FrameConsumer
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	engine engine.Engine
}

// WithEngine replaces the GStreamer engine, mainly for tests.
func WithEngine(e engine.Engine) Option {
	return func(o *managerOptions) {
		o.engine = e
	}
}

// NewManager creates a manager with fail-fast validation.
//
// Without WithEngine, GStreamer is initialized and the required elements are
// checked. binder may be nil when only previews are used.
func NewManager(cfg Config, binder texture.Binder, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("media-preview: %w", err)
	}

	var o managerOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.engine == nil {
		gst, err := gstengine.New(gstengine.Options{DebugLevel: cfg.GStreamer.DebugLevel})
		if err != nil {
			return nil, fmt.Errorf("media-preview: GStreamer not available: %w", err)
		}
		o.engine = gst
	}

	slot := &GraphSlot{}

	extractor, err := NewExtractor(o.engine, slot, cfg)
	if err != nil {
		return nil, err
	}
	playback, err := NewPlaybackController(o.engine, slot, cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("media-preview: manager created",
		"max_texture_size", cfg.MaxTextureSize,
		"preroll_timeout", cfg.PrerollTimeout,
		"strict_state_transitions", cfg.StrictStateTransitions,
		"audio", cfg.Playback.EnableAudio,
		"loop", cfg.Playback.Loop,
	)

	return &Manager{
		cfg:       cfg,
		slot:      slot,
		extractor: extractor,
		playback:  playback,
		consumer:  NewFrameConsumer(binder),
	}, nil
}

// GetPreview implements Provider.
func (m *Manager) GetPreview(src SourceDescriptor, maxTextureSize int, timeout time.Duration) (*TextureDescriptor, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	return m.extractor.Extract(src, maxTextureSize, timeout)
}

// StartPlayback implements Provider.
func (m *Manager) StartPlayback(src SourceDescriptor, width, height int, target texture.ID) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.closed {
		return ErrClosed
	}
	return m.playback.Start(src, width, height, target)
}

// TogglePlayback implements Provider.
func (m *Manager) TogglePlayback() (PlaybackState, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.closed {
		return StateStopped, ErrClosed
	}
	return m.playback.Toggle()
}

// PollLatestFrame implements Provider.
func (m *Manager) PollLatestFrame() (bool, texture.ID, error) {
	return m.consumer.Poll(m.playback.active())
}

// StopPlayback implements Provider.
func (m *Manager) StopPlayback() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.playback.Stop()
}

// PlaybackStats implements Provider.
func (m *Manager) PlaybackStats() PlaybackStats {
	st := m.playback.Stats()
	st.Uploads = m.consumer.Uploads()
	st.UploadsSkipped = m.consumer.Skipped()
	return st
}

// PlaybackState returns the current playback state.
func (m *Manager) PlaybackState() PlaybackState {
	return m.playback.State()
}

// Active reports whether a decode graph currently exists.
func (m *Manager) Active() bool {
	return m.slot.Occupied()
}

// Config returns the validated configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Close implements Provider.
func (m *Manager) Close() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.slot.Clear()

	slog.Info("media-preview: manager closed")
	return nil
}
