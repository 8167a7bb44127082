package mediapreview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/e7canasta/media-preview/internal/engine"
	"github.com/e7canasta/media-preview/internal/graph"
	"github.com/e7canasta/media-preview/internal/latest"
	"github.com/e7canasta/media-preview/internal/rate"
	"github.com/e7canasta/media-preview/internal/texture"
)

// busPollInterval bounds each bus wait of the monitor so Stop stays responsive
const busPollInterval = 50 * time.Millisecond

// PlaybackController runs a push graph that keeps replacing the latest frame.
type PlaybackController struct {
	engine engine.Engine
	slot   *GraphSlot
	cfg    Config

	mu      sync.Mutex
	session *playbackSession
}

// NewPlaybackController returns a controller that builds its graphs in slot.
func NewPlaybackController(eng engine.Engine, slot *GraphSlot, cfg Config) (*PlaybackController, error) {
	if eng == nil {
		return nil, fmt.Errorf("media-preview: engine is required")
	}
	if slot == nil {
		return nil, fmt.Errorf("media-preview: graph slot is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("media-preview: %w", err)
	}
	return &PlaybackController{engine: eng, slot: slot, cfg: cfg}, nil
}

// playbackSession is the slot occupant while a playback graph exists.
type playbackSession struct {
	graph   engine.Graph
	traceID string
	source  SourceDescriptor
	width   int
	height  int
	target  texture.ID
	loop    bool

	frames *latest.Cell[engine.Frame]
	meter  *rate.Meter

	delivered atomic.Uint64
	loops     atomic.Uint32
	errors    [4]atomic.Uint64 // indexed by engine.ErrorCategory

	started     time.Time
	stopTimeout time.Duration
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	torn        atomic.Bool
}

// Start tears down whatever occupies the slot, builds a push graph whose sink
// is fixed to width x height RGB and sets it to PLAYING. The frame version
// restarts at zero.
//
// Start returns once PLAYING was requested. Frames arrive asynchronously.
func (c *PlaybackController) Start(src SourceDescriptor, width, height int, target texture.ID) error {
	if !src.Kind.Valid() {
		return fmt.Errorf("%w: unsupported source kind %v", ErrInvalidArgument, src.Kind)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: invalid playback size %dx%d", ErrInvalidArgument, width, height)
	}

	spec, err := graph.Build(src, width, height, graph.Options{
		Mode:  graph.SinkPush,
		Audio: c.cfg.Playback.EnableAudio,
		Sync:  c.cfg.Playback.Sync,
	})
	if err != nil {
		if errors.Is(err, graph.ErrUnresolvable) {
			return fmt.Errorf("%w: %v", ErrSourceResolution, err)
		}
		return fmt.Errorf("%w: %v", ErrGraphConstruction, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var startErr error
	occ, err := c.slot.Replace(func() (Occupant, error) {
		g, err := c.engine.Build(spec)
		if err != nil {
			startErr = fmt.Errorf("%w: %v", ErrGraphConstruction, err)
			return nil, startErr
		}

		s := c.newSession(g, src, width, height, target)
		if err := s.start(); err != nil {
			if derr := g.Destroy(); derr != nil {
				slog.Error("media-preview: failed to destroy graph", "trace_id", s.traceID, "error", derr)
			}
			startErr = err
			return nil, err
		}
		return s, nil
	})
	if err != nil {
		c.session = nil
		if startErr != nil {
			return startErr
		}
		return fmt.Errorf("%w: %v", ErrGraphConstruction, err)
	}

	c.session = occ.(*playbackSession)
	return nil
}

func (c *PlaybackController) newSession(g engine.Graph, src SourceDescriptor, width, height int, target texture.ID) *playbackSession {
	return &playbackSession{
		graph:       g,
		traceID:     uuid.New().String(),
		source:      src,
		width:       width,
		height:      height,
		target:      target,
		loop:        c.cfg.Playback.Loop && src.Kind.Seekable(),
		frames:      &latest.Cell[engine.Frame]{},
		meter:       rate.NewMeter(c.cfg.Playback.StatsWindow),
		stopTimeout: c.cfg.Playback.StopTimeout,
	}
}

// active returns the session if it still owns the slot. A preview started in
// between replaces (and tears down) the playback graph.
func (c *PlaybackController) active() *playbackSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	if c.slot.Current() != Occupant(c.session) {
		c.session = nil
		return nil
	}
	return c.session
}

// Toggle pauses a playing graph and resumes a paused one. Two calls return the
// graph to its original state, also while the previous change is still in
// progress: the decision is taken from the requested state, not the committed one.
func (c *PlaybackController) Toggle() (PlaybackState, error) {
	s := c.active()
	if s == nil {
		return StateStopped, ErrNotPlaying
	}

	next := engine.StatePaused
	if s.graph.TargetState() == engine.StatePaused {
		next = engine.StatePlaying
	}

	change, err := s.graph.SetState(next)
	if err != nil || change == engine.ChangeFailure {
		return s.state(), transitionError("toggle to "+next.String(), change, err)
	}

	slog.Info("media-preview: playback toggled", "trace_id", s.traceID, "state", next)

	if next == engine.StatePaused {
		return StatePaused, nil
	}
	return StatePlaying, nil
}

// Stop tears the playback graph down. Safe to call when nothing is playing.
func (c *PlaybackController) Stop() error {
	s := c.active()
	if s == nil {
		slog.Debug("media-preview: playback not active, nothing to stop")
		return nil
	}

	c.slot.Release(s)

	c.mu.Lock()
	if c.session == s {
		c.session = nil
	}
	c.mu.Unlock()
	return nil
}

// State returns the playback state.
func (c *PlaybackController) State() PlaybackState {
	s := c.active()
	if s == nil {
		return StateStopped
	}
	return s.state()
}

// Stats returns delivery statistics of the active session. Upload counters
// are filled in by the consumer.
func (c *PlaybackController) Stats() PlaybackStats {
	s := c.active()
	if s == nil {
		return PlaybackStats{State: StateStopped}
	}
	return s.stats()
}

// start wires the frame callback, requests PLAYING and launches the bus monitor.
func (s *playbackSession) start() error {
	logger := slog.With("trace_id", s.traceID, "locator", s.source.Locator)

	if err := s.graph.OnFrame(s.onFrame); err != nil {
		return fmt.Errorf("%w: %v", ErrGraphConstruction, err)
	}

	change, err := s.graph.SetState(engine.StatePlaying)
	if err != nil || change == engine.ChangeFailure {
		logger.Error("media-preview: failed to start playback", "error", err, "change", change)
		return transitionError("play", change, err)
	}

	s.started = time.Now()

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.monitor(ctx)

	logger.Info("media-preview: playback started",
		"kind", s.source.Kind.String(),
		"resolution", fmt.Sprintf("%dx%d", s.width, s.height),
		"texture", s.target,
		"loop", s.loop,
	)
	return nil
}

// onFrame runs on the engine's streaming thread.
func (s *playbackSession) onFrame(f engine.Frame) {
	if s.torn.Load() {
		return
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	s.frames.Publish(f)
	s.delivered.Add(1)
	s.meter.Mark(f.Timestamp)
}

// monitor watches the bus until the session is torn down.
func (s *playbackSession) monitor(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("media-preview: context cancelled, stopping bus monitor", "trace_id", s.traceID)
			return
		default:
		}

		msg := s.graph.PopMessage(busPollInterval)
		if msg == nil {
			continue
		}
		s.handleMessage(msg)
	}
}

func (s *playbackSession) handleMessage(msg *engine.Message) {
	switch msg.Type {
	case engine.MessageEOS:
		if !s.loop {
			slog.Info("media-preview: end of stream",
				"trace_id", s.traceID,
				"uptime", time.Since(s.started),
				"frames_delivered", s.delivered.Load(),
			)
			return
		}
		if err := s.graph.Seek(0, engine.SeekFlush); err != nil {
			slog.Warn("media-preview: failed to loop playback", "trace_id", s.traceID, "error", err)
			return
		}
		loops := s.loops.Add(1)
		slog.Debug("media-preview: looping playback", "trace_id", s.traceID, "loops", loops)

	case engine.MessageError:
		category := engine.ClassifyError(msg.Err, msg.Debug)
		s.errors[category].Add(1)
		slog.Error("media-preview: pipeline error",
			"trace_id", s.traceID,
			"error", msg.Err,
			"debug", msg.Debug,
			"category", category.String(),
			"source", msg.Source,
			"frames_delivered", s.delivered.Load(),
		)

	case engine.MessageWarning:
		slog.Warn("media-preview: pipeline warning",
			"trace_id", s.traceID,
			"warning", msg.Err,
			"source", msg.Source,
		)

	case engine.MessageStateChanged:
		if msg.FromGraph {
			slog.Debug("media-preview: pipeline state changed",
				"trace_id", s.traceID,
				"from", msg.Old,
				"to", msg.New,
			)
		}
	}
}

// Teardown stops the monitor (bounded by the stop timeout) and destroys the graph.
func (s *playbackSession) Teardown() error {
	if !s.torn.CompareAndSwap(false, true) {
		return nil
	}

	slog.Info("media-preview: stopping playback", "trace_id", s.traceID)

	if s.cancel != nil {
		s.cancel()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			slog.Debug("media-preview: bus monitor stopped cleanly", "trace_id", s.traceID)
		case <-time.After(s.stopTimeout):
			slog.Warn("media-preview: stop timeout exceeded, bus monitor may still be running", "trace_id", s.traceID)
		}
	}

	err := s.graph.Destroy()
	s.frames.Reset()

	slog.Info("media-preview: playback stopped",
		"trace_id", s.traceID,
		"frames_delivered", s.delivered.Load(),
		"loops", s.loops.Load(),
		"uptime", time.Since(s.started),
	)

	if err != nil {
		return fmt.Errorf("media-preview: failed to destroy playback graph: %w", err)
	}
	return nil
}

func (s *playbackSession) state() PlaybackState {
	if s.torn.Load() {
		return StateStopped
	}
	if s.graph.TargetState() == engine.StatePaused {
		return StatePaused
	}
	return StatePlaying
}

func (s *playbackSession) stats() PlaybackStats {
	st := s.meter.Snapshot()

	errs := make(map[string]uint64)
	for i := range s.errors {
		if n := s.errors[i].Load(); n > 0 {
			errs[engine.ErrorCategory(i).String()] = n
		}
	}

	return PlaybackStats{
		FramesDelivered:   s.delivered.Load(),
		FramesOverwritten: s.frames.Overwritten(),
		FPSMean:           st.FPSMean,
		FPSStdDev:         st.FPSStdDev,
		IsStable:          st.IsStable,
		Errors:            errs,
		Loops:             s.loops.Load(),
		Resolution:        fmt.Sprintf("%dx%d", s.width, s.height),
		State:             s.state(),
	}
}
