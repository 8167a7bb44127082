package mediapreview

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/e7canasta/media-preview/internal/engine"
	"github.com/e7canasta/media-preview/internal/graph"
	"github.com/e7canasta/media-preview/internal/surface"
)

// Extractor produces one preview frame per call.
type Extractor struct {
	engine engine.Engine
	slot   *GraphSlot
	cfg    Config
}

// NewExtractor returns an extractor that builds its graphs in slot.
func NewExtractor(eng engine.Engine, slot *GraphSlot, cfg Config) (*Extractor, error) {
	if eng == nil {
		return nil, fmt.Errorf("media-preview: engine is required")
	}
	if slot == nil {
		return nil, fmt.Errorf("media-preview: graph slot is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("media-preview: %w", err)
	}
	return &Extractor{engine: eng, slot: slot, cfg: cfg}, nil
}

// previewGraph is the slot occupant during an extraction.
type previewGraph struct {
	graph   engine.Graph
	traceID string
}

func (p *previewGraph) Teardown() error {
	slog.Debug("media-preview: tearing down preview graph", "trace_id", p.traceID)
	return p.graph.Destroy()
}

// Extract builds a pull graph for src, takes one frame and scales it into a
// square power-of-two surface no larger than maxTextureSize.
//
// Extract blocks for up to timeout while the graph prerolls and again while the
// frame is pulled. maxTextureSize <= 0 and timeout <= 0 use the configured
// defaults.
//
// The graph is always torn down before Extract returns. On error the result is
// nil; no partially filled descriptor is ever returned.
func (e *Extractor) Extract(src SourceDescriptor, maxTextureSize int, timeout time.Duration) (*TextureDescriptor, error) {
	if !src.Kind.Valid() {
		return nil, fmt.Errorf("%w: unsupported source kind %v", ErrInvalidArgument, src.Kind)
	}
	if maxTextureSize <= 0 {
		maxTextureSize = e.cfg.MaxTextureSize
	}
	if timeout <= 0 {
		timeout = e.cfg.PrerollTimeout
	}

	spec, err := graph.Build(src, 0, 0, graph.Options{Mode: graph.SinkPull})
	if err != nil {
		if errors.Is(err, graph.ErrUnresolvable) {
			return nil, fmt.Errorf("%w: %v", ErrSourceResolution, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrGraphConstruction, err)
	}

	traceID := uuid.New().String()
	logger := slog.With("trace_id", traceID, "locator", src.Locator, "kind", src.Kind.String())

	occ, err := e.slot.Replace(func() (Occupant, error) {
		g, err := e.engine.Build(spec)
		if err != nil {
			return nil, err
		}
		return &previewGraph{graph: g, traceID: traceID}, nil
	})
	if err != nil {
		logger.Error("media-preview: could not construct preview graph", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGraphConstruction, err)
	}
	defer e.slot.Release(occ)

	g := occ.(*previewGraph).graph
	started := time.Now()

	if err := e.preroll(g, timeout, logger); err != nil {
		return nil, err
	}

	if src.Kind.Seekable() {
		e.seek(g, logger)
	}

	tex, err := e.takeFrame(g, maxTextureSize, timeout)
	if err != nil {
		logger.Warn("media-preview: no preview", "error", err)
		return nil, err
	}

	logger.Info("media-preview: preview extracted",
		"original", fmt.Sprintf("%dx%d", tex.OriginalWidth, tex.OriginalHeight),
		"side", tex.Side(),
		"elapsed", time.Since(started),
	)
	return tex, nil
}

// preroll pauses g so the sink receives its first frame. Live sources cannot
// preroll and are set to PLAYING instead.
//
// Failures are only fatal with StrictStateTransitions; otherwise they are
// logged and the frame pull decides.
func (e *Extractor) preroll(g engine.Graph, timeout time.Duration, logger *slog.Logger) error {
	change, err := g.SetState(engine.StatePaused)
	failed := err != nil || change == engine.ChangeFailure

	if failed {
		if e.cfg.StrictStateTransitions {
			return transitionError("pause", change, err)
		}
		logger.Warn("media-preview: failed to pause graph, continuing", "error", err)
	}

	if failed || change == engine.ChangeNoPreroll {
		if change == engine.ChangeNoPreroll {
			logger.Debug("media-preview: live source, playing instead of prerolling")
		}
		if playChange, err := g.SetState(engine.StatePlaying); err != nil || playChange == engine.ChangeFailure {
			if e.cfg.StrictStateTransitions {
				return transitionError("play", playChange, err)
			}
			logger.Warn("media-preview: failed to play graph, continuing", "error", err)
		}
	}

	state, change, err := g.WaitState(timeout)
	switch {
	case err != nil || change == engine.ChangeFailure:
		if e.cfg.StrictStateTransitions {
			return transitionError("wait", change, err)
		}
		logger.Warn("media-preview: graph state change failed, continuing", "error", err, "state", state)
	case change == engine.ChangeAsync:
		logger.Warn("media-preview: graph did not settle in time", "timeout", timeout, "state", state)
	default:
		logger.Debug("media-preview: graph prerolled", "state", state)
	}
	return nil
}

func transitionError(step string, change engine.StateChange, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStateTransition, step, err)
	}
	return fmt.Errorf("%w: %s returned %v", ErrStateTransition, step, change)
}

// seek moves a video a little into the stream: first frames are often black.
func (e *Extractor) seek(g engine.Graph, logger *slog.Logger) {
	position := e.cfg.SeekFallback
	if duration, ok := g.Duration(); ok && duration > 0 {
		position = time.Duration(float64(duration) * e.cfg.SeekFraction)
	}

	if err := g.Seek(position, engine.SeekKeyUnit|engine.SeekFlush); err != nil {
		logger.Warn("media-preview: seek failed, using current frame", "position", position, "error", err)
		return
	}
	logger.Debug("media-preview: seeked for preview", "position", position)
}

// takeFrame pulls one sample and converts it. The sample is unmapped and
// released on every path.
func (e *Extractor) takeFrame(g engine.Graph, maxTextureSize int, timeout time.Duration) (*TextureDescriptor, error) {
	sample, err := g.PullPreroll(timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	if sample == nil {
		return nil, fmt.Errorf("%w: end of stream or decode error", ErrNoFrame)
	}
	defer sample.Release()

	width, height, ok := sample.Dimensions()
	if !ok || width <= 0 || height <= 0 {
		return nil, ErrDimensionQuery
	}

	side := TextureSide(width, height, maxTextureSize)

	raw, err := sample.Map()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameMapping, err)
	}
	defer sample.Unmap()

	if raw.PixelFormat != "" && raw.PixelFormat != graph.RawFormat {
		return nil, fmt.Errorf("%w: unexpected pixel format %q", ErrFrameMapping, raw.PixelFormat)
	}

	layout, _ := surface.LayoutFor(surface.FormatRGB24)
	stride := raw.Stride
	if stride == 0 {
		stride = surface.RowStride(width, layout.BytesPerPixel)
	}

	// zero-copy view, only valid until Unmap
	view, err := surface.FromBytes(raw.Data, width, height, stride, layout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameMapping, err)
	}

	scaled, err := surface.Scale(view, side, side)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameMapping, err)
	}

	return &TextureDescriptor{
		Surface:        scaled,
		OriginalWidth:  width,
		OriginalHeight: height,
		PixelFormat:    surface.FormatRGB24,
	}, nil
}

// TextureSide returns the smallest power of two that is >= max(width, height),
// capped at maxSide. When maxSide is not a power of two the cap is the largest
// power of two below it. Returns 1 for maxSide < 1.
//
//	TextureSide(350, 220, 1024)  // 512
//	TextureSide(1300, 700, 512)  // 512
func TextureSide(width, height, maxSide int) int {
	side := 1
	for side < maxSide && (side < width || side < height) {
		side *= 2
	}
	if side > maxSide && side > 1 {
		side /= 2
	}
	return side
}
