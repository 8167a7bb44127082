package gstengine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/media-preview/internal/engine"
)

// busPollInterval bounds each bus pop so waits stay responsive
const busPollInterval = 50 * time.Millisecond

// pipelineGraph implements engine.Graph for a parsed GStreamer pipeline.
type pipelineGraph struct {
	pipeline *gst.Pipeline
	sink     *app.Sink
	live     bool

	mu        sync.Mutex
	target    gst.State
	frameFn   engine.FrameFunc
	destroyed bool
}

// SetState requests a transition.
//
// go-gst only reports failure from gst_element_set_state, so the other
// outcomes are derived: a pause answers ChangeNoPreroll when a source reports
// itself live to a latency query, and PAUSED/PLAYING otherwise answer
// ChangeAsync for WaitState to confirm.
func (g *pipelineGraph) SetState(s engine.State) (engine.StateChange, error) {
	g.mu.Lock()
	if g.destroyed {
		g.mu.Unlock()
		return engine.ChangeFailure, fmt.Errorf("gstengine: pipeline destroyed")
	}
	g.target = toGstState(s)
	g.mu.Unlock()

	if err := g.pipeline.SetState(toGstState(s)); err != nil {
		return engine.ChangeFailure, err
	}

	switch {
	case s == engine.StatePaused && g.isLive():
		return engine.ChangeNoPreroll, nil
	case s == engine.StatePaused || s == engine.StatePlaying:
		return engine.ChangeAsync, nil
	default:
		return engine.ChangeSuccess, nil
	}
}

// isLive asks the source elements whether they are live. Sources without a
// static src pad (uridecodebin) do not answer; with no answer at all the
// graph's declared liveness decides.
func (g *pipelineGraph) isLive() bool {
	sources, err := g.pipeline.GetSourceElements()
	if err != nil {
		return g.live
	}

	answered := false
	for _, src := range sources {
		pad := src.GetStaticPad("src")
		if pad == nil {
			continue
		}
		query := gst.NewLatencyQuery()
		if !pad.Query(query) {
			continue
		}
		answered = true
		if live, _, _ := query.ParseLatency(); live {
			return true
		}
	}

	if !answered {
		return g.live
	}
	return false
}

// WaitState watches the bus until the last requested state is reached, an error
// is posted or timeout expires. Messages popped here are consumed.
func (g *pipelineGraph) WaitState(timeout time.Duration) (engine.State, engine.StateChange, error) {
	g.mu.Lock()
	target := g.target
	g.mu.Unlock()

	deadline := time.Now().Add(timeout)
	bus := g.pipeline.GetPipelineBus()
	name := g.pipeline.GetName()

	for {
		current := g.pipeline.GetState()
		if current == target {
			return fromGstState(current), engine.ChangeSuccess, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fromGstState(current), engine.ChangeAsync, nil
		}
		if remaining > busPollInterval {
			remaining = busPollInterval
		}

		msg := bus.TimedPop(remaining)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			return fromGstState(current), engine.ChangeFailure,
				fmt.Errorf("gstengine: %s (%s)", gerr.Error(), gerr.DebugString())

		case gst.MessageEOS:
			return fromGstState(current), engine.ChangeFailure, fmt.Errorf("gstengine: end of stream while waiting for %s", target)

		case gst.MessageAsyncDone:
			return fromGstState(g.pipeline.GetState()), engine.ChangeSuccess, nil

		case gst.MessageStateChanged:
			if msg.Source() == name {
				_, newState := msg.ParseStateChanged()
				if newState == target {
					return fromGstState(newState), engine.ChangeSuccess, nil
				}
			}
		}
	}
}

// CurrentState returns the pipeline state without waiting.
func (g *pipelineGraph) CurrentState() engine.State {
	return fromGstState(g.pipeline.GetState())
}

// TargetState returns the last requested state.
func (g *pipelineGraph) TargetState() engine.State {
	g.mu.Lock()
	target := g.target
	g.mu.Unlock()

	if target == gst.StateVoidPending {
		return g.CurrentState()
	}
	return fromGstState(target)
}

// Duration queries the stream duration in time format.
func (g *pipelineGraph) Duration() (time.Duration, bool) {
	ok, duration := g.pipeline.QueryDuration(gst.FormatTime)
	if !ok || duration < 0 {
		return 0, false
	}
	return time.Duration(duration), true
}

// Seek performs a flushing time seek from position to the end of the stream.
func (g *pipelineGraph) Seek(position time.Duration, flags engine.SeekFlags) error {
	var gstFlags gst.SeekFlags
	if flags&engine.SeekFlush != 0 {
		gstFlags |= gst.SeekFlagFlush
	}
	if flags&engine.SeekKeyUnit != 0 {
		gstFlags |= gst.SeekFlagKeyUnit
	}

	seek := gst.NewSeekEvent(1.0, gst.FormatTime, gstFlags,
		gst.SeekTypeSet, int64(position), gst.SeekTypeNone, -1)
	if !g.pipeline.SendEvent(seek) {
		return fmt.Errorf("gstengine: seek to %v failed", position)
	}
	return nil
}

// PullPreroll blocks until the appsink prerolls, reaches EOS or timeout
// expires. timeout <= 0 waits without limit.
func (g *pipelineGraph) PullPreroll(timeout time.Duration) (engine.Sample, error) {
	var sample *gst.Sample
	if timeout > 0 {
		sample = g.sink.TryPullPreroll(timeout)
	} else {
		sample = g.sink.PullPreroll()
	}

	if sample == nil {
		if g.sink.IsEOS() || timeout <= 0 {
			// EOS right away or an upstream error: no frame, not an engine failure
			return nil, nil
		}
		slog.Warn("gstengine: preroll pull timed out", "timeout", timeout)
		return nil, fmt.Errorf("gstengine: no preroll sample within %v", timeout)
	}

	return &gstSample{sample: sample}, nil
}

// OnFrame installs new-sample callbacks that copy each frame out of the
// engine's buffer and hand it to fn on the streaming thread.
func (g *pipelineGraph) OnFrame(fn engine.FrameFunc) error {
	g.mu.Lock()
	if g.destroyed {
		g.mu.Unlock()
		return fmt.Errorf("gstengine: pipeline destroyed")
	}
	g.frameFn = fn
	g.mu.Unlock()

	g.sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: g.onNewSample,
	})
	return nil
}

// onNewSample is called by GStreamer when a new frame is available.
//
// Returns gst.FlowOK even for unusable samples: a single corrupt frame should
// not stop playback.
func (g *pipelineGraph) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("gstengine: failed to pull sample from appsink, skipping frame")
		return gst.FlowOK
	}

	width, height, ok := sampleDimensions(sample)
	if !ok {
		slog.Warn("gstengine: sample without video caps, skipping frame")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("gstengine: failed to get buffer from sample, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		slog.Warn("gstengine: empty buffer received")
		return gst.FlowOK
	}

	// Copy frame data (GStreamer reuses the buffer)
	frameData := make([]byte, len(data))
	copy(frameData, data)
	buffer.Unmap()

	g.mu.Lock()
	fn := g.frameFn
	g.mu.Unlock()
	if fn == nil {
		return gst.FlowOK
	}

	fn(engine.Frame{
		Data:        frameData,
		Width:       width,
		Height:      height,
		Stride:      rgbStride(width),
		PixelFormat: "RGB",
		Timestamp:   time.Now(),
	})

	return gst.FlowOK
}

// PopMessage translates the next bus message.
func (g *pipelineGraph) PopMessage(timeout time.Duration) *engine.Message {
	msg := g.pipeline.GetPipelineBus().TimedPop(timeout)
	if msg == nil {
		return nil
	}

	out := &engine.Message{
		Source:    msg.Source(),
		FromGraph: msg.Source() == g.pipeline.GetName(),
	}

	switch msg.Type() {
	case gst.MessageEOS:
		out.Type = engine.MessageEOS
	case gst.MessageError:
		gerr := msg.ParseError()
		out.Type = engine.MessageError
		out.Err = gerr.Error()
		out.Debug = gerr.DebugString()
	case gst.MessageWarning:
		gerr := msg.ParseWarning()
		out.Type = engine.MessageWarning
		out.Err = gerr.Error()
		out.Debug = gerr.DebugString()
	case gst.MessageStateChanged:
		oldState, newState := msg.ParseStateChanged()
		out.Type = engine.MessageStateChanged
		out.Old = fromGstState(oldState)
		out.New = fromGstState(newState)
	case gst.MessageAsyncDone:
		out.Type = engine.MessageAsyncDone
	default:
		out.Type = engine.MessageUnknown
	}

	return out
}

// Destroy sets the pipeline to NULL. Safe to call more than once.
func (g *pipelineGraph) Destroy() error {
	g.mu.Lock()
	if g.destroyed {
		g.mu.Unlock()
		return nil
	}
	g.destroyed = true
	g.frameFn = nil
	g.mu.Unlock()

	if err := g.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("gstengine: failed to set pipeline to NULL: %w", err)
	}
	return nil
}
