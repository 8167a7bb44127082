// Package enginetest provides a scriptable in-memory decode engine for tests.
package enginetest

import (
	"errors"
	"sync"
	"time"

	"github.com/e7canasta/media-preview/internal/engine"
	"github.com/e7canasta/media-preview/internal/graph"
)

// Engine records every Build call and hands out fake graphs.
type Engine struct {
	mu sync.Mutex

	// BuildErr makes every Build fail
	BuildErr error
	// Configure scripts each new graph before it is returned
	Configure func(*Graph)

	specs  []graph.Spec
	graphs []*Graph
}

// Build implements engine.Engine.
func (e *Engine) Build(spec graph.Spec) (engine.Graph, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.specs = append(e.specs, spec)
	if e.BuildErr != nil {
		return nil, e.BuildErr
	}

	g := NewGraph(spec)
	if e.Configure != nil {
		e.Configure(g)
	}
	e.graphs = append(e.graphs, g)
	return g, nil
}

// Builds returns the number of Build calls.
func (e *Engine) Builds() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.specs)
}

// Specs returns the specs passed to Build.
func (e *Engine) Specs() []graph.Spec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]graph.Spec(nil), e.specs...)
}

// Graphs returns every graph built so far.
func (e *Engine) Graphs() []*Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Graph(nil), e.graphs...)
}

// Last returns the most recently built graph, or nil.
func (e *Engine) Last() *Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.graphs) == 0 {
		return nil
	}
	return e.graphs[len(e.graphs)-1]
}

// SampleScript describes the frame a graph's pull sink produces.
type SampleScript struct {
	Width  int
	Height int
	Stride int
	Data   []byte
	// NoCaps makes Dimensions report no format
	NoCaps bool
	MapErr error
}

// SeekCall records one Seek.
type SeekCall struct {
	Position time.Duration
	Flags    engine.SeekFlags
}

// Graph is a fake engine.Graph.
type Graph struct {
	mu sync.Mutex

	Spec graph.Spec

	// Scripted outcomes
	PauseChange   engine.StateChange
	PauseErr      error
	PlayChange    engine.StateChange
	WaitChange    engine.StateChange
	WaitErr       error
	DurationValue time.Duration
	DurationKnown bool
	Sample        *SampleScript
	PullErr       error
	// Async keeps CurrentState at the committed state until Settle, as a real
	// engine does while a transition is pending
	Async bool

	state     engine.State
	target    engine.State
	pending   bool
	requested []engine.State
	seeks     []SeekCall
	pulls     int
	frameFn   engine.FrameFunc
	messages  chan *engine.Message
	destroyed bool
	samples   []*Sample
}

// NewGraph returns a graph that prerolls successfully and has no frame.
func NewGraph(spec graph.Spec) *Graph {
	g := &Graph{
		Spec:        spec,
		PauseChange: engine.ChangeAsync,
		PlayChange:  engine.ChangeAsync,
		WaitChange:  engine.ChangeSuccess,
		state:       engine.StateNull,
		messages:    make(chan *engine.Message, 64),
	}
	if spec.Live {
		g.PauseChange = engine.ChangeNoPreroll
	}
	return g
}

// SetState implements engine.Graph.
func (g *Graph) SetState(s engine.State) (engine.StateChange, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requested = append(g.requested, s)
	if g.destroyed {
		return engine.ChangeFailure, errors.New("enginetest: graph destroyed")
	}

	change := engine.ChangeSuccess
	var err error
	switch s {
	case engine.StatePaused:
		change, err = g.PauseChange, g.PauseErr
	case engine.StatePlaying:
		change = g.PlayChange
	}
	if change == engine.ChangeFailure {
		return change, err
	}
	g.target = s
	g.pending = true
	if !g.Async {
		g.state = s
		g.pending = false
	}
	return change, err
}

// Settle commits the pending transition.
func (g *Graph) Settle() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending {
		g.state = g.target
		g.pending = false
	}
}

// WaitState implements engine.Graph.
func (g *Graph) WaitState(time.Duration) (engine.State, engine.StateChange, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending && g.WaitChange == engine.ChangeSuccess && g.WaitErr == nil {
		g.state = g.target
		g.pending = false
	}
	return g.state, g.WaitChange, g.WaitErr
}

// CurrentState implements engine.Graph.
func (g *Graph) CurrentState() engine.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// TargetState implements engine.Graph.
func (g *Graph) TargetState() engine.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending {
		return g.target
	}
	return g.state
}

// Duration implements engine.Graph.
func (g *Graph) Duration() (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.DurationValue, g.DurationKnown
}

// Seek implements engine.Graph.
func (g *Graph) Seek(position time.Duration, flags engine.SeekFlags) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seeks = append(g.seeks, SeekCall{Position: position, Flags: flags})
	return nil
}

// PullPreroll implements engine.Graph.
func (g *Graph) PullPreroll(time.Duration) (engine.Sample, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pulls++
	if g.PullErr != nil {
		return nil, g.PullErr
	}
	if g.Sample == nil {
		return nil, nil
	}
	s := &Sample{script: *g.Sample}
	g.samples = append(g.samples, s)
	return s, nil
}

// OnFrame implements engine.Graph.
func (g *Graph) OnFrame(fn engine.FrameFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frameFn = fn
	return nil
}

// PopMessage implements engine.Graph.
func (g *Graph) PopMessage(timeout time.Duration) *engine.Message {
	select {
	case msg := <-g.messages:
		return msg
	case <-time.After(timeout):
		return nil
	}
}

// Destroy implements engine.Graph.
func (g *Graph) Destroy() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.destroyed = true
	g.state = engine.StateNull
	return nil
}

// Deliver pushes a frame through the registered callback, as the engine's
// streaming thread would. Returns false when no callback is set.
func (g *Graph) Deliver(f engine.Frame) bool {
	g.mu.Lock()
	fn := g.frameFn
	g.mu.Unlock()

	if fn == nil {
		return false
	}
	fn(f)
	return true
}

// Post queues a bus message.
func (g *Graph) Post(msg engine.Message) {
	g.messages <- &msg
}

// Destroyed reports whether Destroy was called.
func (g *Graph) Destroyed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.destroyed
}

// Requested returns every state passed to SetState, in order.
func (g *Graph) Requested() []engine.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]engine.State(nil), g.requested...)
}

// Seeks returns every Seek call.
func (g *Graph) Seeks() []SeekCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SeekCall(nil), g.seeks...)
}

// Pulls returns the number of PullPreroll calls.
func (g *Graph) Pulls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pulls
}

// Samples returns the samples handed out by PullPreroll.
func (g *Graph) Samples() []*Sample {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Sample(nil), g.samples...)
}

// Sample is a fake engine.Sample that tracks its mapping.
type Sample struct {
	mu       sync.Mutex
	script   SampleScript
	mapped   bool
	maps     int
	released bool
}

// Dimensions implements engine.Sample.
func (s *Sample) Dimensions() (int, int, bool) {
	if s.script.NoCaps {
		return 0, 0, false
	}
	return s.script.Width, s.script.Height, true
}

// Map implements engine.Sample.
func (s *Sample) Map() (engine.RawFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.script.MapErr != nil {
		return engine.RawFrame{}, s.script.MapErr
	}
	s.mapped = true
	s.maps++
	return engine.RawFrame{
		Data:        s.script.Data,
		Width:       s.script.Width,
		Height:      s.script.Height,
		Stride:      s.script.Stride,
		PixelFormat: graph.RawFormat,
	}, nil
}

// Unmap implements engine.Sample.
func (s *Sample) Unmap() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapped = false
}

// Release implements engine.Sample.
func (s *Sample) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
}

// Mapped reports whether the sample is still mapped.
func (s *Sample) Mapped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapped
}

// Released reports whether Release was called.
func (s *Sample) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// RGBFrame returns a packed RGB buffer of w x h with 4-byte aligned rows where
// pixel (x, y) has R=x, G=y, B=0xff.
func RGBFrame(w, h int) (data []byte, stride int) {
	stride = (w*3 + 3) &^ 3
	data = make([]byte, stride*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := y*stride + x*3
			data[o] = byte(x)
			data[o+1] = byte(y)
			data[o+2] = 0xff
		}
	}
	return data, stride
}
