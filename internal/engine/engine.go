// Package engine defines the port to the external decode engine.
//
// The engine is a black box that builds a decode graph from a description and
// runs it on its own threads. This package only describes what the rest of the
// module needs from it: state changes, duration and seek, a single blocking
// preroll pull, a per-frame callback and bus messages. The GStreamer adapter
// lives in internal/gstengine; tests use internal/engine/enginetest.
package engine

import (
	"time"

	"github.com/e7canasta/media-preview/internal/graph"
)

// State is the engine-level state of a graph.
type State int

const (
	StateVoidPending State = iota
	StateNull
	StateReady
	StatePaused
	StatePlaying
)

// String returns the engine name of the state
func (s State) String() string {
	switch s {
	case StateVoidPending:
		return "VOID_PENDING"
	case StateNull:
		return "NULL"
	case StateReady:
		return "READY"
	case StatePaused:
		return "PAUSED"
	case StatePlaying:
		return "PLAYING"
	default:
		return "UNKNOWN"
	}
}

// StateChange is the outcome of a state transition request.
type StateChange int

const (
	// ChangeFailure means the engine refused or failed the transition
	ChangeFailure StateChange = iota
	// ChangeSuccess means the transition completed
	ChangeSuccess
	// ChangeAsync means the transition continues on the engine's threads
	ChangeAsync
	// ChangeNoPreroll means the graph is live and cannot produce data while paused
	ChangeNoPreroll
)

// String returns a human-readable name of the outcome
func (c StateChange) String() string {
	switch c {
	case ChangeFailure:
		return "failure"
	case ChangeSuccess:
		return "success"
	case ChangeAsync:
		return "async"
	case ChangeNoPreroll:
		return "no-preroll"
	default:
		return "unknown"
	}
}

// SeekFlags modify a seek request.
type SeekFlags int

const (
	// SeekFlush discards queued data so the new position is reached promptly
	SeekFlush SeekFlags = 1 << iota
	// SeekKeyUnit snaps to the nearest preceding keyframe
	SeekKeyUnit
)

// RawFrame is a read-only view over a mapped frame buffer. Data is owned by the
// engine and is only valid until the owning Sample is unmapped.
type RawFrame struct {
	Data        []byte
	Width       int
	Height      int
	Stride      int
	PixelFormat string
}

// Frame is a decoded frame delivered to a push sink. Data is a private copy and
// stays valid after the callback returns.
type Frame struct {
	Data        []byte
	Width       int
	Height      int
	Stride      int
	PixelFormat string
	Timestamp   time.Time
}

// FrameFunc receives frames on the engine's streaming thread. It must not block.
type FrameFunc func(Frame)

// Sample is a frame pulled from a pull sink.
type Sample interface {
	// Dimensions reports the negotiated frame geometry; ok is false when the
	// sample carries no usable format.
	Dimensions() (width, height int, ok bool)
	// Map maps the buffer read-only. Must be paired with Unmap.
	Map() (RawFrame, error)
	// Unmap releases a mapping made by Map. Safe to call without a mapping.
	Unmap()
	// Release drops the sample reference.
	Release()
}

// MessageType is the kind of a bus message.
type MessageType int

const (
	MessageUnknown MessageType = iota
	MessageEOS
	MessageError
	MessageWarning
	MessageStateChanged
	MessageAsyncDone
)

// Message is a bus message emitted by a running graph.
type Message struct {
	Type MessageType
	// FromGraph is true when the graph itself (not a child element) posted it
	FromGraph bool
	Source    string
	Old       State
	New       State
	// Err and Debug carry the error/warning text
	Err   string
	Debug string
}

// Graph is a running decode pipeline instance. It owns every resource the
// engine created for it until Destroy.
type Graph interface {
	// SetState requests a transition. ChangeNoPreroll means the graph is live
	// and produces data only while playing; ChangeAsync means the transition
	// completes later and WaitState observes it.
	SetState(State) (StateChange, error)
	// WaitState waits up to timeout for a pending transition to settle.
	WaitState(timeout time.Duration) (State, StateChange, error)
	// CurrentState returns the committed state without waiting.
	CurrentState() State
	// TargetState returns the last requested state, which CurrentState lags
	// behind while a transition is pending. Before any request it equals
	// CurrentState.
	TargetState() State
	// Duration returns the stream duration when the engine knows it.
	Duration() (time.Duration, bool)
	// Seek jumps to position.
	Seek(position time.Duration, flags SeekFlags) error
	// PullPreroll blocks until the pull sink holds a frame, EOS or timeout.
	// Returns a nil Sample when no frame is available.
	PullPreroll(timeout time.Duration) (Sample, error)
	// OnFrame registers the push sink callback. Must be set before playing.
	OnFrame(FrameFunc) error
	// PopMessage waits up to timeout for the next bus message; nil on timeout.
	PopMessage(timeout time.Duration) *Message
	// Destroy moves the graph to NULL and releases it. Idempotent.
	Destroy() error
}

// Engine builds graphs.
type Engine interface {
	Build(spec graph.Spec) (Graph, error)
}
