package probecast

import (
	"github.com/bft-labs/probecast/internal/app"
	"github.com/bft-labs/probecast/internal/domain"
)

// State is the lifecycle state of a Client.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// ExportCompleteEvent is emitted when an export was persisted.
type ExportCompleteEvent struct {
	Session RawDataSession
}

// ExportFailedEvent is emitted when an export fails after the device found
// data, or when Stop abandons an export in flight.
type ExportFailedEvent struct {
	Session RawDataSession
	Error   error
}

// EventHandler receives client events. Methods are called synchronously from
// the client goroutines and must return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnExportComplete(ExportCompleteEvent)
	OnExportFailed(ExportFailedEvent)
}

// BaseEventHandler implements EventHandler with no-ops; embed it to
// override only the events you need.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)       {}
func (BaseEventHandler) OnExportComplete(ExportCompleteEvent) {}
func (BaseEventHandler) OnExportFailed(ExportFailedEvent)     {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnLifecycleChange(previous, current app.LifecycleState, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnExportComplete(s domain.RawDataSession) {
	if e.handler == nil {
		return
	}
	e.handler.OnExportComplete(ExportCompleteEvent{Session: s})
}

func (e *eventEmitterWrapper) OnExportFailed(s domain.RawDataSession, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnExportFailed(ExportFailedEvent{Session: s, Error: err})
}

func convertState(s app.LifecycleState) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
