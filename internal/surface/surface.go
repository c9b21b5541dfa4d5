// Package surface turns store state into drawable frames for the windowing
// backend and feeds user input back to the event loop. The engine never
// touches windowing primitives directly; backends implement Window.
package surface

import (
	"github.com/llehouerou/nudge/internal/config"
)

// InputKind classifies backend input events.
type InputKind int

const (
	// InputDismiss is a click or key action asking to close the popup.
	InputDismiss InputKind = iota
)

// InputEvent is a user interaction reported by the windowing backend.
type InputEvent struct {
	Kind InputKind
}

// Frame is one drawable popup state.
type Frame struct {
	Geometry config.Geometry

	// FitContent asks the backend to shrink the window height to the laid
	// out markup, using Geometry as the upper bound.
	FitContent bool

	Font       string
	Background string
	Foreground string
	Markup     string
}

// Window abstracts the windowing collaborator. Apply paints a frame and maps
// the window; Hide unmaps it. Backends deliver input events on the Input
// channel until Close, which also closes the channel.
type Window interface {
	Apply(f Frame) error
	Hide() error
	Input() <-chan InputEvent
	Close() error
}
