package interaction

import "github.com/lainwm/lainwm/internal/platform"

// Phase represents the current pointer interaction.
type Phase int

const (
	// PhaseIdle means no window is being moved or resized
	PhaseIdle Phase = iota
	// PhaseDragging means a window follows the pointer
	PhaseDragging
	// PhaseResizing means a window's bottom-right corner follows the pointer
	PhaseResizing
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseResizing:
		return "resizing"
	default:
		return "unknown"
	}
}

// State holds the current interaction. Window and the anchors are only
// meaningful outside PhaseIdle.
type State struct {
	Phase          Phase
	Window         platform.WindowID
	AnchorPointer  platform.Point // pointer position at press time
	AnchorGeometry platform.Rect  // window geometry at press time
}

// Reset returns the state to idle.
func (s *State) Reset() {
	s.Phase = PhaseIdle
	s.Window = 0
	s.AnchorPointer = platform.Point{}
	s.AnchorGeometry = platform.Rect{}
}

// Active reports whether a move or resize is in progress.
func (s State) Active() bool {
	return s.Phase != PhaseIdle
}
