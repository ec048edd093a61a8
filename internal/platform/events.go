package platform

// EventKind classifies transport events.
type EventKind int

const (
	KindUnrecognized EventKind = iota
	KindOutputsChanged
	KindWindowMapRequested
	KindKeyPressed
	KindKeyReleased
	KindButtonPressed
	KindButtonReleased
	KindPointerMotion
	KindWindowEntered
	KindConfigureRequested
	KindWindowDestroyed
	KindKeymapChanged
)

// String returns the string representation of the kind
func (k EventKind) String() string {
	switch k {
	case KindOutputsChanged:
		return "outputs-changed"
	case KindWindowMapRequested:
		return "map-request"
	case KindKeyPressed:
		return "key-press"
	case KindKeyReleased:
		return "key-release"
	case KindButtonPressed:
		return "button-press"
	case KindButtonReleased:
		return "button-release"
	case KindPointerMotion:
		return "motion"
	case KindWindowEntered:
		return "enter"
	case KindConfigureRequested:
		return "configure-request"
	case KindWindowDestroyed:
		return "destroy"
	case KindKeymapChanged:
		return "keymap-changed"
	default:
		return "unrecognized"
	}
}

// Event is a classified display-server event.
type Event interface {
	Kind() EventKind
}

// OutputsChanged signals that outputs must be re-enumerated.
type OutputsChanged struct{}

// WindowMapRequested is sent when a top-level window asks to be shown.
type WindowMapRequested struct {
	Window WindowID
}

// KeyPressed carries a grabbed chord. State has lock modifiers stripped.
type KeyPressed struct {
	Keycode Keycode
	State   uint16
}

type KeyReleased struct {
	Keycode Keycode
}

// ButtonPressed carries the child window under the pointer and the pointer
// position in root coordinates.
type ButtonPressed struct {
	Button Button
	Window WindowID
	RootX  int
	RootY  int
}

type ButtonReleased struct {
	Button Button
}

type PointerMotion struct {
	RootX int
	RootY int
}

type WindowEntered struct {
	Window WindowID
}

// ConfigureRequested relays a client's own geometry request.
type ConfigureRequested struct {
	Window  WindowID
	Request WindowConfig
}

type WindowDestroyed struct {
	Window WindowID
}

// KeymapChanged signals that the keyboard or modifier mapping changed and
// key grabs must be moved to the new keycodes.
type KeymapChanged struct{}

// Unrecognized wraps any event kind the manager does not handle.
type Unrecognized struct {
	Name string
}

func (OutputsChanged) Kind() EventKind     { return KindOutputsChanged }
func (WindowMapRequested) Kind() EventKind { return KindWindowMapRequested }
func (KeyPressed) Kind() EventKind         { return KindKeyPressed }
func (KeyReleased) Kind() EventKind        { return KindKeyReleased }
func (ButtonPressed) Kind() EventKind      { return KindButtonPressed }
func (ButtonReleased) Kind() EventKind     { return KindButtonReleased }
func (PointerMotion) Kind() EventKind      { return KindPointerMotion }
func (WindowEntered) Kind() EventKind      { return KindWindowEntered }
func (ConfigureRequested) Kind() EventKind { return KindConfigureRequested }
func (WindowDestroyed) Kind() EventKind    { return KindWindowDestroyed }
func (KeymapChanged) Kind() EventKind      { return KindKeymapChanged }
func (Unrecognized) Kind() EventKind       { return KindUnrecognized }
