package ime

import "keying/internal/keycode"

// EventKind selects the handler for an Event.
type EventKind int

const (
	EventPress EventKind = iota
	EventRelease
	EventCursorContext
	EventFocusChange
	EventText
	EventGesture
	EventStartInput
)

func (k EventKind) String() string {
	switch k {
	case EventPress:
		return "press"
	case EventRelease:
		return "release"
	case EventCursorContext:
		return "cursor_context"
	case EventFocusChange:
		return "focus_change"
	case EventText:
		return "text"
	case EventGesture:
		return "gesture"
	case EventStartInput:
		return "start_input"
	}
	return "unknown"
}

// Gesture is a swipe over the keyboard surface.
type Gesture int

const (
	SwipeLeft Gesture = iota
	SwipeRight
	SwipeUp
	SwipeDown
)

// ParseGesture converts "left", "right", "up" or "down".
func ParseGesture(s string) (Gesture, bool) {
	switch s {
	case "left":
		return SwipeLeft, true
	case "right":
		return SwipeRight, true
	case "up":
		return SwipeUp, true
	case "down":
		return SwipeDown, true
	}
	return 0, false
}

// Event is one input from the platform layer. Only the fields relevant to
// Kind are read.
type Event struct {
	Kind     EventKind
	Code     keycode.KeyCode // press, release
	TimeMs   int64           // press, release; monotonic milliseconds
	CapsHint bool            // cursor context
	Text     string          // text
	Gesture  Gesture         // gesture
	Editor   EditorInfo      // start input
}
