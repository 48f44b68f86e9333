// Package shift tracks keyboard mode and shift state.
//
// The shifted flag has two writers: the user's shift key (Toggle) and the
// editor's auto-capitalisation hint (SetFromCursorContext). The editor always
// wins; its write replaces whatever the user toggled. A shift is one-shot: it
// is consumed by the first alphabetic character it upper-cases.
package shift

import (
	"errors"
	"unicode"

	"keying/internal/keycode"
)

// ErrInvalidModeTransition is returned by Toggle in Symbolic mode.
var ErrInvalidModeTransition = errors.New("shift: toggle ignored in symbolic mode")

// Mode is the keyboard mode.
type Mode int

const (
	Alphabetic Mode = iota
	Symbolic
)

func (m Mode) String() string {
	if m == Symbolic {
		return "symbolic"
	}
	return "alphabetic"
}

// ParseMode converts "alphabetic" or "symbolic".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "alphabetic", "":
		return Alphabetic, true
	case "symbolic":
		return Symbolic, true
	}
	return Alphabetic, false
}

// Source records which writer last set the shifted flag.
type Source int

const (
	SourceNone Source = iota
	SourceToggle
	SourceEditor
)

// State is the shift value owned by the input engine.
type State struct {
	mode    Mode
	shifted bool
	source  Source
}

// New returns a lowercase state in the given mode.
func New(mode Mode) State {
	return State{mode: mode}
}

// Mode returns the keyboard mode.
func (s *State) Mode() Mode { return s.mode }

// Shifted reports whether the next alphabetic character is upper-cased.
func (s *State) Shifted() bool { return s.shifted }

// Source returns the writer of the current shifted value.
func (s *State) Source() Source { return s.source }

// Toggle flips Lowercase and Shifted. In Symbolic mode it does nothing and
// returns ErrInvalidModeTransition.
func (s *State) Toggle() error {
	if s.mode != Alphabetic {
		return ErrInvalidModeTransition
	}
	s.shifted = !s.shifted
	s.source = SourceToggle
	return nil
}

// SetFromCursorContext applies the editor's caps hint. It overrides any
// pending toggle. Outside Alphabetic mode the state stays lowercase.
func (s *State) SetFromCursorContext(capsHint bool) {
	s.shifted = capsHint && s.mode == Alphabetic
	s.source = SourceEditor
}

// SetMode switches the keyboard mode. Entering Symbolic clears the shift.
func (s *State) SetMode(mode Mode) {
	s.mode = mode
	if mode == Symbolic {
		s.shifted = false
		s.source = SourceNone
	}
}

// Apply returns the upper-case form of code when shifted and alphabetic.
// It never mutates the state.
func (s *State) Apply(code keycode.KeyCode) keycode.KeyCode {
	if !s.shifted || s.mode != Alphabetic || !code.IsAlphabetic() {
		return code
	}
	return keycode.FromRune(unicode.ToUpper(code.Rune()))
}

// Consume clears a shift after it has been used on an alphabetic character.
// It reports whether the state changed.
func (s *State) Consume() bool {
	if !s.shifted {
		return false
	}
	s.shifted = false
	s.source = SourceNone
	return true
}

// Reset returns to lowercase without changing the mode.
func (s *State) Reset() {
	s.shifted = false
	s.source = SourceNone
}
