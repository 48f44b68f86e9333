// Package keycode defines the key codes exchanged between the platform layer
// and the input engine.
//
// Printable keys carry their Unicode code point. Control keys occupy the
// negative range, matching the values soft keyboards on Android report, so
// they can never collide with a printable character.
package keycode

import (
	"fmt"
	"unicode"
)

// KeyCode identifies a physical or virtual key.
type KeyCode int32

// Control codes.
const (
	Shift      KeyCode = -1
	ModeChange KeyCode = -2
	Cancel     KeyCode = -3
	Done       KeyCode = -4
	Delete     KeyCode = -5
	Alt        KeyCode = -6
)

// Enter is the printable code produced by the return key.
const Enter KeyCode = '\n'

// FromRune returns the key code for a printable character.
func FromRune(r rune) KeyCode {
	return KeyCode(r)
}

// Rune returns the character for a printable code.
// Control codes return unicode.ReplacementChar.
func (c KeyCode) Rune() rune {
	if c.IsControl() {
		return unicode.ReplacementChar
	}
	return rune(c)
}

// IsControl reports whether c lies in the reserved control range.
func (c KeyCode) IsControl() bool {
	return c < 0
}

// IsAlphabetic reports whether c is a letter in any script.
func (c KeyCode) IsAlphabetic() bool {
	return !c.IsControl() && unicode.IsLetter(rune(c))
}

// IsDigit reports whether c is an ASCII digit.
func (c KeyCode) IsDigit() bool {
	return c >= '0' && c <= '9'
}

// String returns the control key name or the quoted character.
func (c KeyCode) String() string {
	switch c {
	case Shift:
		return "SHIFT"
	case ModeChange:
		return "MODE_CHANGE"
	case Cancel:
		return "CANCEL"
	case Done:
		return "DONE"
	case Delete:
		return "DELETE"
	case Alt:
		return "ALT"
	}
	if c.IsControl() {
		return fmt.Sprintf("CONTROL(%d)", int32(c))
	}
	return fmt.Sprintf("%q", rune(c))
}

// Parse converts a key name into a key code. Accepted forms are a single
// character or one of the control names returned by String, plus "ENTER".
func Parse(name string) (KeyCode, error) {
	switch name {
	case "SHIFT":
		return Shift, nil
	case "MODE_CHANGE":
		return ModeChange, nil
	case "CANCEL":
		return Cancel, nil
	case "DONE":
		return Done, nil
	case "DELETE":
		return Delete, nil
	case "ALT":
		return Alt, nil
	case "ENTER":
		return Enter, nil
	case "SPACE":
		return ' ', nil
	}
	runes := []rune(name)
	if len(runes) != 1 {
		return 0, fmt.Errorf("unknown key %q", name)
	}
	return FromRune(runes[0]), nil
}
