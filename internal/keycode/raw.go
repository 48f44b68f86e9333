package keycode

import "fmt"

// Raw is a platform key event code sent as a down/up pair instead of
// committed text. Values follow Android's KeyEvent numbering.
type Raw int32

const (
	RawDigit0 Raw = 7
	RawEnter  Raw = 66
	RawDel    Raw = 67
)

// RawDigit returns the raw key for digit d (0-9).
func RawDigit(d int) Raw {
	return RawDigit0 + Raw(d)
}

// RawFor returns the raw key a code is sent as, if any.
// Only the return key and the digits are passed through as raw events.
func RawFor(c KeyCode) (Raw, bool) {
	switch {
	case c == Enter:
		return RawEnter, true
	case c.IsDigit():
		return RawDigit(int(c - '0')), true
	}
	return 0, false
}

func (r Raw) String() string {
	switch {
	case r == RawEnter:
		return "ENTER"
	case r == RawDel:
		return "DEL"
	case r >= RawDigit0 && r <= RawDigit0+9:
		return fmt.Sprintf("DIGIT_%d", r-RawDigit0)
	}
	return fmt.Sprintf("RAW(%d)", int32(r))
}
