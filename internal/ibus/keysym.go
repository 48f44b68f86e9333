package ibus

import (
	"strings"
	"unicode"

	"keying/internal/ime"
	"keying/internal/keycode"
)

// IBus key event state masks
const (
	ShiftMask   uint32 = 1 << 0
	LockMask    uint32 = 1 << 1
	ControlMask uint32 = 1 << 2
	Mod1Mask    uint32 = 1 << 3 // Alt
	Mod4Mask    uint32 = 1 << 6 // Super/Meta
	ReleaseMask uint32 = 1 << 30

	chordMask = ControlMask | Mod1Mask | Mod4Mask
)

// X11 key symbols the engine handles specially.
const (
	KeyBackSpace  uint32 = 0xff08
	KeyTab        uint32 = 0xff09
	KeyReturn     uint32 = 0xff0d
	KeyEscape     uint32 = 0xff1b
	KeyKPEnter    uint32 = 0xff8d
	KeyShiftL     uint32 = 0xffe1
	KeyShiftR     uint32 = 0xffe2
	KeyModeSwitch uint32 = 0xff7e
	KeyDelete     uint32 = 0xffff
)

// keyvalToRune converts X11 keysym to Unicode rune.
func keyvalToRune(keyval uint32) rune {
	// Direct Unicode mapping for Latin-1 range
	if keyval >= 0x20 && keyval <= 0x7e {
		return rune(keyval)
	}

	// Extended Latin (ISO 8859-1)
	if keyval >= 0xa0 && keyval <= 0xff {
		return rune(keyval)
	}

	// Unicode keysyms (0x01000000 + codepoint)
	if keyval >= 0x01000000 && keyval <= 0x0110ffff {
		return rune(keyval - 0x01000000)
	}

	return 0
}

// keyvalToCode maps a keysym to the engine key code it drives.
// Keys with no meaning to the engine report false.
func keyvalToCode(keyval uint32) (keycode.KeyCode, bool) {
	switch keyval {
	case KeyShiftL, KeyShiftR:
		return keycode.Shift, true
	case KeyBackSpace:
		return keycode.Delete, true
	case KeyEscape:
		return keycode.Cancel, true
	case KeyModeSwitch:
		return keycode.ModeChange, true
	case KeyReturn, KeyKPEnter:
		return keycode.Enter, true
	}
	if r := keyvalToRune(keyval); r != 0 {
		return keycode.FromRune(r), true
	}
	return 0, false
}

// rawToKeyval maps a raw editor key to the keysym forwarded to the client.
func rawToKeyval(raw keycode.Raw) (uint32, bool) {
	switch {
	case raw == keycode.RawEnter:
		return KeyReturn, true
	case raw == keycode.RawDel:
		return KeyBackSpace, true
	case raw >= keycode.RawDigit0 && raw <= keycode.RawDigit0+9:
		return uint32('0' + (raw - keycode.RawDigit0)), true
	}
	return 0, false
}

// Input purposes from IBusInputPurpose.
const (
	PurposeFreeForm uint32 = iota
	PurposeAlpha
	PurposeDigits
	PurposeNumber
	PurposePhone
	PurposeURL
	PurposeEmail
	PurposeName
	PurposePassword
	PurposePIN
	PurposeTerminal
)

// Input hints from IBusInputHints.
const (
	HintSpellcheck         uint32 = 1 << 0
	HintNoSpellcheck       uint32 = 1 << 1
	HintWordCompletion     uint32 = 1 << 2
	HintLowercase          uint32 = 1 << 3
	HintUppercaseChars     uint32 = 1 << 4
	HintUppercaseWords     uint32 = 1 << 5
	HintUppercaseSentences uint32 = 1 << 6
	HintInhibitOSK         uint32 = 1 << 7
)

// editorInfo maps an IBus content type to the engine's field description.
// atSentenceStart is the caps hint derived from the surrounding text.
func editorInfo(purpose, hints uint32, atSentenceStart bool) ime.EditorInfo {
	info := ime.EditorInfo{Class: ime.ClassText}
	switch purpose {
	case PurposeDigits, PurposeNumber, PurposePIN:
		info.Class = ime.ClassNumber
	case PurposePhone:
		info.Class = ime.ClassPhone
	case PurposeURL:
		info.Variation = ime.VariationURI
	case PurposeEmail:
		info.Variation = ime.VariationEmail
	case PurposePassword:
		info.Variation = ime.VariationPassword
	case PurposeTerminal:
		info.Class = ime.ClassOther
	}
	info.AutoComplete = hints&HintWordCompletion != 0
	info.CapsHint = capsWanted(hints, atSentenceStart)
	return info
}

// capsWanted combines the content hints with the surrounding text.
func capsWanted(hints uint32, atSentenceStart bool) bool {
	switch {
	case hints&HintLowercase != 0:
		return false
	case hints&HintUppercaseChars != 0:
		return true
	}
	return atSentenceStart
}

// sentenceStart reports whether the cursor in text starts a sentence:
// nothing but spaces before it, or sentence-ending punctuation followed by
// a space. cursor counts characters.
func sentenceStart(text string, cursor uint32) bool {
	runes := []rune(text)
	if int(cursor) < len(runes) {
		runes = runes[:cursor]
	}
	before := strings.TrimRightFunc(string(runes), unicode.IsSpace)
	if before == "" {
		return true
	}
	if len(before) == len(string(runes)) {
		// no space between the previous word and the cursor
		return false
	}
	switch before[len(before)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
