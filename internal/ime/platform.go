package ime

import (
	"keying/internal/keycode"
	"keying/internal/shift"
)

// Platform receives the side effects the Engine decides on. Implementations
// wrap the host's text-editing API. Every call is always valid to perform.
type Platform interface {
	// CommitText finalizes text into the editor at the cursor.
	CommitText(text string)

	// UpdateComposingText replaces the provisional composing region.
	// An empty string removes it.
	UpdateComposingText(text string)

	// FinishComposingText keeps the composing region as ordinary text
	// without changing it.
	FinishComposingText()

	// SendRawKey sends a key down/up pair to the editor.
	SendRawKey(key keycode.Raw)

	// SetKeyboardMode shows the given character table.
	SetKeyboardMode(layout shift.Layout)

	// SetShiftVisual lights or clears the shift key.
	SetShiftVisual(shifted bool)

	// RequestHide asks the host to hide the input surface.
	RequestHide()
}

// CapsModeProvider is implemented by platforms that can report whether the
// editor wants the character at the cursor capitalised. When available, the
// Engine re-reads it after edits that move the cursor.
type CapsModeProvider interface {
	CursorCapsMode() bool
}

type capsPlatform struct {
	Platform
	caps func() bool
}

func (p capsPlatform) CursorCapsMode() bool { return p.caps() }

// WithCapsMode adds a CapsModeProvider to a platform that lacks one.
func WithCapsMode(p Platform, caps func() bool) Platform {
	return capsPlatform{Platform: p, caps: caps}
}
