package ime

import (
	"encoding/json"
	"fmt"
	"time"

	"keying/internal/keycode"
	"keying/internal/remap"
	"keying/internal/shift"
)

// Mobile platform support via gomobile.
//
// Android: the Go code is compiled to an AAR library with gomobile bind and
// the Kotlin InputMethodService forwards keyboard events to MobileEngine.
//
//   gomobile bind -target=android -o keying.aar ./internal/ime

// MobilePlatform is Platform restricted to types gomobile can export.
type MobilePlatform interface {
	CommitText(text string)
	UpdateComposingText(text string)
	FinishComposingText()
	// SendRawKey receives an Android KeyEvent key code.
	SendRawKey(keyCode int32)
	// SetKeyboardMode receives "qwerty", "symbols" or "symbols_shifted".
	SetKeyboardMode(layout string)
	SetShiftVisual(shifted bool)
	RequestHide()
	// CursorCapsMode reports InputConnection.getCursorCapsMode() != 0.
	CursorCapsMode() bool
}

// mobileBridge adapts a MobilePlatform to Platform.
type mobileBridge struct {
	p MobilePlatform
}

func (b mobileBridge) CommitText(text string)          { b.p.CommitText(text) }
func (b mobileBridge) UpdateComposingText(text string) { b.p.UpdateComposingText(text) }
func (b mobileBridge) FinishComposingText()            { b.p.FinishComposingText() }
func (b mobileBridge) SendRawKey(key keycode.Raw)      { b.p.SendRawKey(int32(key)) }
func (b mobileBridge) SetKeyboardMode(l shift.Layout)  { b.p.SetKeyboardMode(l.String()) }
func (b mobileBridge) SetShiftVisual(shifted bool)     { b.p.SetShiftVisual(shifted) }
func (b mobileBridge) RequestHide()                    { b.p.RequestHide() }
func (b mobileBridge) CursorCapsMode() bool            { return b.p.CursorCapsMode() }

// MobileEngine wraps Engine for gomobile export.
// gomobile cannot export most of Engine's parameter types, so this
// surface uses int32, int64, bool and string only.
type MobileEngine struct {
	engine *Engine
}

// NewMobileEngine creates an engine reporting to p.
// thresholdMs <= 0 selects the default long-press threshold. An empty
// separators string selects the default separators. An empty mappings
// string selects the default long-press table.
func NewMobileEngine(p MobilePlatform, thresholdMs int64, separators, mappings string, prediction bool) (*MobileEngine, error) {
	opts := DefaultOptions()
	if thresholdMs > 0 {
		opts.LongPressThreshold = time.Duration(thresholdMs) * time.Millisecond
	}
	if separators != "" {
		opts.WordSeparators = separators
	}
	if mappings != "" {
		t, err := remap.Parse(mappings)
		if err != nil {
			return nil, fmt.Errorf("long-press mappings: %w", err)
		}
		opts.Remap = t
	}
	opts.PredictionEnabled = prediction
	return &MobileEngine{engine: NewEngine(mobileBridge{p: p}, opts)}, nil
}

// OnPress records a key going down. code is a character or a negative
// keyboard control code; nowMs is SystemClock.uptimeMillis().
func (m *MobileEngine) OnPress(code int32, nowMs int64) {
	m.engine.OnPress(keycode.KeyCode(code), nowMs)
}

// OnRelease records a key going up and acts on it.
func (m *MobileEngine) OnRelease(code int32, nowMs int64) {
	m.engine.OnRelease(keycode.KeyCode(code), nowMs)
}

// OnText commits literal text.
func (m *MobileEngine) OnText(text string) {
	m.engine.OnText(text)
}

// OnSwipe handles "left", "right", "up" or "down". Unknown directions
// are ignored.
func (m *MobileEngine) OnSwipe(direction string) {
	if g, ok := ParseGesture(direction); ok {
		m.engine.OnGesture(g)
	}
}

// OnCursorContextChanged applies the editor's caps mode.
func (m *MobileEngine) OnCursorContextChanged(capsHint bool) {
	m.engine.OnCursorContextChanged(capsHint)
}

// OnUpdateSelection is called when the editor moved the cursor away from
// the composing region.
func (m *MobileEngine) OnUpdateSelection() {
	m.engine.OnFocusOrSelectionChanged()
}

// StartInputType prepares for a field with the given EditorInfo.inputType.
func (m *MobileEngine) StartInputType(inputType int32, capsHint bool) {
	m.engine.StartInput(EditorInfoFromInputType(inputType, capsHint))
}

// mobileState is the JSON snapshot returned by State.
type mobileState struct {
	State      string `json:"state"`
	Composing  string `json:"composing"`
	Mode       string `json:"mode"`
	Layout     string `json:"layout"`
	Shifted    bool   `json:"shifted"`
	Prediction bool   `json:"prediction"`
	SessionID  string `json:"session_id"`
}

// State returns a JSON snapshot of the engine.
func (m *MobileEngine) State() string {
	e := m.engine
	data, err := json.Marshal(mobileState{
		State:      e.State().String(),
		Composing:  e.ComposingText(),
		Mode:       e.Mode().String(),
		Layout:     e.Layout().String(),
		Shifted:    e.Shifted(),
		Prediction: e.Prediction(),
		SessionID:  e.SessionID(),
	})
	if err != nil {
		return "{}"
	}
	return string(data)
}
