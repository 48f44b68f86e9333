// Package ibus drives the input engine from the IBus input method framework.
//
// IBus creates engine objects through a factory exported on the session bus
// and calls them with key events and editor state. Each engine object owns
// one ime.Engine; its Platform side effects become IBus signals.
package ibus

import (
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"keying/internal/ime"
	"keying/internal/keycode"
	"keying/internal/logging"
	"keying/internal/shift"
)

// IBus D-Bus constants
const (
	FactoryPath      = "/org/freedesktop/IBus/Factory"
	FactoryInterface = "org.freedesktop.IBus.Factory"
	EngineInterface  = "org.freedesktop.IBus.Engine"
	EnginePathPrefix = "/org/freedesktop/IBus/Engine/keying/"
)

// preeditClear is IBUS_ENGINE_PREEDIT_CLEAR: the client drops the preedit
// on focus loss and the engine commits it itself.
const preeditClear uint32 = 0

// Bus is the part of a D-Bus connection the frontend needs.
// *dbus.Conn implements it.
type Bus interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
	Export(v interface{}, path dbus.ObjectPath, iface string) error
}

// Engine implements the org.freedesktop.IBus.Engine interface.
// D-Bus calls arrive on arbitrary goroutines and are serialized by mu.
type Engine struct {
	mu     sync.Mutex
	bus    Bus
	path   dbus.ObjectPath
	engine *ime.Engine
	log    *logging.Logger
	now    func() int64

	purpose uint32
	hints   uint32
	atStart bool

	// A repeated press from key autorepeat is swallowed so that a held key
	// reaches the engine as one long press.
	holding bool
	held    keycode.KeyCode

	// Keys whose press reached the engine. Any other release belongs to
	// the application.
	pressed map[keycode.KeyCode]struct{}

	// A Shift press followed by another key is a modifier chord, not a
	// shift tap, and its release is not reported.
	shiftDown  bool
	shiftChord bool

	preedit string
	layout  shift.Layout
	shifted bool
}

// NewEngine creates an engine object at path. It is not exported on the bus.
func NewEngine(bus Bus, path dbus.ObjectPath, opts ime.Options, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Default()
	}
	start := time.Now()
	e := &Engine{
		bus:     bus,
		path:    path,
		log:     log.WithComponent("ibus"),
		now:     func() int64 { return time.Since(start).Milliseconds() },
		atStart: true,
		pressed: make(map[keycode.KeyCode]struct{}),
	}
	e.engine = ime.NewEngine(busPlatform{e}, opts)
	e.engine.SetLogger(log)
	e.layout = e.engine.Layout()
	return e
}

// Path returns the object path.
func (e *Engine) Path() dbus.ObjectPath { return e.path }

// SetObserver forwards engine activity to o.
func (e *Engine) SetObserver(o ime.Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.engine.SetObserver(o)
}

// SetOptions applies new engine options.
func (e *Engine) SetOptions(opts ime.Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.engine.SetOptions(opts)
}

// ProcessKeyEvent handles key press/release events from IBus.
// Returns true if the key was consumed, false to pass through.
func (e *Engine) ProcessKeyEvent(keyval, keycode_, state uint32) (bool, *dbus.Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	release := state&ReleaseMask != 0
	code, ok := keyvalToCode(keyval)

	if code == keycode.Shift && ok {
		e.processShift(release)
		return false, nil
	}
	if !release && e.shiftDown {
		e.shiftChord = true
	}

	if !ok || state&chordMask != 0 {
		// Cursor keys and shortcuts act on the editor directly, so keep
		// what has been composed.
		if !release && e.engine.ComposingText() != "" {
			e.engine.OnFocusOrSelectionChanged()
		}
		return false, nil
	}

	// Escape only closes a word in progress; otherwise the application
	// gets it.
	_, down := e.pressed[code]
	if code == keycode.Cancel && e.engine.ComposingText() == "" && !down {
		return false, nil
	}

	now := e.now()
	if release {
		if !down {
			return false, nil
		}
		delete(e.pressed, code)
		if e.holding && e.held == code {
			e.holding = false
		}
		e.engine.OnRelease(code, now)
		return true, nil
	}
	if e.holding && e.held == code {
		return true, nil
	}
	e.holding, e.held = true, code
	e.pressed[code] = struct{}{}
	e.engine.OnPress(code, now)
	return true, nil
}

func (e *Engine) processShift(release bool) {
	now := e.now()
	if !release {
		if !e.shiftDown {
			e.shiftDown, e.shiftChord = true, false
			e.engine.OnPress(keycode.Shift, now)
		}
		return
	}
	e.shiftDown = false
	if e.shiftChord {
		e.log.Debug("shift used as modifier")
		return
	}
	e.engine.OnRelease(keycode.Shift, now)
}

// FocusIn is called when the engine gains input focus.
func (e *Engine) FocusIn() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startInput()
	return nil
}

// FocusOut is called when the engine loses input focus.
func (e *Engine) FocusOut() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetKeys()
	e.engine.OnFocusOrSelectionChanged()
	return nil
}

// Reset is called when the client moved the cursor or cleared the field.
func (e *Engine) Reset() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetKeys()
	e.engine.OnFocusOrSelectionChanged()
	return nil
}

// Enable is called when the engine is enabled.
func (e *Engine) Enable() *dbus.Error {
	e.log.Debug("enable")
	return nil
}

// Disable is called when the engine is disabled.
func (e *Engine) Disable() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetKeys()
	e.engine.OnFocusOrSelectionChanged()
	return nil
}

// SetContentType informs about the type of content being edited.
func (e *Engine) SetContentType(purpose, hints uint32) *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.purpose, e.hints = purpose, hints
	e.startInput()
	return nil
}

// SetSurroundingText provides the text around the cursor. It is ignored
// while composing, since the client does not include the preedit in it.
func (e *Engine) SetSurroundingText(text dbus.Variant, cursorPos, anchorPos uint32) *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := textFromVariant(text)
	if !ok {
		return nil
	}
	e.atStart = sentenceStart(s, cursorPos)
	if e.engine.State() == ime.Composing || cursorPos != anchorPos {
		return nil
	}
	e.engine.OnCursorContextChanged(capsWanted(e.hints, e.atStart))
	return nil
}

// SetCapabilities informs about client capabilities.
func (e *Engine) SetCapabilities(caps uint32) *dbus.Error {
	e.log.Debug("set capabilities", "caps", caps)
	return nil
}

// SetCursorLocation informs about cursor position.
func (e *Engine) SetCursorLocation(x, y, w, h int32) *dbus.Error {
	return nil
}

// PropertyActivate handles property activations.
func (e *Engine) PropertyActivate(propName string, state uint32) *dbus.Error {
	return nil
}

// CandidateClicked handles candidate selection.
func (e *Engine) CandidateClicked(index, button, state uint32) *dbus.Error {
	return nil
}

// PageUp handles page up in candidate list.
func (e *Engine) PageUp() *dbus.Error { return nil }

// PageDown handles page down in candidate list.
func (e *Engine) PageDown() *dbus.Error { return nil }

// CursorUp handles cursor up in candidate list.
func (e *Engine) CursorUp() *dbus.Error { return nil }

// CursorDown handles cursor down in candidate list.
func (e *Engine) CursorDown() *dbus.Error { return nil }

// Status describes the keyboard state for diagnostics.
type Status struct {
	Layout    shift.Layout
	Shifted   bool
	Composing string
	SessionID string
}

// Status returns the current keyboard state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Layout:    e.layout,
		Shifted:   e.shifted,
		Composing: e.engine.ComposingText(),
		SessionID: e.engine.SessionID(),
	}
}

func (e *Engine) startInput() {
	e.resetKeys()
	e.engine.StartInput(editorInfo(e.purpose, e.hints, e.atStart))
}

func (e *Engine) resetKeys() {
	e.holding = false
	clear(e.pressed)
	e.shiftDown, e.shiftChord = false, false
}

func (e *Engine) emit(name string, values ...interface{}) {
	if err := e.bus.Emit(e.path, EngineInterface+"."+name, values...); err != nil {
		e.log.Warn("emit signal failed", "signal", name, "error", err)
	}
}

// busPlatform turns engine instructions into IBus signals. It runs with
// the owning Engine's lock held.
type busPlatform struct {
	e *Engine
}

func (p busPlatform) CommitText(text string) {
	p.e.clearPreedit()
	p.e.emit("CommitText", dbus.MakeVariant(newText(text)))
}

func (p busPlatform) UpdateComposingText(text string) {
	e := p.e
	if text == "" {
		e.clearPreedit()
		return
	}
	e.preedit = text
	cursor := uint32(len([]rune(text)))
	e.emit("UpdatePreeditText", dbus.MakeVariant(newText(text)), cursor, true, preeditClear)
}

// FinishComposingText commits the shown preedit, since the client never
// inserted it.
func (p busPlatform) FinishComposingText() {
	e := p.e
	text := e.preedit
	if text == "" {
		return
	}
	e.clearPreedit()
	e.emit("CommitText", dbus.MakeVariant(newText(text)))
}

func (p busPlatform) SendRawKey(raw keycode.Raw) {
	keyval, ok := rawToKeyval(raw)
	if !ok {
		p.e.log.Debug("no keysym for raw key", "key", raw.String())
		return
	}
	p.e.emit("ForwardKeyEvent", keyval, uint32(0), uint32(0))
	p.e.emit("ForwardKeyEvent", keyval, uint32(0), ReleaseMask)
}

// The desktop has no on-screen keyboard to switch, so the table and shift
// light are only tracked for Status.
func (p busPlatform) SetKeyboardMode(layout shift.Layout) {
	p.e.layout = layout
	p.e.log.Debug("keyboard mode", "layout", layout.String())
}

func (p busPlatform) SetShiftVisual(shifted bool) {
	p.e.shifted = shifted
}

func (p busPlatform) RequestHide() {
	p.e.clearPreedit()
}

func (e *Engine) clearPreedit() {
	if e.preedit == "" {
		return
	}
	e.preedit = ""
	e.emit("UpdatePreeditText", dbus.MakeVariant(newText("")), uint32(0), false, preeditClear)
}
