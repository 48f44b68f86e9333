package ime

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"keying/internal/composing"
	"keying/internal/keycode"
	"keying/internal/logging"
	"keying/internal/press"
	"keying/internal/remap"
	"keying/internal/shift"
)

// DefaultWordSeparators are the characters that end a word.
const DefaultWordSeparators = " .,;:!?\n()[]*&@{}/<>_+=|\""

// Degradation kinds reported to the Observer and the log.
const (
	DegradeNoActiveSession       = "no_active_session"
	DegradeEmptyBufferDelete     = "empty_buffer_delete"
	DegradeInvalidModeTransition = "invalid_mode_transition"
)

// Commit reasons reported to the Observer.
const (
	CommitSeparator = "separator"
	CommitDirect    = "direct"
	CommitClose     = "close"
	CommitText      = "text"
)

// Options configures an Engine.
type Options struct {
	// LongPressThreshold separates short from long presses.
	LongPressThreshold time.Duration

	// WordSeparators lists the characters that flush composing text.
	WordSeparators string

	// PredictionEnabled lets letters collect in the composing buffer.
	// Editor fields may still turn composing off.
	PredictionEnabled bool

	// Remap is the long-press sibling table. Nil disables long-press
	// substitution.
	Remap *remap.Table

	// StartMode is the keyboard mode before any editor is started.
	StartMode shift.Mode
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		LongPressThreshold: press.DefaultThreshold,
		WordSeparators:     DefaultWordSeparators,
		PredictionEnabled:  true,
		Remap:              remap.Default(),
		StartMode:          shift.Alphabetic,
	}
}

// State is the composing state of the Engine.
type State int

const (
	Idle State = iota
	Composing
)

func (s State) String() string {
	if s == Composing {
		return "composing"
	}
	return "idle"
}

// Observer is told about engine activity; the metrics package implements it.
// KeyReleased gets a negative held when the press time is unknown.
type Observer interface {
	KeyReleased(kind press.Kind, held time.Duration)
	Committed(reason string, runes int)
	Degraded(kind string)
	SessionStarted()
}

type nopObserver struct{}

func (nopObserver) KeyReleased(press.Kind, time.Duration) {}
func (nopObserver) Committed(string, int)                 {}
func (nopObserver) Degraded(string)                       {}
func (nopObserver) SessionStarted()                       {}

// Engine turns key events into text instructions for a Platform.
// It is not safe for concurrent use.
type Engine struct {
	platform Platform
	caps     CapsModeProvider
	base     *logging.Logger
	log      *logging.Logger
	observer Observer

	opts       Options
	separators map[rune]struct{}
	allowed    bool // editor field permits composing

	tracker    *press.Tracker
	shift      shift.State
	symbolsAlt bool
	buffer     composing.Buffer
	sessionID  string
}

// NewEngine creates an Engine that reports to p.
func NewEngine(p Platform, opts Options) *Engine {
	e := &Engine{
		platform: p,
		base:     logging.Default().WithComponent("ime"),
		observer: nopObserver{},
		allowed:  true,
		tracker:  press.NewTracker(opts.LongPressThreshold),
		shift:    shift.New(opts.StartMode),
	}
	if c, ok := p.(CapsModeProvider); ok {
		e.caps = c
	}
	e.SetOptions(opts)
	e.newSession()
	return e
}

// SetLogger replaces the logger.
func (e *Engine) SetLogger(l *logging.Logger) {
	e.base = l.WithComponent("ime")
	e.log = e.base.WithRequestID(e.sessionID)
}

// SetObserver replaces the activity observer. Nil disables observation.
func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
}

// SetOptions applies new settings. The composing buffer, shift state and
// keyboard mode are left as they are.
func (e *Engine) SetOptions(opts Options) {
	e.opts = opts
	e.tracker.SetThreshold(opts.LongPressThreshold)
	e.separators = make(map[rune]struct{}, len(opts.WordSeparators))
	for _, r := range opts.WordSeparators {
		e.separators[r] = struct{}{}
	}
}

// Options returns the current settings.
func (e *Engine) Options() Options { return e.opts }

// State reports whether text is being composed.
func (e *Engine) State() State {
	if e.buffer.IsEmpty() {
		return Idle
	}
	return Composing
}

// ComposingText returns the uncommitted text.
func (e *Engine) ComposingText() string { return e.buffer.String() }

// Mode returns the keyboard mode.
func (e *Engine) Mode() shift.Mode { return e.shift.Mode() }

// Shifted reports whether the next letter will be upper-cased.
func (e *Engine) Shifted() bool { return e.shift.Shifted() }

// Layout returns the active character table.
func (e *Engine) Layout() shift.Layout { return shift.ActiveLayout(e.shift.Mode(), e.symbolsAlt) }

// Prediction reports whether letters currently go to the composing buffer.
func (e *Engine) Prediction() bool { return e.opts.PredictionEnabled && e.allowed }

// SessionID identifies the current editing session in logs.
func (e *Engine) SessionID() string { return e.sessionID }

// IsWordSeparator reports whether code ends a word.
func (e *Engine) IsWordSeparator(code keycode.KeyCode) bool {
	if code.IsControl() {
		return false
	}
	_, ok := e.separators[code.Rune()]
	return ok
}

// HandleEvent is the single entry point for platform input.
func (e *Engine) HandleEvent(ev Event) {
	switch ev.Kind {
	case EventPress:
		e.tracker.OnPress(ev.Code, ev.TimeMs)
	case EventRelease:
		e.handleRelease(ev.Code, ev.TimeMs)
	case EventCursorContext:
		e.setCaps(ev.CapsHint)
	case EventFocusChange:
		e.handleFocusChange()
	case EventText:
		e.handleText(ev.Text)
	case EventGesture:
		e.handleGesture(ev.Gesture)
	case EventStartInput:
		e.handleStartInput(ev.Editor)
	default:
		e.log.Debug("unknown event", "event", ev.Kind.String())
	}
}

// OnPress records the start of a key press.
func (e *Engine) OnPress(code keycode.KeyCode, nowMs int64) {
	e.HandleEvent(Event{Kind: EventPress, Code: code, TimeMs: nowMs})
}

// OnRelease finishes a key press and acts on it.
func (e *Engine) OnRelease(code keycode.KeyCode, nowMs int64) {
	e.HandleEvent(Event{Kind: EventRelease, Code: code, TimeMs: nowMs})
}

// OnCursorContextChanged applies the editor's auto-capitalisation hint.
func (e *Engine) OnCursorContextChanged(capsHint bool) {
	e.HandleEvent(Event{Kind: EventCursorContext, CapsHint: capsHint})
}

// OnFocusOrSelectionChanged abandons composing after the editor moved
// the cursor or focus elsewhere.
func (e *Engine) OnFocusOrSelectionChanged() {
	e.HandleEvent(Event{Kind: EventFocusChange})
}

// OnText commits literal text, such as a pasted string.
func (e *Engine) OnText(text string) {
	e.HandleEvent(Event{Kind: EventText, Text: text})
}

// OnGesture handles a swipe over the keyboard.
func (e *Engine) OnGesture(g Gesture) {
	e.HandleEvent(Event{Kind: EventGesture, Gesture: g})
}

// StartInput prepares for a new editor field.
func (e *Engine) StartInput(info EditorInfo) {
	e.HandleEvent(Event{Kind: EventStartInput, Editor: info})
}

func (e *Engine) handleRelease(code keycode.KeyCode, nowMs int64) {
	held := time.Duration(-1)
	if s, ok := e.tracker.Active(); ok && s.Code == code && nowMs >= s.StartMs {
		held = time.Duration(nowMs-s.StartMs) * time.Millisecond
	}

	kind, err := e.tracker.OnRelease(code, nowMs)
	if errors.Is(err, press.ErrNoActiveSession) {
		e.degrade(DegradeNoActiveSession, "code", code.String())
	}

	if code.IsControl() {
		e.handleControl(code)
		return
	}
	e.observer.KeyReleased(kind, held)

	effective := code
	if kind == press.Long {
		if sibling, ok := e.opts.Remap.Lookup(code); ok {
			effective = sibling
			e.log.Debug("long press", "code", code.String(), "sibling", sibling.String())
		}
	}

	consumeShift := e.shift.Shifted() && effective.IsAlphabetic()
	effective = e.shift.Apply(effective)
	if consumeShift && e.shift.Consume() {
		e.platform.SetShiftVisual(false)
	}

	if e.IsWordSeparator(effective) {
		e.flush(CommitSeparator)
		e.sendKey(effective)
		e.refreshCaps()
		return
	}
	e.handleCharacter(effective)
}

func (e *Engine) handleControl(code keycode.KeyCode) {
	switch code {
	case keycode.Delete:
		e.handleBackspace()
	case keycode.Shift:
		e.handleShift()
	case keycode.ModeChange:
		e.handleModeChange()
	case keycode.Cancel:
		e.handleClose()
	default:
		e.log.Debug("ignored control key", "key", code.String())
	}
}

func (e *Engine) handleCharacter(code keycode.KeyCode) {
	if e.Prediction() && code.IsAlphabetic() {
		e.buffer.Append(code.Rune())
		e.platform.UpdateComposingText(e.buffer.String())
		e.refreshCaps()
		return
	}
	// A direct commit would land inside the composing region, so finish
	// the word first.
	e.flush(CommitDirect)
	e.platform.CommitText(string(code.Rune()))
	e.observer.Committed(CommitDirect, 1)
}

// sendKey emits a separator. The return key and digits go out as raw key
// events so editors can react to them; everything else is committed text.
func (e *Engine) sendKey(code keycode.KeyCode) {
	if raw, ok := keycode.RawFor(code); ok {
		e.platform.SendRawKey(raw)
	} else {
		e.platform.CommitText(string(code.Rune()))
	}
	e.observer.Committed(CommitSeparator, 1)
}

func (e *Engine) handleBackspace() {
	if err := e.buffer.DeleteLast(); err != nil {
		e.degrade(DegradeEmptyBufferDelete, "error", err)
		e.platform.SendRawKey(keycode.RawDel)
	} else {
		e.platform.UpdateComposingText(e.buffer.String())
	}
	e.refreshCaps()
}

func (e *Engine) handleShift() {
	err := e.shift.Toggle()
	if err == nil {
		e.platform.SetShiftVisual(e.shift.Shifted())
		return
	}
	if errors.Is(err, shift.ErrInvalidModeTransition) {
		e.degrade(DegradeInvalidModeTransition)
	}
	e.symbolsAlt = !e.symbolsAlt
	e.shift.Reset()
	e.platform.SetKeyboardMode(e.Layout())
	e.platform.SetShiftVisual(false)
}

func (e *Engine) handleModeChange() {
	next := shift.Symbolic
	if e.shift.Mode() == shift.Symbolic {
		next = shift.Alphabetic
	}
	e.shift.SetMode(next)
	e.symbolsAlt = false
	e.platform.SetKeyboardMode(e.Layout())
	e.platform.SetShiftVisual(e.shift.Shifted())
	e.log.Debug("mode change", "mode", next.String())
	if next == shift.Alphabetic {
		e.refreshCaps()
	}
}

func (e *Engine) handleClose() {
	e.flush(CommitClose)
	e.platform.RequestHide()
}

func (e *Engine) handleFocusChange() {
	e.tracker.Reset()
	if e.buffer.IsEmpty() {
		return
	}
	e.buffer.Clear()
	e.platform.FinishComposingText()
	e.log.Debug("composing abandoned after focus or selection change")
}

func (e *Engine) handleText(text string) {
	e.flush(CommitText)
	if text != "" {
		e.platform.CommitText(text)
		e.observer.Committed(CommitText, len([]rune(text)))
	}
	e.refreshCaps()
}

func (e *Engine) handleGesture(g Gesture) {
	switch g {
	case SwipeLeft:
		e.handleBackspace()
	case SwipeDown:
		e.handleClose()
	}
}

func (e *Engine) handleStartInput(info EditorInfo) {
	p := profileFor(info)
	e.allowed = p.prediction
	e.buffer.Clear()
	e.tracker.Reset()
	e.symbolsAlt = false
	e.shift.SetMode(p.mode)
	e.shift.Reset()
	if p.mode == shift.Alphabetic {
		e.shift.SetFromCursorContext(info.CapsHint)
	}
	e.newSession()
	e.observer.SessionStarted()
	e.log.Debug("start input", "mode", p.mode.String(), "prediction", e.Prediction())
	e.platform.SetKeyboardMode(e.Layout())
	e.platform.SetShiftVisual(e.shift.Shifted())
}

// flush commits any composing text.
func (e *Engine) flush(reason string) {
	if e.buffer.IsEmpty() {
		return
	}
	n := e.buffer.Len()
	e.platform.CommitText(e.buffer.Commit())
	e.observer.Committed(reason, n)
}

// refreshCaps re-reads the editor's caps mode when the platform offers it.
func (e *Engine) refreshCaps() {
	if e.caps == nil || e.shift.Mode() != shift.Alphabetic {
		return
	}
	e.setCaps(e.caps.CursorCapsMode())
}

func (e *Engine) setCaps(hint bool) {
	before := e.shift.Shifted()
	e.shift.SetFromCursorContext(hint)
	if e.shift.Shifted() != before {
		e.platform.SetShiftVisual(e.shift.Shifted())
	}
}

func (e *Engine) degrade(kind string, args ...any) {
	e.observer.Degraded(kind)
	e.log.Debug("degraded", append([]any{"kind", kind}, args...)...)
}

func (e *Engine) newSession() {
	e.sessionID = uuid.NewString()
	e.log = e.base.WithRequestID(e.sessionID)
}
