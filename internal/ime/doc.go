// Package ime is the input-interpretation core of the keying soft keyboard.
//
// # Architecture Overview
//
// A platform wrapper (Android InputMethodService via gomobile, IBus on
// Linux, or the replay tool) forwards raw key events to an Engine and
// renders whatever the Engine asks for through the Platform interface:
//
//	Key press/release → Engine → commit / compose / raw key / mode change
//
// The Engine never calls an editor API itself; every side effect is a
// Platform call, so the whole decision surface can be driven and observed
// in tests with a Recorder.
//
// # Data Flow
//
//	┌────────────────┐
//	│ Platform layer │  OnPress(code, t0) ... OnRelease(code, t1)
//	└───────┬────────┘
//	        ↓
//	┌────────────────┐     ┌─────────────────────────────────────────┐
//	│ Engine         │     │ 1. control code?  → dedicated handler   │
//	│                │────→│ 2. t1-t0 > threshold? → long-press      │
//	│ • press        │     │    sibling from the remap table         │
//	│ • remap        │     │ 3. shift applied to letters             │
//	│ • shift        │     │ 4. separator → flush, then emit         │
//	│ • composing    │     │ 5. letter + prediction → compose        │
//	└───────┬────────┘     │    otherwise commit directly            │
//	        ↓              └─────────────────────────────────────────┘
//	┌────────────────┐
//	│ Platform calls │  CommitText, UpdateComposingText, SendRawKey, ...
//	└────────────────┘
//
// # States
//
// The Engine is Idle while nothing is being composed and Composing while
// the composing buffer holds text. It returns to Idle on commit, on a
// separator flush, on close, and when the editor reports a focus or
// selection change.
//
// # Degradations
//
// Nothing here is fatal. A release with no matching press is treated as a
// short press, a delete with nothing composed becomes a raw DEL key for the
// editor, unknown codes pass through unchanged, and a shift toggle in
// symbol mode swaps the symbol table instead. Each case is logged at debug
// level and counted by the Observer.
//
// # Threading
//
// An Engine is driven from a single event thread and does no locking.
// Wrappers that receive events on several goroutines must serialize calls.
//
// # Mobile
//
// MobileEngine exposes the same surface with gomobile-compatible types:
//
//	gomobile bind -target=android -o keying.aar ./internal/ime
package ime
