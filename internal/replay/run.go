package replay

import (
	"context"
	"fmt"
	"strings"

	"keying/internal/config"
	"keying/internal/ime"
	"keying/internal/keycode"
	"keying/internal/logging"
)

// Result is what the engine did while running a script.
type Result struct {
	Name       string
	Transcript []string
	Committed  string
	Composing  string
	Layout     string
	Shifted    bool
}

// MismatchError reports a script whose expectations were not met.
type MismatchError struct {
	Script string
	Field  string
	Want   string
	Got    string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("replay %s: %s mismatch\nwant: %s\n got: %s", e.Script, e.Field, e.Want, e.Got)
}

// Runner replays scripts against a fresh engine each time.
type Runner struct {
	log      *logging.Logger
	observer ime.Observer
}

// NewRunner creates a Runner. A nil logger discards engine logs.
func NewRunner(log *logging.Logger) *Runner {
	if log == nil {
		log = logging.Discard()
	}
	return &Runner{log: log}
}

// SetObserver reports engine activity of every run to o.
func (r *Runner) SetObserver(o ime.Observer) { r.observer = o }

// Run executes s and returns the recorded instructions.
func (r *Runner) Run(ctx context.Context, s *Script) (*Result, error) {
	cfg := config.DefaultConfig()
	cfg.Keyboard = s.Keyboard
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("replay %s: %w", s.Name, err)
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", s.Name, err)
	}

	rec := &ime.Recorder{}
	e := ime.NewEngine(rec, opts)
	e.SetLogger(r.log)
	e.SetObserver(r.observer)

	var clock int64
	for i, step := range s.Steps {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		clock += step.Wait
		if err := apply(e, step, &clock); err != nil {
			return nil, fmt.Errorf("replay %s: step %d: %w", s.Name, i+1, err)
		}
	}

	r.log.Debug("replay finished", "script", s.Name, "steps", len(s.Steps), "instructions", len(rec.Instructions))
	return &Result{
		Name:       s.Name,
		Transcript: rec.Lines(),
		Committed:  rec.Committed(),
		Composing:  e.ComposingText(),
		Layout:     e.Layout().String(),
		Shifted:    e.Shifted(),
	}, nil
}

func apply(e *ime.Engine, step Step, clock *int64) error {
	hold := step.Hold
	if hold <= 0 {
		hold = DefaultHoldMs
	}
	tap := func(code keycode.KeyCode) {
		e.OnPress(code, *clock)
		*clock += hold
		e.OnRelease(code, *clock)
	}

	switch {
	case step.Press != "":
		code, err := keycode.Parse(step.Press)
		if err != nil {
			return err
		}
		e.OnPress(code, *clock)
	case step.Release != "":
		code, err := keycode.Parse(step.Release)
		if err != nil {
			return err
		}
		e.OnRelease(code, *clock)
	case step.Tap != "":
		code, err := keycode.Parse(step.Tap)
		if err != nil {
			return err
		}
		tap(code)
	case step.Type != "":
		for _, r := range step.Type {
			tap(keycode.FromRune(r))
		}
	case step.Caps != nil:
		e.OnCursorContextChanged(*step.Caps)
	case step.Focus:
		e.OnFocusOrSelectionChanged()
	case step.Text != nil:
		e.OnText(*step.Text)
	case step.Swipe != "":
		g, ok := ime.ParseGesture(step.Swipe)
		if !ok {
			return fmt.Errorf("unknown swipe %q", step.Swipe)
		}
		e.OnGesture(g)
	case step.Start != nil:
		info, err := step.Start.EditorInfo()
		if err != nil {
			return err
		}
		e.StartInput(info)
	default:
		return ErrBadStep
	}
	return nil
}

// Check compares the result with the script's expectations.
func (res *Result) Check(s *Script) error {
	if s.Expect != nil {
		want, got := strings.Join(s.Expect, "; "), strings.Join(res.Transcript, "; ")
		if want != got {
			return &MismatchError{Script: s.Name, Field: "transcript", Want: want, Got: got}
		}
	}
	if s.ExpectCommitted != nil && *s.ExpectCommitted != res.Committed {
		return &MismatchError{
			Script: s.Name,
			Field:  "committed text",
			Want:   fmt.Sprintf("%q", *s.ExpectCommitted),
			Got:    fmt.Sprintf("%q", res.Committed),
		}
	}
	return nil
}
