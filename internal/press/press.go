// Package press classifies key releases as short or long presses.
package press

import (
	"errors"
	"time"

	"keying/internal/keycode"
)

// DefaultThreshold is the long-press threshold used when none is configured.
const DefaultThreshold = 150 * time.Millisecond

// ErrNoActiveSession is returned for a release with no matching press.
var ErrNoActiveSession = errors.New("press: release without matching press")

// Kind is the press classification.
type Kind int

const (
	Short Kind = iota
	Long
)

func (k Kind) String() string {
	if k == Long {
		return "long"
	}
	return "short"
}

// Session is one press awaiting its release.
type Session struct {
	Code    keycode.KeyCode
	StartMs int64
}

// Classify returns Long when the press lasted strictly longer than threshold.
// A release timestamp earlier than the press counts as Short.
func Classify(s Session, releaseMs int64, threshold time.Duration) Kind {
	if time.Duration(releaseMs-s.StartMs)*time.Millisecond > threshold {
		return Long
	}
	return Short
}

// Tracker holds at most one live session. Concurrent presses are not
// modelled: a new press replaces any stale session.
type Tracker struct {
	threshold time.Duration
	session   *Session
}

// NewTracker returns a tracker. A non-positive threshold selects
// DefaultThreshold.
func NewTracker(threshold time.Duration) *Tracker {
	t := &Tracker{}
	t.SetThreshold(threshold)
	return t
}

// Threshold returns the long-press threshold.
func (t *Tracker) Threshold() time.Duration { return t.threshold }

// SetThreshold changes the threshold for future releases.
func (t *Tracker) SetThreshold(threshold time.Duration) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	t.threshold = threshold
}

// OnPress starts a session for code, replacing any previous one.
func (t *Tracker) OnPress(code keycode.KeyCode, nowMs int64) {
	t.session = &Session{Code: code, StartMs: nowMs}
}

// OnRelease consumes the session for code and classifies it. With no live
// session, or one for a different key, it returns Short and
// ErrNoActiveSession and leaves any live session in place.
func (t *Tracker) OnRelease(code keycode.KeyCode, nowMs int64) (Kind, error) {
	s := t.session
	if s == nil || s.Code != code {
		return Short, ErrNoActiveSession
	}
	t.session = nil
	return Classify(*s, nowMs, t.threshold), nil
}

// Active returns the live session, if any.
func (t *Tracker) Active() (Session, bool) {
	if t.session == nil {
		return Session{}, false
	}
	return *t.session, true
}

// Reset drops any live session.
func (t *Tracker) Reset() {
	t.session = nil
}
