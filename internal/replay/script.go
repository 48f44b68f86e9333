// Package replay runs scripted key events through the input engine and
// records what it asks the editor to do.
//
// Scripts are YAML or JSON:
//
//	name: long press q
//	keyboard:
//	  long_press_threshold_ms: 150
//	steps:
//	  - type: "hi"
//	  - tap: q
//	    hold: 300
//	  - tap: SPACE
//	expect_committed: "hiw "
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"keying/internal/config"
	"keying/internal/ime"
)

// DefaultHoldMs is how long tap and type steps hold each key.
const DefaultHoldMs = 50

// ErrBadStep is returned for a step with no action or more than one.
var ErrBadStep = errors.New("replay: step must have exactly one action")

// Script is a named sequence of input steps.
type Script struct {
	Name string `yaml:"name" json:"name"`

	// Keyboard overrides engine settings. Omitted fields keep their defaults.
	Keyboard config.KeyboardConfig `yaml:"keyboard" json:"keyboard"`

	Steps []Step `yaml:"steps" json:"steps"`

	// Expect is the full instruction transcript, if checked.
	Expect []string `yaml:"expect,omitempty" json:"expect,omitempty"`

	// ExpectCommitted is the committed text, if checked.
	ExpectCommitted *string `yaml:"expect_committed,omitempty" json:"expect_committed,omitempty"`
}

// Step is one scripted input. Exactly one action field is set. Wait
// advances the clock before the action.
type Step struct {
	Press   string     `yaml:"press,omitempty" json:"press,omitempty"`
	Release string     `yaml:"release,omitempty" json:"release,omitempty"`
	Tap     string     `yaml:"tap,omitempty" json:"tap,omitempty"`
	Type    string     `yaml:"type,omitempty" json:"type,omitempty"`
	Caps    *bool      `yaml:"caps,omitempty" json:"caps,omitempty"`
	Focus   bool       `yaml:"focus,omitempty" json:"focus,omitempty"`
	Text    *string    `yaml:"text,omitempty" json:"text,omitempty"`
	Swipe   string     `yaml:"swipe,omitempty" json:"swipe,omitempty"`
	Start   *StartStep `yaml:"start,omitempty" json:"start,omitempty"`

	Hold int64 `yaml:"hold,omitempty" json:"hold,omitempty"`
	Wait int64 `yaml:"wait,omitempty" json:"wait,omitempty"`
}

// StartStep describes the editor field for a start step.
type StartStep struct {
	Class        string `yaml:"class" json:"class"`
	Variation    string `yaml:"variation,omitempty" json:"variation,omitempty"`
	AutoComplete bool   `yaml:"auto_complete,omitempty" json:"auto_complete,omitempty"`
	Caps         bool   `yaml:"caps,omitempty" json:"caps,omitempty"`
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Press != "", s.Release != "", s.Tap != "", s.Type != "",
		s.Caps != nil, s.Focus, s.Text != nil, s.Swipe != "", s.Start != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// EditorInfo converts the step to the engine's field description.
func (s StartStep) EditorInfo() (ime.EditorInfo, error) {
	info := ime.EditorInfo{AutoComplete: s.AutoComplete, CapsHint: s.Caps}
	switch strings.ToLower(s.Class) {
	case "", "text":
		info.Class = ime.ClassText
	case "number":
		info.Class = ime.ClassNumber
	case "datetime":
		info.Class = ime.ClassDatetime
	case "phone":
		info.Class = ime.ClassPhone
	case "other":
		info.Class = ime.ClassOther
	default:
		return info, fmt.Errorf("unknown input class %q", s.Class)
	}
	switch strings.ToLower(s.Variation) {
	case "", "normal":
		info.Variation = ime.VariationNormal
	case "password":
		info.Variation = ime.VariationPassword
	case "visible_password":
		info.Variation = ime.VariationVisiblePassword
	case "email":
		info.Variation = ime.VariationEmail
	case "uri":
		info.Variation = ime.VariationURI
	case "filter":
		info.Variation = ime.VariationFilter
	default:
		return info, fmt.Errorf("unknown variation %q", s.Variation)
	}
	return info, nil
}

// Parse decodes a script. JSON is detected by a leading brace; anything
// else is read as YAML.
func Parse(data []byte) (*Script, error) {
	s := &Script{Keyboard: config.DefaultConfig().Keyboard}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse JSON script: %w", err)
		}
	} else if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse YAML script: %w", err)
	}
	for i, step := range s.Steps {
		if step.actions() != 1 {
			return nil, fmt.Errorf("step %d: %w", i+1, ErrBadStep)
		}
	}
	return s, nil
}

// Load reads a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}
