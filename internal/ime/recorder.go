package ime

import (
	"fmt"
	"strings"

	"keying/internal/keycode"
	"keying/internal/shift"
)

// InstructionKind names a Platform call.
type InstructionKind int

const (
	InstrCommit InstructionKind = iota
	InstrCompose
	InstrFinishComposing
	InstrRawKey
	InstrKeyboardMode
	InstrShiftVisual
	InstrHide
)

// Instruction is one recorded Platform call.
type Instruction struct {
	Kind    InstructionKind
	Text    string
	Raw     keycode.Raw
	Layout  shift.Layout
	Shifted bool
}

// String renders the instruction as a single transcript line.
func (in Instruction) String() string {
	switch in.Kind {
	case InstrCommit:
		return fmt.Sprintf("commit %q", in.Text)
	case InstrCompose:
		return fmt.Sprintf("compose %q", in.Text)
	case InstrFinishComposing:
		return "finish-composing"
	case InstrRawKey:
		return "raw " + in.Raw.String()
	case InstrKeyboardMode:
		return "mode " + in.Layout.String()
	case InstrShiftVisual:
		return fmt.Sprintf("shift %t", in.Shifted)
	case InstrHide:
		return "hide"
	}
	return "unknown"
}

// Recorder is a Platform that records every call in order.
type Recorder struct {
	Instructions []Instruction
}

func (r *Recorder) add(in Instruction) { r.Instructions = append(r.Instructions, in) }

func (r *Recorder) CommitText(text string) {
	r.add(Instruction{Kind: InstrCommit, Text: text})
}

func (r *Recorder) UpdateComposingText(text string) {
	r.add(Instruction{Kind: InstrCompose, Text: text})
}

func (r *Recorder) FinishComposingText() {
	r.add(Instruction{Kind: InstrFinishComposing})
}

func (r *Recorder) SendRawKey(key keycode.Raw) {
	r.add(Instruction{Kind: InstrRawKey, Raw: key})
}

func (r *Recorder) SetKeyboardMode(layout shift.Layout) {
	r.add(Instruction{Kind: InstrKeyboardMode, Layout: layout})
}

func (r *Recorder) SetShiftVisual(shifted bool) {
	r.add(Instruction{Kind: InstrShiftVisual, Shifted: shifted})
}

func (r *Recorder) RequestHide() {
	r.add(Instruction{Kind: InstrHide})
}

// Take returns the recorded instructions and starts a new recording.
func (r *Recorder) Take() []Instruction {
	out := r.Instructions
	r.Instructions = nil
	return out
}

// Lines renders the recorded instructions, one per line.
func (r *Recorder) Lines() []string {
	lines := make([]string, len(r.Instructions))
	for i, in := range r.Instructions {
		lines[i] = in.String()
	}
	return lines
}

// Committed returns the concatenation of all committed text.
func (r *Recorder) Committed() string {
	var b strings.Builder
	for _, in := range r.Instructions {
		if in.Kind == InstrCommit {
			b.WriteString(in.Text)
		}
	}
	return b.String()
}
