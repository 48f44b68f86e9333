package ime

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keying/internal/keycode"
)

type fakeMobile struct {
	calls []string
	caps  bool
}

func (f *fakeMobile) CommitText(text string)          { f.calls = append(f.calls, "commit "+text) }
func (f *fakeMobile) UpdateComposingText(text string) { f.calls = append(f.calls, "compose "+text) }
func (f *fakeMobile) FinishComposingText()            { f.calls = append(f.calls, "finish") }
func (f *fakeMobile) SendRawKey(code int32)           { f.calls = append(f.calls, fmt.Sprintf("raw %d", code)) }
func (f *fakeMobile) SetKeyboardMode(layout string)   { f.calls = append(f.calls, "mode "+layout) }
func (f *fakeMobile) SetShiftVisual(shifted bool)     { f.calls = append(f.calls, fmt.Sprintf("shift %t", shifted)) }
func (f *fakeMobile) RequestHide()                    { f.calls = append(f.calls, "hide") }
func (f *fakeMobile) CursorCapsMode() bool            { return f.caps }

func TestMobileEngineTyping(t *testing.T) {
	p := &fakeMobile{}
	m, err := NewMobileEngine(p, 0, "", "", true)
	require.NoError(t, err)

	m.OnPress('h', 0)
	m.OnRelease('h', 10)
	m.OnPress('\n', 20)
	m.OnRelease('\n', 30)
	m.OnPress(int32(keycode.Delete), 40)
	m.OnRelease(int32(keycode.Delete), 50)

	assert.Equal(t, []string{"compose h", "commit h", "raw 66", "raw 67"}, p.calls)
}

func TestMobileEngineCustomSettings(t *testing.T) {
	p := &fakeMobile{}
	m, err := NewMobileEngine(p, 500, " ", "ab", false)
	require.NoError(t, err)

	m.OnPress('a', 0)
	m.OnRelease('a', 400)
	m.OnPress('a', 1000)
	m.OnRelease('a', 1600)

	assert.Equal(t, []string{"commit a", "commit b"}, p.calls)
}

func TestMobileEngineRejectsOddMappings(t *testing.T) {
	_, err := NewMobileEngine(&fakeMobile{}, 0, "", "abc", true)
	assert.Error(t, err)
}

func TestMobileEngineStartInputAndState(t *testing.T) {
	p := &fakeMobile{}
	m, err := NewMobileEngine(p, 0, "", "", true)
	require.NoError(t, err)

	m.StartInputType(0x02, false)
	assert.Equal(t, []string{"mode symbols", "shift false"}, p.calls)

	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(m.State()), &st))
	assert.Equal(t, "symbolic", st["mode"])
	assert.Equal(t, "symbols", st["layout"])
	assert.Equal(t, false, st["prediction"])
	assert.NotEmpty(t, st["session_id"])
}

func TestMobileEngineCapsAndSwipe(t *testing.T) {
	p := &fakeMobile{}
	m, err := NewMobileEngine(p, 0, "", "", true)
	require.NoError(t, err)

	m.OnText("Hi.")
	p.caps = true
	m.OnText(" ")
	m.OnSwipe("sideways")
	m.OnSwipe("down")

	assert.Equal(t, []string{"commit Hi.", "commit  ", "shift true", "hide"}, p.calls)
}

func TestMobileEngineSelectionUpdate(t *testing.T) {
	p := &fakeMobile{}
	m, err := NewMobileEngine(p, 0, "", "", true)
	require.NoError(t, err)

	m.OnPress('x', 0)
	m.OnRelease('x', 5)
	m.OnUpdateSelection()

	assert.Equal(t, []string{"compose x", "finish"}, p.calls)
}
