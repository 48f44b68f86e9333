// Package composing holds text the user has typed but not yet committed.
package composing

import "errors"

// ErrEmptyBufferDelete describes a delete on an empty buffer. The caller
// should fall back to deleting already-committed text.
var ErrEmptyBufferDelete = errors.New("composing: delete on empty buffer")

// Buffer is an append-only rune sequence with delete-last and clear.
// The zero value is an empty buffer ready to use.
type Buffer struct {
	runes []rune
}

// Append adds one character.
func (b *Buffer) Append(r rune) {
	b.runes = append(b.runes, r)
}

// DeleteLast removes the last character. On an empty buffer it returns
// ErrEmptyBufferDelete.
func (b *Buffer) DeleteLast() error {
	if len(b.runes) == 0 {
		return ErrEmptyBufferDelete
	}
	b.runes = b.runes[:len(b.runes)-1]
	return nil
}

// Commit returns the contents and empties the buffer.
// On an empty buffer it returns "".
func (b *Buffer) Commit() string {
	text := string(b.runes)
	b.runes = b.runes[:0]
	return text
}

// Clear discards the contents.
func (b *Buffer) Clear() {
	b.runes = b.runes[:0]
}

// IsEmpty reports whether nothing is being composed.
func (b *Buffer) IsEmpty() bool {
	return len(b.runes) == 0
}

// Len returns the number of characters.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// String returns the contents without clearing them.
func (b *Buffer) String() string {
	return string(b.runes)
}
