// Package remap holds the long-press sibling table.
//
// A long press on a key whose code appears as a primary in the table
// produces the mapped sibling instead. The table is built once and never
// changes afterwards, so it is safe to share between engines.
package remap

import (
	"errors"
	"fmt"

	"keying/internal/keycode"
)

// DefaultMappings is the stock pair string: letter pairs from the top and
// middle rows followed by the symbol pairs of the numeric layout.
const DefaultMappings = "qwuiopasklzx'[\"]@#-_()`~$%:;^&/\\!|"

// ErrOddMapping is returned when a pair string has an unpaired trailing rune.
var ErrOddMapping = errors.New("remap: mapping string has an odd number of characters")

// Pair maps a primary key to its long-press sibling.
type Pair struct {
	Primary keycode.KeyCode
	Sibling keycode.KeyCode
}

// Table is an immutable primary -> sibling lookup.
type Table struct {
	siblings map[keycode.KeyCode]keycode.KeyCode
	pairs    []Pair
}

// New builds a table from pairs. When a primary appears more than once the
// first pair wins and later ones are ignored.
func New(pairs []Pair) *Table {
	t := &Table{
		siblings: make(map[keycode.KeyCode]keycode.KeyCode, len(pairs)),
		pairs:    make([]Pair, 0, len(pairs)),
	}
	for _, p := range pairs {
		if _, dup := t.siblings[p.Primary]; dup {
			continue
		}
		t.siblings[p.Primary] = p.Sibling
		t.pairs = append(t.pairs, p)
	}
	return t
}

// Parse builds a table from a pair string: runes at even offsets are
// primaries and the rune following each is its sibling. So "q'" maps q to an
// apostrophe. Siblings are never looked up as primaries.
func Parse(mappings string) (*Table, error) {
	runes := []rune(mappings)
	if len(runes)%2 != 0 {
		return nil, fmt.Errorf("%w: %d runes", ErrOddMapping, len(runes))
	}
	pairs := make([]Pair, 0, len(runes)/2)
	for i := 0; i < len(runes); i += 2 {
		pairs = append(pairs, Pair{
			Primary: keycode.FromRune(runes[i]),
			Sibling: keycode.FromRune(runes[i+1]),
		})
	}
	return New(pairs), nil
}

// Default returns the table for DefaultMappings.
func Default() *Table {
	t, err := Parse(DefaultMappings)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the sibling for primary, if one is mapped.
// Absence is a normal result, not an error.
func (t *Table) Lookup(primary keycode.KeyCode) (keycode.KeyCode, bool) {
	if t == nil {
		return 0, false
	}
	sibling, ok := t.siblings[primary]
	return sibling, ok
}

// Resolve returns the sibling for primary or primary itself.
func (t *Table) Resolve(primary keycode.KeyCode) keycode.KeyCode {
	if sibling, ok := t.Lookup(primary); ok {
		return sibling
	}
	return primary
}

// Len returns the number of effective pairs.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.pairs)
}

// Pairs returns a copy of the effective pairs in insertion order.
func (t *Table) Pairs() []Pair {
	if t == nil {
		return nil
	}
	out := make([]Pair, len(t.pairs))
	copy(out, t.pairs)
	return out
}
