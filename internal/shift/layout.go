package shift

// Layout is the character table currently shown to the user.
type Layout int

const (
	LayoutQwerty Layout = iota
	LayoutSymbols
	LayoutSymbolsShifted
)

func (l Layout) String() string {
	switch l {
	case LayoutSymbols:
		return "symbols"
	case LayoutSymbolsShifted:
		return "symbols_shifted"
	default:
		return "qwerty"
	}
}

// ActiveLayout maps a mode and the symbol-table flag to the active table.
// symbolsAlt is ignored in Alphabetic mode; letter case is carried by the
// shift flag, not by a separate table.
func ActiveLayout(mode Mode, symbolsAlt bool) Layout {
	if mode == Alphabetic {
		return LayoutQwerty
	}
	if symbolsAlt {
		return LayoutSymbolsShifted
	}
	return LayoutSymbols
}
