package ime

import "keying/internal/shift"

// InputClass is the broad kind of text an editor field holds.
type InputClass int

const (
	ClassText InputClass = iota
	ClassNumber
	ClassDatetime
	ClassPhone
	ClassOther
)

// Variation refines ClassText.
type Variation int

const (
	VariationNormal Variation = iota
	VariationPassword
	VariationVisiblePassword
	VariationEmail
	VariationURI
	VariationFilter
)

// EditorInfo describes the field that input is starting in.
type EditorInfo struct {
	Class        InputClass
	Variation    Variation
	AutoComplete bool
	CapsHint     bool
}

// profile is the keyboard setup an editor field asks for.
type profile struct {
	mode       shift.Mode
	prediction bool
}

// profileFor maps a field description to a starting mode and whether
// composing may be used. Numbers, dates and phone numbers start on the
// symbol table. Composing is only allowed for ordinary text: passwords,
// addresses, filters and fields with their own completions commit
// directly.
func profileFor(info EditorInfo) profile {
	switch info.Class {
	case ClassNumber, ClassDatetime, ClassPhone:
		return profile{mode: shift.Symbolic}
	case ClassText:
		p := profile{mode: shift.Alphabetic, prediction: true}
		switch info.Variation {
		case VariationPassword, VariationVisiblePassword, VariationEmail, VariationURI, VariationFilter:
			p.prediction = false
		}
		if info.AutoComplete {
			p.prediction = false
		}
		return p
	default:
		return profile{mode: shift.Alphabetic}
	}
}

// Android EditorInfo.inputType bits.
const (
	androidMaskClass        = 0x0000000f
	androidMaskVariation    = 0x00000ff0
	androidClassText        = 0x01
	androidClassNumber      = 0x02
	androidClassPhone       = 0x03
	androidClassDatetime    = 0x04
	androidVarURI           = 0x10
	androidVarEmail         = 0x20
	androidVarPassword      = 0x80
	androidVarVisiblePass   = 0x90
	androidVarFilter        = 0xb0
	androidVarWebEmail      = 0xd0
	androidVarWebPassword   = 0xe0
	androidFlagAutoComplete = 0x00010000
)

// EditorInfoFromInputType decodes an Android inputType bit field.
func EditorInfoFromInputType(inputType int32, capsHint bool) EditorInfo {
	info := EditorInfo{CapsHint: capsHint}
	switch inputType & androidMaskClass {
	case androidClassText:
		info.Class = ClassText
	case androidClassNumber:
		info.Class = ClassNumber
	case androidClassPhone:
		info.Class = ClassPhone
	case androidClassDatetime:
		info.Class = ClassDatetime
	default:
		info.Class = ClassOther
	}
	if info.Class != ClassText {
		return info
	}
	switch inputType & androidMaskVariation {
	case androidVarPassword, androidVarWebPassword:
		info.Variation = VariationPassword
	case androidVarVisiblePass:
		info.Variation = VariationVisiblePassword
	case androidVarEmail, androidVarWebEmail:
		info.Variation = VariationEmail
	case androidVarURI:
		info.Variation = VariationURI
	case androidVarFilter:
		info.Variation = VariationFilter
	}
	info.AutoComplete = inputType&androidFlagAutoComplete != 0
	return info
}
