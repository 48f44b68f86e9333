package ibus

import "github.com/godbus/dbus/v5"

// Text is the wire form of an IBusText, signature (sa{sv}sv).
type Text struct {
	Name        string
	Attachments map[string]dbus.Variant
	Text        string
	AttrList    dbus.Variant
}

// AttrList is the wire form of an IBusAttrList, signature (sa{sv}av).
type AttrList struct {
	Name        string
	Attachments map[string]dbus.Variant
	Attributes  []dbus.Variant
}

func newText(s string) Text {
	return Text{
		Name:        "IBusText",
		Attachments: map[string]dbus.Variant{},
		Text:        s,
		AttrList: dbus.MakeVariant(AttrList{
			Name:        "IBusAttrList",
			Attachments: map[string]dbus.Variant{},
			Attributes:  []dbus.Variant{},
		}),
	}
}

// textFromVariant extracts the string of an IBusText received from the bus.
// Structs arrive as []interface{} in field order.
func textFromVariant(v dbus.Variant) (string, bool) {
	switch t := v.Value().(type) {
	case string:
		return t, true
	case Text:
		return t.Text, true
	case []interface{}:
		if len(t) >= 3 {
			s, ok := t[2].(string)
			return s, ok
		}
	}
	return "", false
}
