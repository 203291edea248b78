package formrun

// Browser backend names.
const (
	BrowserChromedp = "chromedp"
)

// FieldKind identifies how a field is driven.
type FieldKind string

// Field kinds.
const (
	KindText     FieldKind = "text"
	KindRadio    FieldKind = "radio"
	KindCheckbox FieldKind = "checkbox"
	KindSelect   FieldKind = "select"
	KindDate     FieldKind = "date"
	KindFile     FieldKind = "file"
)

// Valid reports whether k is a known field kind.
func (k FieldKind) Valid() bool {
	switch k {
	case KindText, KindRadio, KindCheckbox, KindSelect, KindDate, KindFile:
		return true
	default:
		return false
	}
}

// HasOptions reports whether fields of this kind carry a label → control mapping.
func (k FieldKind) HasOptions() bool {
	return k == KindRadio || k == KindCheckbox
}

// ActionKind names a scenario action verb.
type ActionKind string

// Action kinds.
const (
	ActionType         ActionKind = "type"
	ActionSelect       ActionKind = "select"
	ActionToggle       ActionKind = "toggle"
	ActionChoose       ActionKind = "choose"
	ActionPickDate     ActionKind = "pick-date"
	ActionUpload       ActionKind = "upload"
	ActionClickOutside ActionKind = "click-outside"
)

// KnownActions lists every action verb with the field kinds it accepts.
// A nil kind list means the action targets a surface rather than a field.
var KnownActions = map[ActionKind][]FieldKind{
	ActionType:         {KindText, KindDate},
	ActionSelect:       {KindRadio},
	ActionToggle:       {KindCheckbox},
	ActionChoose:       {KindSelect},
	ActionPickDate:     {KindDate},
	ActionUpload:       {KindFile},
	ActionClickOutside: nil,
}

// Flag names a field marker checked by the flagged outcome.
type Flag string

// Field flags.
const (
	FlagInvalid    Flag = "invalid"
	FlagErrorStyle Flag = "error-style"
	FlagErrorClass Flag = "error-class"
)

// Valid reports whether f is a known flag.
func (f Flag) Valid() bool {
	return f == FlagInvalid || f == FlagErrorStyle || f == FlagErrorClass
}

// Position is a point on an element's bounding box.
type Position string

// Positions accepted by click-outside.
const (
	TopLeft     Position = "top-left"
	Top         Position = "top"
	TopRight    Position = "top-right"
	Left        Position = "left"
	Right       Position = "right"
	BottomLeft  Position = "bottom-left"
	Bottom      Position = "bottom"
	BottomRight Position = "bottom-right"
)

// Valid reports whether p is a known position.
func (p Position) Valid() bool {
	switch p {
	case TopLeft, Top, TopRight, Left, Right, BottomLeft, Bottom, BottomRight:
		return true
	default:
		return false
	}
}

// SurfaceConfirmation is the surface every form must declare: the element that
// appears once a submission is accepted.
const SurfaceConfirmation = "confirmation"
