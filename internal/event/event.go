package event

import (
	"fmt"
	"time"
)

// Event is the normalized output record produced from one notification.
type Event struct {
	Type      string    `json:"event_type"`
	Generated time.Time `json:"generated"`
	Traits    []Trait   `json:"traits"`
}

// Trait is one named, typed scalar fact extracted from a notification payload.
type Trait struct {
	Name  string      `json:"name"`
	Type  TraitType   `json:"type"`
	Value interface{} `json:"value"`
}

// Trait returns the trait with the given name, or nil if the event does not
// carry it. Trait names are unique within one event.
func (e *Event) Trait(name string) *Trait {
	for i := range e.Traits {
		if e.Traits[i].Name == name {
			return &e.Traits[i]
		}
	}
	return nil
}

// TraitType discriminates the four value kinds a trait may carry.
type TraitType int

const (
	TextType TraitType = iota
	IntType
	FloatType
	DatetimeType
)

var traitTypeNames = map[TraitType]string{
	TextType:     "text",
	IntType:      "int",
	FloatType:    "float",
	DatetimeType: "datetime",
}

var traitTypesByName = map[string]TraitType{
	"text":     TextType,
	"int":      IntType,
	"float":    FloatType,
	"datetime": DatetimeType,
}

// ParseTraitType resolves a declared type string to its TraitType.
// The second return value is false for unrecognized names.
func ParseTraitType(name string) (TraitType, bool) {
	t, ok := traitTypesByName[name]
	return t, ok
}

func (t TraitType) String() string {
	if name, ok := traitTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TraitType(%d)", int(t))
}

// MarshalJSON renders the type as its declared name ("text", "int", …).
func (t TraitType) MarshalJSON() ([]byte, error) {
	name, ok := traitTypeNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown trait type %d", int(t))
	}
	return []byte(`"` + name + `"`), nil
}
