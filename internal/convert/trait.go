package convert

import (
	"fmt"
	"strconv"

	"github.com/praneshkm/evconv/internal/config"
	"github.com/praneshkm/evconv/internal/event"
	"github.com/praneshkm/evconv/internal/notification"
	"github.com/praneshkm/evconv/internal/pathquery"
)

// TraitSpec is one named, typed field extractor: a compiled path query plus
// the declared type its value is coerced to. Immutable after construction.
type TraitSpec struct {
	name  string
	typ   event.TraitType
	query *pathquery.Query
}

// NewTraitSpec builds a TraitSpec from its declarative definition. The
// declared type defaults to "text"; a missing fields key, an unrecognized
// type, or an unparsable path expression is a *DefinitionError.
func NewTraitSpec(name string, def config.TraitDef) (*TraitSpec, error) {
	if len(def.Fields) == 0 {
		return nil, &DefinitionError{Rule: name,
			Msg: `required key "fields" not specified`}
	}
	typeName := def.Type
	if typeName == "" {
		typeName = "text"
	}
	typ, ok := event.ParseTraitType(typeName)
	if !ok {
		return nil, &DefinitionError{Rule: name,
			Msg: fmt.Sprintf("invalid trait type %q", typeName)}
	}
	q, err := pathquery.Compile(def.Fields...)
	if err != nil {
		return nil, &DefinitionError{Rule: name,
			Msg: "parse error in fields specification", Err: err}
	}
	return &TraitSpec{name: name, typ: typ, query: q}, nil
}

// Name returns the trait name this extractor produces.
func (t *TraitSpec) Name() string { return t.name }

// Extract evaluates the compiled query against body and coerces the first
// non-null hit to the declared type. A nil, nil return means no field
// resolved and the trait is omitted from the event. The choice of value is
// final: a coercion failure is a *ConversionError, never a fallback to the
// next alternative.
func (t *TraitSpec) Extract(body notification.Body) (*event.Trait, error) {
	values := t.query.Evaluate(body)
	if len(values) == 0 {
		return nil, nil
	}
	value, err := coerce(t.typ, values[0])
	if err != nil {
		return nil, &ConversionError{Trait: t.name, Type: t.typ, Value: values[0], Err: err}
	}
	return &event.Trait{Name: t.name, Type: t.typ, Value: value}, nil
}

func coerce(typ event.TraitType, raw interface{}) (interface{}, error) {
	switch typ {
	case event.IntType:
		return coerceInt(raw)
	case event.FloatType:
		return coerceFloat(raw)
	case event.DatetimeType:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected an ISO-8601 string, got %T", raw)
		}
		return parseTimestamp(s)
	default:
		return stringify(raw), nil
	}
}

func coerceInt(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported value of type %T", raw)
	}
}

func coerceFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("unsupported value of type %T", raw)
	}
}

// stringify renders a raw value verbatim. JSON numbers decode as float64, so
// integral floats are formatted without a trailing ".0".
func stringify(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
