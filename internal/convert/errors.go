package convert

import (
	"fmt"

	"github.com/praneshkm/evconv/internal/event"
)

// DefinitionError reports malformed declarative configuration: a missing
// required key, an unrecognized trait type, or an unparsable path expression.
// It is raised only while building the rule table and is fatal to startup;
// the service refuses to run with a partial table.
type DefinitionError struct {
	Rule string // identity of the offending definition or trait
	Msg  string
	Err  error // optional cause, e.g. a *pathquery.SyntaxError
}

func (e *DefinitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("event definition %s: %s: %v", e.Rule, e.Msg, e.Err)
	}
	return fmt.Sprintf("event definition %s: %s", e.Rule, e.Msg)
}

func (e *DefinitionError) Unwrap() error { return e.Err }

// ConversionError reports a resolved raw value that could not be coerced to
// its declared trait type. It is raised per-notification during Convert;
// callers should log and skip the offending message, not crash the stream.
type ConversionError struct {
	Trait string
	Type  event.TraitType
	Value interface{}
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("trait %s: cannot convert %v to %s: %v",
		e.Trait, e.Value, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
