package convert

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/praneshkm/evconv/internal/config"
	"github.com/praneshkm/evconv/internal/event"
	"github.com/praneshkm/evconv/internal/notification"
)

// defaultTraits are attempted for every definition. A definition declaring a
// trait with the same name overrides the default in place.
var defaultTraits = []struct {
	name string
	def  config.TraitDef
}{
	{"message_id", config.TraitDef{Type: "text", Fields: config.StringList{"message_id"}}},
	{"service", config.TraitDef{Type: "text", Fields: config.StringList{"publisher_id"}}},
	{"request_id", config.TraitDef{Type: "text", Fields: config.StringList{"_context_request_id"}}},
	{"tenant_id", config.TraitDef{Type: "text", Fields: config.StringList{"_context_tenant"}}},
}

// Rule binds a TypeMatcher to an ordered set of trait extractors and turns a
// matching notification into an event. Immutable after construction.
type Rule struct {
	matcher *TypeMatcher
	traits  []*TraitSpec
}

// NewRule builds a Rule from one declarative event definition. Both the
// event_type and traits keys are required.
func NewRule(def config.EventDef) (*Rule, error) {
	if len(def.EventType) == 0 {
		return nil, &DefinitionError{Rule: "(unnamed)",
			Msg: `required key "event_type" not specified`}
	}
	name := strings.Join(def.EventType, ",")
	if def.Traits == nil {
		return nil, &DefinitionError{Rule: name,
			Msg: `required key "traits" not specified`}
	}

	matcher, err := NewTypeMatcher(def.EventType)
	if err != nil {
		return nil, err
	}
	r := &Rule{matcher: matcher}

	index := make(map[string]int)
	for _, dt := range defaultTraits {
		spec, err := NewTraitSpec(dt.name, dt.def)
		if err != nil {
			return nil, err
		}
		index[dt.name] = len(r.traits)
		r.traits = append(r.traits, spec)
	}

	// YAML mappings carry no order, so declared traits are added in sorted
	// name order for a deterministic extraction sequence.
	names := make([]string, 0, len(def.Traits))
	for tn := range def.Traits {
		names = append(names, tn)
	}
	sort.Strings(names)
	for _, tn := range names {
		spec, err := NewTraitSpec(tn, def.Traits[tn])
		if err != nil {
			return nil, fmt.Errorf("event_type %s: %w", name, err)
		}
		if i, ok := index[tn]; ok {
			r.traits[i] = spec
		} else {
			index[tn] = len(r.traits)
			r.traits = append(r.traits, spec)
		}
	}
	return r, nil
}

// Matcher returns the rule's type matcher.
func (r *Rule) Matcher() *TypeMatcher { return r.matcher }

// TraitNames returns the trait names this rule extracts, in extraction order.
func (r *Rule) TraitNames() []string {
	names := make([]string, len(r.traits))
	for i, t := range r.traits {
		names[i] = t.Name()
	}
	return names
}

// ToEvent converts a notification this rule matched into an event record.
// Traits whose source fields are absent or null are omitted entirely. A
// coercion failure propagates as a *ConversionError.
func (r *Rule) ToEvent(body notification.Body) (*event.Event, error) {
	when, err := extractWhen(body)
	if err != nil {
		return nil, err
	}
	traits := make([]event.Trait, 0, len(r.traits))
	for _, spec := range r.traits {
		trait, err := spec.Extract(body)
		if err != nil {
			return nil, err
		}
		if trait != nil {
			traits = append(traits, *trait)
		}
	}
	return &event.Event{
		Type:      body.EventType(),
		Generated: when,
		Traits:    traits,
	}, nil
}

// extractWhen computes the event's generation time: a top-level timestamp
// field wins, then _context_timestamp, then the current wall-clock time.
// Every notification envelope should carry a timestamp; the fallbacks cover
// producers that violate that.
func extractWhen(body notification.Body) (time.Time, error) {
	raw, ok := body["timestamp"]
	if !ok {
		raw = body["_context_timestamp"]
	}
	s, _ := raw.(string)
	if s == "" {
		return time.Now().UTC(), nil
	}
	when, err := parseTimestamp(s)
	if err != nil {
		return time.Time{}, &ConversionError{
			Trait: "timestamp", Type: event.DatetimeType, Value: raw, Err: err}
	}
	return when, nil
}
