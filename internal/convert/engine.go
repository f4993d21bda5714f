// Package convert implements the notification-to-event conversion engine: an
// ordered rule table that classifies notifications by glob pattern, extracts
// named typed traits through compiled path queries, and produces immutable
// event records.
package convert

import (
	"fmt"

	"github.com/praneshkm/evconv/internal/config"
	"github.com/praneshkm/evconv/internal/event"
	"github.com/praneshkm/evconv/internal/notification"
)

// Engine holds the ordered rule table. It is immutable once built and safe
// for unlimited concurrent Convert calls; each call allocates an independent
// event and performs no I/O.
type Engine struct {
	rules []*Rule
}

// NewEngine builds each definition into a Rule, preserving declaration order.
// When dropUnmatched is false and no declared definition is a catch-all, a
// synthesized catch-all with only the default traits is appended, so every
// notification converts to at least a minimal event.
func NewEngine(defs []config.EventDef, dropUnmatched bool) (*Engine, error) {
	e := &Engine{rules: make([]*Rule, 0, len(defs))}
	catchall := false
	for i, def := range defs {
		rule, err := NewRule(def)
		if err != nil {
			return nil, fmt.Errorf("definitions[%d]: %w", i, err)
		}
		e.rules = append(e.rules, rule)
		catchall = catchall || rule.Matcher().IsCatchAll()
	}
	if !dropUnmatched && !catchall {
		rule, err := NewRule(config.EventDef{
			EventType: config.StringList{"*"},
			Traits:    map[string]config.TraitDef{},
		})
		if err != nil {
			return nil, err
		}
		e.rules = append(e.rules, rule)
	}
	return e, nil
}

// RuleCount returns the number of rules in the table, including any
// synthesized catch-all.
func (e *Engine) RuleCount() int { return len(e.rules) }

// Convert classifies body against the rule table and produces an event from
// the FIRST rule whose patterns accept the notification's event type. A nil,
// nil return means no rule matched: the notification is dropped by policy,
// and the caller is expected to log that decision.
func (e *Engine) Convert(body notification.Body) (*event.Event, error) {
	eventType := body.EventType()
	if eventType == "" {
		return nil, fmt.Errorf("notification has no event_type")
	}
	if body.MessageID() == "" {
		return nil, fmt.Errorf("notification %s has no message_id", eventType)
	}
	for _, rule := range e.rules {
		if rule.Matcher().Matches(eventType) {
			return rule.ToEvent(body)
		}
	}
	return nil, nil
}
