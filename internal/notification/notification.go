// Package notification defines the inbound message model: a semi-structured
// body as deserialized from the wire (JSON object, nested maps/lists/scalars).
package notification

// Body is one deserialized notification message. The conversion core treats
// it as read-only input and never mutates it.
type Body map[string]interface{}

// EventType returns the notification's event_type, or "" if absent or not a
// string.
func (b Body) EventType() string {
	s, _ := b["event_type"].(string)
	return s
}

// MessageID returns the notification's message_id, or "" if absent or not a
// string.
func (b Body) MessageID() string {
	s, _ := b["message_id"].(string)
	return s
}
