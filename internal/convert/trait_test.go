package convert

import (
	"errors"
	"testing"
	"time"

	"github.com/praneshkm/evconv/internal/config"
	"github.com/praneshkm/evconv/internal/event"
	"github.com/praneshkm/evconv/internal/notification"
)

func testNotification() notification.Body {
	return notification.Body{
		"event_type":   "test.thing",
		"message_id":   "uuid-for-notif-0001",
		"publisher_id": "compute.host-1-2-3",
		"timestamp":    "2013-08-08 21:06:37.803826",
		"payload": map[string]interface{}{
			"instance_uuid":  "uuid-for-instance-0001",
			"instance_id":    "id-for-instance-0001",
			"instance_uuid2": nil,
			"instance_id2":   nil,
			"host":           "host-1-2-3",
			"image_meta": map[string]interface{}{
				"disk_gb": "20",
				"thing":   "whatzit",
			},
			"foobar": float64(50),
		},
	}
}

func text(fields ...string) config.TraitDef {
	return config.TraitDef{Type: "text", Fields: fields}
}

func TestTraitSpec_Extract(t *testing.T) {
	body := testNotification()

	cases := []struct {
		name string
		def  config.TraitDef
		want interface{} // nil means the trait must be omitted
	}{
		{
			name: "single field",
			def:  text("payload.instance_id"),
			want: "id-for-instance-0001",
		},
		{
			name: "first alternative wins",
			def:  text("payload.instance_id", "payload.instance_uuid"),
			want: "id-for-instance-0001",
		},
		{
			name: "alternatives at different nesting",
			def:  text("payload.host", "publisher_id"),
			want: "host-1-2-3",
		},
		{
			name: "null first alternative falls through",
			def:  text("payload.instance_id2", "payload.instance_uuid"),
			want: "uuid-for-instance-0001",
		},
		{
			name: "missing first alternative falls through",
			def:  text("payload.nothere", "payload.instance_uuid"),
			want: "uuid-for-instance-0001",
		},
		{
			name: "all missing yields no trait",
			def:  text("payload.nothere"),
			want: nil,
		},
		{
			name: "all null yields no trait",
			def:  text("payload.instance_id2", "payload.instance_uuid2"),
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := NewTraitSpec("test_trait", tc.def)
			if err != nil {
				t.Fatalf("NewTraitSpec error: %v", err)
			}
			got, err := spec.Extract(body)
			if err != nil {
				t.Fatalf("Extract error: %v", err)
			}
			if tc.want == nil {
				if got != nil {
					t.Fatalf("Extract() = %+v, want omitted trait", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Extract() = nil, want a trait")
			}
			if got.Name != "test_trait" || got.Value != tc.want {
				t.Errorf("Extract() = %+v, want value %v", got, tc.want)
			}
		})
	}
}

func TestTraitSpec_Coercion(t *testing.T) {
	body := notification.Body{
		"payload": map[string]interface{}{
			"str_int":   "10",
			"num":       float64(10),
			"str_float": "10.5",
			"when":      "2013-08-08 21:05:37.123456",
			"bogus":     "not a number",
		},
	}

	cases := []struct {
		name     string
		typ      string
		field    string
		want     interface{}
		wantType event.TraitType
	}{
		{"int from string", "int", "payload.str_int", int64(10), event.IntType},
		{"int from number", "int", "payload.num", int64(10), event.IntType},
		{"float from string", "float", "payload.str_int", float64(10), event.FloatType},
		{"float with fraction", "float", "payload.str_float", float64(10.5), event.FloatType},
		{"text from number", "text", "payload.num", "10", event.TextType},
		{"default type is text", "", "payload.str_int", "10", event.TextType},
		{
			"datetime normalized to UTC", "datetime", "payload.when",
			time.Date(2013, 8, 8, 21, 5, 37, 123456000, time.UTC), event.DatetimeType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := NewTraitSpec("t", config.TraitDef{Type: tc.typ, Fields: config.StringList{tc.field}})
			if err != nil {
				t.Fatalf("NewTraitSpec error: %v", err)
			}
			got, err := spec.Extract(body)
			if err != nil {
				t.Fatalf("Extract error: %v", err)
			}
			if got == nil {
				t.Fatal("Extract() = nil, want a trait")
			}
			if got.Type != tc.wantType {
				t.Errorf("trait type = %v, want %v", got.Type, tc.wantType)
			}
			if got.Value != tc.want {
				t.Errorf("trait value = %#v, want %#v", got.Value, tc.want)
			}
		})
	}
}

func TestTraitSpec_CoercionFailure(t *testing.T) {
	body := notification.Body{
		"payload": map[string]interface{}{"bogus": "not a number"},
	}
	for _, typ := range []string{"int", "float", "datetime"} {
		t.Run(typ, func(t *testing.T) {
			spec, err := NewTraitSpec("t", config.TraitDef{Type: typ, Fields: config.StringList{"payload.bogus"}})
			if err != nil {
				t.Fatalf("NewTraitSpec error: %v", err)
			}
			_, err = spec.Extract(body)
			var cerr *ConversionError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *ConversionError, got %v", err)
			}
			if cerr.Trait != "t" {
				t.Errorf("ConversionError.Trait = %q, want %q", cerr.Trait, "t")
			}
		})
	}
}

// The first non-null hit is final: a coercion failure never falls back to a
// later alternative that would have parsed.
func TestTraitSpec_NoCoercionFallback(t *testing.T) {
	body := notification.Body{
		"payload": map[string]interface{}{
			"bad":  "not a number",
			"good": "42",
		},
	}
	spec, err := NewTraitSpec("t", config.TraitDef{
		Type:   "int",
		Fields: config.StringList{"payload.bad", "payload.good"},
	})
	if err != nil {
		t.Fatalf("NewTraitSpec error: %v", err)
	}
	if _, err := spec.Extract(body); err == nil {
		t.Error("expected ConversionError, got nil")
	}
}

func TestNewTraitSpec_DefinitionErrors(t *testing.T) {
	cases := []struct {
		name string
		def  config.TraitDef
	}{
		{"missing fields", config.TraitDef{Type: "text"}},
		{"invalid type", config.TraitDef{Type: "bogus", Fields: config.StringList{"payload.host"}}},
		{"bad path expression", config.TraitDef{Type: "text", Fields: config.StringList{"payload["}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTraitSpec("bad_trait", tc.def)
			var derr *DefinitionError
			if !errors.As(err, &derr) {
				t.Fatalf("expected *DefinitionError, got %v", err)
			}
		})
	}
}
