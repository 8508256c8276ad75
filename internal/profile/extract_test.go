package profile

import (
	"reflect"
	"testing"
)

func TestResolveName(t *testing.T) {
	tests := []struct {
		name     string
		userData map[string]any
		want     string
		wantOK   bool
	}{
		{"top level", map[string]any{"name": "Alex"}, "Alex", true},
		{"nested responses", map[string]any{"responses": map[string]any{"name": "Sam"}}, "Sam", true},
		{"top level wins", map[string]any{"name": "Alex", "responses": map[string]any{"name": "Sam"}}, "Alex", true},
		{"missing", map[string]any{}, "", false},
		{"empty string", map[string]any{"name": ""}, "", false},
		{"wrong type", map[string]any{"name": 42}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveName(tt.userData)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ResolveName(%v) = (%q, %v), want (%q, %v)", tt.userData, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFromUserData_Defaults(t *testing.T) {
	p := FromUserData(map[string]any{})

	if p.Name != "Your Reflection" {
		t.Errorf("Name = %q, want %q", p.Name, "Your Reflection")
	}
	if !reflect.DeepEqual(p.PersonalityTraits, []string{"thoughtful", "growth-oriented"}) {
		t.Errorf("PersonalityTraits = %v", p.PersonalityTraits)
	}
	if p.CommunicationStyle != "warm and encouraging" {
		t.Errorf("CommunicationStyle = %q", p.CommunicationStyle)
	}
	if !reflect.DeepEqual(p.Interests, []string{"personal growth", "wellbeing"}) {
		t.Errorf("Interests = %v", p.Interests)
	}
	if p.SupportStyle != "empathetic listener" {
		t.Errorf("SupportStyle = %q", p.SupportStyle)
	}
	if !reflect.DeepEqual(p.Goals, []string{"continuous improvement"}) {
		t.Errorf("Goals = %v", p.Goals)
	}
	if p.WritingSample != "" {
		t.Errorf("WritingSample = %q, want empty", p.WritingSample)
	}
}

func TestFromUserData_CommaSeparatedInterests(t *testing.T) {
	p := FromUserData(map[string]any{
		"name":      "Alex",
		"interests": "reading, hiking, cooking",
	})

	want := []string{"reading", "hiking", "cooking"}
	if !reflect.DeepEqual(p.Interests, want) {
		t.Errorf("Interests = %v, want %v", p.Interests, want)
	}
	// Traits were not supplied, so the fixed default applies.
	if !reflect.DeepEqual(p.PersonalityTraits, []string{"thoughtful", "growth-oriented"}) {
		t.Errorf("PersonalityTraits = %v", p.PersonalityTraits)
	}
}

func TestFromUserData_CommaSplitDropsEmptySegments(t *testing.T) {
	p := FromUserData(map[string]any{"goals": "run a marathon, , write more,"})

	want := []string{"run a marathon", "write more"}
	if !reflect.DeepEqual(p.Goals, want) {
		t.Errorf("Goals = %v, want %v", p.Goals, want)
	}
}

func TestFromUserData_EmptyStringTreatedAsAbsent(t *testing.T) {
	// An explicit empty string counts as absent, so the default applies.
	p := FromUserData(map[string]any{"interests": ""})
	if !reflect.DeepEqual(p.Interests, []string{"personal growth", "wellbeing"}) {
		t.Errorf("Interests = %v, want defaults", p.Interests)
	}
}

func TestFromUserData_EmptyStringFallsThroughToNested(t *testing.T) {
	p := FromUserData(map[string]any{
		"interests": "",
		"goals":     "",
		"responses": map[string]any{
			"interests": "chess,go",
			"goals":     "",
		},
	})

	if !reflect.DeepEqual(p.Interests, []string{"chess", "go"}) {
		t.Errorf("Interests = %v, want nested values", p.Interests)
	}
	// Nested value is empty too, so the default still applies.
	if !reflect.DeepEqual(p.Goals, []string{"continuous improvement"}) {
		t.Errorf("Goals = %v, want defaults", p.Goals)
	}
}

func TestFromUserData_SeparatorOnlyStringYieldsEmptyList(t *testing.T) {
	// A non-empty string takes the comma-split path even when every
	// segment is blank.
	p := FromUserData(map[string]any{"interests": " , ,"})
	if len(p.Interests) != 0 {
		t.Errorf("Interests = %v, want empty", p.Interests)
	}
}

func TestFromUserData_SequenceFields(t *testing.T) {
	p := FromUserData(map[string]any{
		"personalityTraits": []any{"curious", "calm"},
		"interests":         []any{"music"},
		"goals":             []string{"rest"},
	})

	if !reflect.DeepEqual(p.PersonalityTraits, []string{"curious", "calm"}) {
		t.Errorf("PersonalityTraits = %v", p.PersonalityTraits)
	}
	if !reflect.DeepEqual(p.Interests, []string{"music"}) {
		t.Errorf("Interests = %v", p.Interests)
	}
	if !reflect.DeepEqual(p.Goals, []string{"rest"}) {
		t.Errorf("Goals = %v", p.Goals)
	}
}

func TestFromUserData_NonSequenceTraitsFallBack(t *testing.T) {
	p := FromUserData(map[string]any{"personalityTraits": "curious"})
	if !reflect.DeepEqual(p.PersonalityTraits, []string{"thoughtful", "growth-oriented"}) {
		t.Errorf("PersonalityTraits = %v, want defaults", p.PersonalityTraits)
	}
}

func TestFromUserData_NestedResponses(t *testing.T) {
	p := FromUserData(map[string]any{
		"responses": map[string]any{
			"name":                "Sam",
			"communication_style": "direct",
			"support_style":       "tough love",
			"writing_sample":      "Dear diary...",
			"interests":           "chess,go",
		},
	})

	if p.Name != "Sam" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.CommunicationStyle != "direct" {
		t.Errorf("CommunicationStyle = %q", p.CommunicationStyle)
	}
	if p.SupportStyle != "tough love" {
		t.Errorf("SupportStyle = %q", p.SupportStyle)
	}
	if p.WritingSample != "Dear diary..." {
		t.Errorf("WritingSample = %q", p.WritingSample)
	}
	if !reflect.DeepEqual(p.Interests, []string{"chess", "go"}) {
		t.Errorf("Interests = %v", p.Interests)
	}
}
