package compare

import (
	"encoding/json"
	"strings"
)

// TextValue is the tagged form of a free-text field that may hold serialized
// nested data (troop breakdowns, reinforcement lists). Either Structured is
// set and the value compares by deep equality, or only Raw is set and the
// value compares as normalized text.
type TextValue struct {
	Raw        string
	Structured any
	structured bool
}

// ParseText attempts to decode s as JSON. Malformed input is never an error:
// the value simply stays raw.
func ParseText(s string) TextValue {
	tv := TextValue{Raw: s}

	trimmed := strings.TrimSpace(s)
	if len(trimmed) == 0 {
		return tv
	}
	// Only objects and arrays count as structured; a bare number or word is
	// ordinary text even though it is valid JSON.
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return tv
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return tv
	}
	tv.Structured = v
	tv.structured = true
	return tv
}

// IsStructured reports whether the text decoded as nested data.
func (t TextValue) IsStructured() bool { return t.structured }

// Normalized returns the raw text lower-cased, trimmed, with internal
// whitespace collapsed to single spaces.
func (t TextValue) Normalized() string { return normalizeText(t.Raw) }

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
