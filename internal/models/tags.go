package models

import (
	"encoding/json"
	"strings"
)

// TagInput accepts the three wire encodings of a tag collection: a
// comma-separated string, a JSON array encoded as a string, or an actual
// array. The zero value means the field was absent from the request.
type TagInput struct {
	present bool
	values  []string
}

// TagsFromString builds a TagInput from a form value.
func TagsFromString(raw string) TagInput {
	return TagInput{present: true, values: ParseTags(raw)}
}

// TagsFromList builds a TagInput from an already-decoded list.
func TagsFromList(list []string) TagInput {
	return TagInput{present: true, values: NormalizeTags(list)}
}

// Present reports whether the field appeared in the request.
func (t TagInput) Present() bool { return t.present }

// Tags returns the canonical tag set.
func (t TagInput) Tags() []string {
	if t.values == nil {
		return []string{}
	}
	return t.values
}

// UnmarshalJSON decodes any of the accepted encodings. A shape that is
// neither a string nor a string array yields an empty set, not an error.
func (t *TagInput) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	t.present = true
	t.values = []string{}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.values = ParseTags(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		t.values = NormalizeTags(list)
	}
	return nil
}

// MarshalJSON emits the canonical array form.
func (t TagInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Tags())
}

// ParseTags turns a raw tag string into the canonical set. It accepts a
// comma-separated list or a JSON-encoded array; unparseable input yields
// an empty set rather than an error.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return []string{}
		}
		return NormalizeTags(list)
	}
	return NormalizeTags(strings.Split(raw, ","))
}

// NormalizeTags trims each tag, drops empties and deduplicates, keeping
// first-seen order.
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
