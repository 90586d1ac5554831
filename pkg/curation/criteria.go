package curation

import (
	"fmt"
	"strings"

	"mythos-curation-be/pkg/corpus"
)

// Criteria is the validated, normalized description of what a curated
// exhibition should match. Motif/theme order is preserved for display only;
// scoring treats them as sets.
type Criteria struct {
	Centuries []int    `json:"centuries"`
	Mood      string   `json:"mood"`
	Motifs    []string `json:"motifs"`
	Themes    []string `json:"themes"`
}

// UnderSpecified reports whether the criteria will match broadly: no motifs,
// no themes and a single century. Still valid, but callers may want to warn
// the user that results will be broad.
func (c Criteria) UnderSpecified() bool {
	return len(c.Motifs) == 0 && len(c.Themes) == 0 && len(c.Centuries) <= 1
}

// ValidationError is the typed failure of Validate. The raw object comes from
// a generative collaborator, so every shape defect maps to a ValidationError
// instead of a panic.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid criteria: %s %s", e.Field, e.Reason)
}

// Validator checks raw criteria objects against the corpus vocabulary and
// century bounds.
type Validator struct {
	minCentury int
	maxCentury int
}

// NewValidator builds a validator bound to the corpus's known century range.
func NewValidator(c *corpus.Corpus) *Validator {
	return &Validator{
		minCentury: c.MinCentury(),
		maxCentury: c.MaxCentury(),
	}
}

// Validate normalizes and validates a decoded, untyped criteria object.
// It never panics on malformed shapes; the input is untrusted by contract.
func (v *Validator) Validate(raw any) (*Criteria, *ValidationError) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationError{Field: "criteria", Reason: "is not an object"}
	}

	centuries, verr := v.parseCenturies(obj["centuries"])
	if verr != nil {
		return nil, verr
	}

	mood, verr := parseMood(obj["mood"])
	if verr != nil {
		return nil, verr
	}

	motifs, verr := parseTagList("motifs", obj["motifs"])
	if verr != nil {
		return nil, verr
	}
	themes, verr := parseTagList("themes", obj["themes"])
	if verr != nil {
		return nil, verr
	}

	return &Criteria{
		Centuries: centuries,
		Mood:      mood,
		Motifs:    motifs,
		Themes:    themes,
	}, nil
}

func (v *Validator) parseCenturies(raw any) ([]int, *ValidationError) {
	list, ok := raw.([]any)
	if !ok {
		return nil, &ValidationError{Field: "centuries", Reason: "is missing or not a list"}
	}
	if len(list) == 0 {
		return nil, &ValidationError{Field: "centuries", Reason: "is empty"}
	}

	centuries := make([]int, 0, len(list))
	seen := make(map[int]bool)
	for _, item := range list {
		// encoding/json decodes all numbers as float64
		f, ok := item.(float64)
		if !ok || f != float64(int(f)) {
			return nil, &ValidationError{Field: "centuries", Reason: fmt.Sprintf("contains non-integer value %v", item)}
		}
		c := int(f)
		if c < v.minCentury || c > v.maxCentury {
			return nil, &ValidationError{
				Field:  "centuries",
				Reason: fmt.Sprintf("value %d outside corpus range [%d, %d]", c, v.minCentury, v.maxCentury),
			}
		}
		if !seen[c] {
			seen[c] = true
			centuries = append(centuries, c)
		}
	}
	return centuries, nil
}

func parseMood(raw any) (string, *ValidationError) {
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", &ValidationError{Field: "mood", Reason: "is missing"}
	}
	mood := strings.ToLower(strings.TrimSpace(s))
	if !corpus.IsKnownMood(mood) {
		return "", &ValidationError{Field: "mood", Reason: fmt.Sprintf("%q is not in the mood vocabulary", mood)}
	}
	return mood, nil
}

// parseTagList coerces a tag list to lower-cased, trimmed, de-duplicated
// strings. An absent or empty list is valid: criteria may under-specify one
// dimension. Non-string entries are a shape defect.
func parseTagList(field string, raw any) ([]string, *ValidationError) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &ValidationError{Field: field, Reason: "is not a list"}
	}

	tags := make([]string, 0, len(list))
	seen := make(map[string]bool)
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, &ValidationError{Field: field, Reason: fmt.Sprintf("contains non-string value %v", item)}
		}
		tag := strings.ToLower(strings.TrimSpace(s))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags, nil
}
