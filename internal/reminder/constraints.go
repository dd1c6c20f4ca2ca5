package reminder

import (
	"encoding/json"
	"fmt"
)

// SubjectRule says whether a subject line is required, forbidden or irrelevant.
type SubjectRule string

const (
	SubjectNotApplicable SubjectRule = "n/a"
	SubjectRequired      SubjectRule = "required"
	SubjectForbidden     SubjectRule = "forbidden"
)

// UnmarshalJSON accepts the rule names as well as true/false/null, which some
// rule services use for required/forbidden/not applicable.
func (r *SubjectRule) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err == nil {
		switch {
		case b == nil:
			*r = SubjectNotApplicable
		case *b:
			*r = SubjectRequired
		default:
			*r = SubjectForbidden
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding subject rule: %w", err)
	}
	switch SubjectRule(s) {
	case SubjectRequired, SubjectForbidden, SubjectNotApplicable:
		*r = SubjectRule(s)
	case "":
		*r = SubjectNotApplicable
	default:
		return fmt.Errorf("unknown subject rule %q", s)
	}
	return nil
}

// Constraints are the structural rules a channel imposes on message content.
type Constraints struct {
	Channel          Channel     `json:"channel" yaml:"-"`
	MinLength        int         `json:"min_length" yaml:"min_length"`
	MaxLength        int         `json:"max_length" yaml:"max_length"`
	OptimalLength    int         `json:"optimal_length,omitempty" yaml:"optimal_length"`
	Subject          SubjectRule `json:"subject" yaml:"subject"`
	HTMLAllowed      bool        `json:"html_allowed" yaml:"html_allowed"`
	EmojisAllowed    bool        `json:"emojis_allowed" yaml:"emojis_allowed"`
	RecommendedLevel Level       `json:"recommended_level,omitempty" yaml:"-"`
}

// Validate checks the internal consistency of the record.
func (c *Constraints) Validate() error {
	if c.MinLength < 0 || c.MaxLength < 0 {
		return fmt.Errorf("length bounds must be >= 0")
	}
	if c.MinLength > 0 && c.MaxLength > 0 && c.MinLength > c.MaxLength {
		return fmt.Errorf("min_length %d exceeds max_length %d", c.MinLength, c.MaxLength)
	}
	return nil
}

// Summary returns the short badges describing the constraints, in display order.
func (c *Constraints) Summary() []string {
	if c == nil {
		return nil
	}
	var out []string
	if c.MinLength > 0 && c.MaxLength > 0 {
		out = append(out, fmt.Sprintf("Length %d-%d chars", c.MinLength, c.MaxLength))
	} else if c.MaxLength > 0 {
		out = append(out, fmt.Sprintf("Max %d chars", c.MaxLength))
	}
	switch c.Subject {
	case SubjectRequired:
		out = append(out, "Subject required")
	case SubjectForbidden:
		out = append(out, "No subject")
	}
	if c.HTMLAllowed {
		out = append(out, "HTML allowed")
	} else {
		out = append(out, "Plain text")
	}
	if !c.EmojisAllowed {
		out = append(out, "No emojis")
	}
	return out
}
