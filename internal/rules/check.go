package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mark3labs/remindr/internal/reminder"
)

// Result is the outcome of checking a message against channel constraints.
type Result struct {
	Status   reminder.ValidationStatus `json:"status"`
	Length   int                       `json:"length"`
	Errors   []string                  `json:"errors,omitempty"`
	Warnings []string                  `json:"warnings,omitempty"`
	Score    int                       `json:"score"`
}

// Issues returns errors followed by warnings.
func (r Result) Issues() []string {
	out := make([]string, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}

const (
	errorPenalty   = 40
	warningPenalty = 15
)

var htmlTag = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(\s[^<>]*)?/?>`)

// isEmoji reports whether r falls in the pictographic ranges counted as emojis.
func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x1F1E0 && r <= 0x1F1FF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	default:
		return false
	}
}

// Length returns the effective length of content on channel. On SMS every
// emoji counts double.
func Length(channel reminder.Channel, content string) int {
	n := utf8.RuneCountInString(content)
	if channel != reminder.ChannelSMS {
		return n
	}
	for _, r := range content {
		if isEmoji(r) {
			n++
		}
	}
	return n
}

// Check evaluates a subject and body against c.
func Check(c *reminder.Constraints, subject, body string) Result {
	res := Result{Length: Length(c.Channel, body)}

	if c.MinLength > 0 && res.Length < c.MinLength {
		res.Errors = append(res.Errors, fmt.Sprintf("Content too short (minimum %d characters)", c.MinLength))
	}
	if c.MaxLength > 0 && res.Length > c.MaxLength {
		res.Errors = append(res.Errors, fmt.Sprintf("Content too long (maximum %d characters)", c.MaxLength))
	}

	subject = strings.TrimSpace(subject)
	switch c.Subject {
	case reminder.SubjectRequired:
		if subject == "" {
			res.Errors = append(res.Errors, "Subject is required for this channel")
		}
	case reminder.SubjectForbidden:
		if subject != "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s messages have no subject", c.Channel.Label()))
		}
	}

	if !c.HTMLAllowed && htmlTag.MatchString(body) {
		res.Errors = append(res.Errors, "HTML markup is not allowed")
	}

	hasEmoji, hasSpecial := false, false
	for _, r := range body {
		if isEmoji(r) {
			hasEmoji = true
		} else if r > unicode.MaxASCII {
			hasSpecial = true
		}
	}
	if hasEmoji && !c.EmojisAllowed {
		res.Errors = append(res.Errors, "Emojis are not allowed")
	}
	if hasSpecial && c.Channel == reminder.ChannelSMS {
		res.Warnings = append(res.Warnings, "Avoid special characters in SMS")
	}

	if c.OptimalLength > 0 && res.Length > c.OptimalLength && len(res.Errors) == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Longer than the recommended %d characters", c.OptimalLength))
	}

	res.Score = max(0, 100-errorPenalty*len(res.Errors)-warningPenalty*len(res.Warnings))
	switch {
	case len(res.Errors) > 0:
		res.Status = reminder.StatusError
	case len(res.Warnings) > 0:
		res.Status = reminder.StatusWarning
	default:
		res.Status = reminder.StatusValid
	}
	return res
}
