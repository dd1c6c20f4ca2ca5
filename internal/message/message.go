// Package message renders reminder boilerplate: it substitutes the payment
// deadline into a template body and subject before they reach the host form.
package message

import (
	"strings"
	"time"

	"github.com/mark3labs/remindr/internal/logger"
	"github.com/mark3labs/remindr/internal/reminder"
)

// DefaultDateFormat is the layout used for deadlines (day/month/year).
const DefaultDateFormat = "02/01/2006"

// Variables holds the data injected into boilerplate placeholders.
type Variables struct {
	Deadline string // Formatted payment deadline
}

// phrases rewrites generic wording into wording that carries the deadline.
// Only the first matching phrase is rewritten.
var phrases = []struct {
	from string
	to   string
}{
	{"as soon as possible", "before {deadline}"},
	{"within 7 days", "before {deadline}"},
	{"within 15 days", "within 15 days, at the latest by {deadline}"},
}

// Render replaces deadline placeholders in text. Supported placeholders:
// - {deadline}
// - {date_limite}
// Generic deadline phrases are rewritten to include the date. Other
// placeholders are left untouched for the host system.
func Render(text string, vars Variables) string {
	if text == "" || vars.Deadline == "" {
		return text
	}

	result := text
	if !strings.Contains(result, "{deadline}") && !strings.Contains(result, "{date_limite}") {
		for _, p := range phrases {
			if strings.Contains(result, p.from) {
				result = strings.Replace(result, p.from, p.to, 1)
				break
			}
		}
	}

	replacements := map[string]string{
		"{deadline}":    vars.Deadline,
		"{date_limite}": vars.Deadline,
	}
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result
}

// Deadline returns now plus days, formatted with layout.
// An empty layout falls back to DefaultDateFormat.
func Deadline(now time.Time, days int, layout string) string {
	if layout == "" {
		layout = DefaultDateFormat
	}
	return now.AddDate(0, 0, days).Format(layout)
}

// Builder renders templates against a fixed deadline policy.
type Builder struct {
	Days   int
	Layout string
	Now    func() time.Time
}

// NewBuilder returns a Builder using the wall clock.
func NewBuilder(days int, layout string) *Builder {
	return &Builder{Days: days, Layout: layout, Now: time.Now}
}

// Apply returns the subject and content to write into the host form for t.
func (b *Builder) Apply(t *reminder.Template) (subject, content string) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	vars := Variables{Deadline: Deadline(now(), b.Days, b.Layout)}
	logger.Debug("Applying template %s with deadline %s", t.ID, vars.Deadline)
	return Render(t.Subject, vars), Render(t.Body, vars)
}
