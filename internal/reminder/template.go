package reminder

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/remindr/internal/logger"
)

// PreviewLength is the number of runes kept in a template's body preview.
const PreviewLength = 120

// ValidationStatus is the conformance verdict the catalog attaches to a template.
type ValidationStatus string

const (
	StatusValid   ValidationStatus = "valid"
	StatusWarning ValidationStatus = "warning"
	StatusError   ValidationStatus = "error"
)

// Selectable reports whether a template with this status may be chosen.
// Unknown statuses are not selectable.
func (s ValidationStatus) Selectable() bool {
	return s == StatusValid || s == StatusWarning
}

// MaxScore is the upper bound of a conformance score.
const MaxScore = 100

// Label returns the display label of the status.
func (s ValidationStatus) Label() string {
	switch s {
	case StatusWarning:
		return "Attention"
	case StatusError:
		return "Non-conforming"
	default:
		return "Conforming"
	}
}

// Template is a reminder template candidate as returned by the catalog.
type Template struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Subject        string           `json:"subject,omitempty"`
	Body           string           `json:"body"`
	BodyPreview    string           `json:"body_preview,omitempty"`
	FullBodyLength int              `json:"full_body_length"`
	LevelMin       Level            `json:"level_min"`
	LevelMax       Level            `json:"level_max"`
	Status         ValidationStatus `json:"validation_status"`
	Warnings       []string         `json:"validation_warnings,omitempty"`
	Score          *int             `json:"conformance_score,omitempty"`

	// Recommended is set on the first template of a resolved result set.
	Recommended bool `json:"-"`
}

// Normalize fills derived fields the catalog may omit: status defaults to
// valid, preview and length are computed from the body. A status outside
// valid/warning/error is treated as error, and the score is clamped to
// 0..MaxScore.
func (t *Template) Normalize() {
	switch status := ValidationStatus(strings.ToLower(strings.TrimSpace(string(t.Status)))); status {
	case "":
		t.Status = StatusValid
	case StatusValid, StatusWarning, StatusError:
		t.Status = status
	default:
		logger.Warn("Template %s has unknown validation status %q, treating as error", t.ID, t.Status)
		t.Status = StatusError
	}
	if t.Score != nil {
		score := min(max(*t.Score, 0), MaxScore)
		t.Score = &score
	}
	if t.FullBodyLength == 0 {
		t.FullBodyLength = utf8.RuneCountInString(t.Body)
	}
	if t.BodyPreview == "" {
		t.BodyPreview = Preview(t.Body)
	}
}

// SupportsLevel reports whether the template covers the given level.
func (t *Template) SupportsLevel(l Level) bool {
	return l >= t.LevelMin && l <= t.LevelMax
}

// LevelRange renders the supported level range, e.g. "1-2".
func (t *Template) LevelRange() string {
	if t.LevelMin == t.LevelMax {
		return fmt.Sprintf("%d", t.LevelMin)
	}
	return fmt.Sprintf("%d-%d", t.LevelMin, t.LevelMax)
}

// Preview truncates s to PreviewLength runes, appending an ellipsis when cut.
func Preview(s string) string {
	if utf8.RuneCountInString(s) <= PreviewLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:PreviewLength]) + "…"
}
