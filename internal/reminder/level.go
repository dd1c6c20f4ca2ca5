package reminder

import "fmt"

// Level is the urgency level of a reminder, from 1 (standard) to 5 (formal).
type Level int

const (
	MinLevel Level = 1
	MaxLevel Level = 5
)

// levelInfo carries display data for a level.
type levelInfo struct {
	label string
	desc  string
}

var levels = map[Level]levelInfo{
	1: {"Standard", "Polite, friendly reminder for a first contact"},
	2: {"Moderate", "Firmer follow-up after a first reminder"},
	3: {"Urgent", "Clear request with a short payment deadline"},
	4: {"Critical", "Last notice before collection procedure"},
	5: {"Formal", "Formal notice with legal wording"},
}

// Valid reports whether l is within MinLevel..MaxLevel.
func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Clamp bounds l to MinLevel..MaxLevel.
func (l Level) Clamp() Level {
	if l < MinLevel {
		return MinLevel
	}
	if l > MaxLevel {
		return MaxLevel
	}
	return l
}

// Label returns the short name of the level.
func (l Level) Label() string {
	if info, ok := levels[l]; ok {
		return info.label
	}
	return fmt.Sprintf("Level %d", int(l))
}

// Description returns the tone description of the level.
func (l Level) Description() string {
	return levels[l].desc
}

// RecommendedLevel derives an urgency level from the number of days a due is
// overdue.
func RecommendedLevel(daysOverdue int) Level {
	switch {
	case daysOverdue <= 7:
		return 1
	case daysOverdue <= 21:
		return 3
	default:
		return 5
	}
}
