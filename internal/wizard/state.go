package wizard

import (
	"github.com/mark3labs/remindr/internal/events"
	"github.com/mark3labs/remindr/internal/reminder"
)

// Step is the active cascade step.
type Step int

const (
	StepChannel  Step = 1
	StepLevel    Step = 2
	StepTemplate Step = 3
)

// Title returns the heading of the step.
func (s Step) Title() string {
	switch s {
	case StepChannel:
		return "Channel"
	case StepLevel:
		return "Urgency level"
	case StepTemplate:
		return "Template"
	default:
		return ""
	}
}

// Panel is the state of the template panel.
type Panel int

const (
	PanelIdle    Panel = iota // nothing requested for the current pair
	PanelLoading              // fetch in flight
	PanelReady                // templates available
	PanelEmpty                // no selectable template for the pair
	PanelError                // last fetch failed; retryable
)

func (p Panel) String() string {
	switch p {
	case PanelLoading:
		return "loading"
	case PanelReady:
		return "ready"
	case PanelEmpty:
		return "empty"
	case PanelError:
		return "error"
	default:
		return "idle"
	}
}

// Flags are the user-togglable display modes.
type Flags struct {
	Preview        bool
	LiveValidation bool
	Animations     bool
}

// DefaultFlags enables every mode.
func DefaultFlags() Flags {
	return Flags{Preview: true, LiveValidation: true, Animations: true}
}

// Pair is a (channel, level) selection context. Template fetches are tagged
// with the pair they were issued for.
type Pair struct {
	Channel reminder.Channel
	Level   reminder.Level
}

// State is the single mutable record of a wizard instance. It is only
// mutated from the Bubble Tea update loop.
type State struct {
	Channel            reminder.Channel
	Level              reminder.Level
	LevelCommitted     bool
	SelectedTemplateID string

	Constraints    *reminder.Constraints
	ConstraintsErr error

	Templates []reminder.Template
	Panel     Panel
	PanelErr  error

	Flags Flags
	Step  Step

	// Hint is the message shown after a refused transition.
	Hint string

	// Validation is the last verdict received from the validation subsystem.
	Validation *events.ValidationResultUpdated
	// ExternalTemplateID is the last template applied by another participant.
	ExternalTemplateID string

	// Subject and Content are the collaborating free-text fields of the host form.
	Subject string
	Content string

	subjectID   string
	daysOverdue int
	recipients  int
}

// SubjectID returns the id of the record being reminded about.
func (s *State) SubjectID() string { return s.subjectID }

// DaysOverdue returns the seeded number of days the due is late.
func (s *State) DaysOverdue() int { return s.daysOverdue }

// Pair returns the current (channel, level).
func (s *State) Pair() Pair {
	return Pair{Channel: s.Channel, Level: s.Level}
}

// Template returns the template with id from the current list.
func (s *State) Template(id string) (*reminder.Template, bool) {
	for i := range s.Templates {
		if s.Templates[i].ID == id {
			return &s.Templates[i], true
		}
	}
	return nil, false
}

// Selected returns the selected template, if any.
func (s *State) Selected() *reminder.Template {
	if s.SelectedTemplateID == "" {
		return nil
	}
	t, _ := s.Template(s.SelectedTemplateID)
	return t
}

// Conforming counts templates with status valid.
func (s *State) Conforming() int {
	n := 0
	for _, t := range s.Templates {
		if t.Status == reminder.StatusValid {
			n++
		}
	}
	return n
}

// Selectable counts templates that may be chosen.
func (s *State) Selectable() int {
	n := 0
	for _, t := range s.Templates {
		if t.Status.Selectable() {
			n++
		}
	}
	return n
}

// RecommendedLevel returns the level suggested by the constraint service, or
// one derived from the seeded days overdue.
func (s *State) RecommendedLevel() reminder.Level {
	if s.Constraints != nil && s.Constraints.RecommendedLevel.Valid() {
		return s.Constraints.RecommendedLevel
	}
	return reminder.RecommendedLevel(s.daysOverdue)
}

// CanEnter reports whether step can be entered with the current selections.
func (s *State) CanEnter(step Step) bool {
	switch step {
	case StepChannel:
		return true
	case StepLevel:
		return s.Channel.Valid()
	case StepTemplate:
		return s.Channel.Valid() && s.Level.Valid() && s.LevelCommitted
	default:
		return false
	}
}

// clearTemplates drops the template list and the selection.
func (s *State) clearTemplates() {
	s.Templates = nil
	s.SelectedTemplateID = ""
	s.Panel = PanelIdle
	s.PanelErr = nil
}
