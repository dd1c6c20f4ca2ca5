package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is wrapped by every refused navigation.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrTemplateRejected is returned when selecting a non-conforming template.
	ErrTemplateRejected = errors.New("template does not conform to channel constraints")
	// ErrTemplateNotFound is returned when the id is not in the current list.
	ErrTemplateNotFound = errors.New("template not found")
)

// TransitionError is a refused navigation together with the hint shown to
// the user.
type TransitionError struct {
	From Step
	To   Step
	Hint string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("step %d to %d: %s", e.From, e.To, e.Hint)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
