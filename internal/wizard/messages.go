package wizard

import (
	"github.com/mark3labs/remindr/internal/events"
	"github.com/mark3labs/remindr/internal/reminder"
)

// ConstraintsFetchedMsg carries the result of a constraint fetch.
type ConstraintsFetchedMsg struct {
	Channel     reminder.Channel
	Seq         int
	Constraints *reminder.Constraints
	Err         error
}

// TemplatesFetchedMsg carries the result of a template fetch, tagged with the
// pair and sequence number it was issued for.
type TemplatesFetchedMsg struct {
	Tag       Pair
	Seq       int
	Templates []reminder.Template
	Err       error
}

// advanceMsg completes the delayed step 1 to step 2 transition.
type advanceMsg struct {
	gen int
}

// Bridge messages are delivered by Bridge.Listen.

// ExternalChannelMsg is an inbound channel-changed-externally event.
type ExternalChannelMsg struct {
	Channel reminder.Channel
}

// ValidationMsg is an inbound validation-result-updated event.
type ValidationMsg struct {
	Result events.ValidationResultUpdated
}

// ExternalTemplateMsg is an inbound template-applied-externally event.
type ExternalTemplateMsg struct {
	TemplateID string
	Channel    reminder.Channel
}
