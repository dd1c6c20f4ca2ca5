// Package reminder holds the domain types shared by the wizard, the rule
// service client and the reference rule service: delivery channels, urgency
// levels, structural constraints, templates and the host form.
package reminder

import (
	"errors"
	"fmt"
	"strings"
)

// Channel is the reminder delivery medium.
type Channel string

const (
	ChannelNone   Channel = ""
	ChannelEmail  Channel = "email"
	ChannelSMS    Channel = "sms"
	ChannelLetter Channel = "letter"
)

// Channels lists the selectable channels in display order.
var Channels = []Channel{ChannelEmail, ChannelSMS, ChannelLetter}

// ErrUnknownChannel is returned when parsing an unsupported channel name.
var ErrUnknownChannel = errors.New("unknown channel")

// ParseChannel parses a channel name. The empty string yields ChannelNone.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ChannelNone, nil
	case "email", "mail":
		return ChannelEmail, nil
	case "sms", "text":
		return ChannelSMS, nil
	case "letter", "post", "postal":
		return ChannelLetter, nil
	default:
		return ChannelNone, fmt.Errorf("%w: %q", ErrUnknownChannel, s)
	}
}

// Valid reports whether c is one of the selectable channels.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS || c == ChannelLetter
}

// Label returns the human-readable channel name.
func (c Channel) Label() string {
	switch c {
	case ChannelEmail:
		return "Email"
	case ChannelSMS:
		return "SMS"
	case ChannelLetter:
		return "Letter"
	default:
		return "None"
	}
}

// Icon returns a single glyph for the channel.
func (c Channel) Icon() string {
	switch c {
	case ChannelEmail:
		return "✉"
	case ChannelSMS:
		return "☎"
	case ChannelLetter:
		return "✎"
	default:
		return "·"
	}
}

// Description returns a one-line description of the channel.
func (c Channel) Description() string {
	switch c {
	case ChannelEmail:
		return "Reminder by electronic mail"
	case ChannelSMS:
		return "Reminder by text message"
	case ChannelLetter:
		return "Reminder by postal letter"
	default:
		return ""
	}
}
