package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mark3labs/remindr/internal/events"
	"github.com/mark3labs/remindr/internal/nats"
	"github.com/mark3labs/remindr/internal/reminder"
)

var signalFlags struct {
	url     string
	session string
	channel string
}

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Send external events to a running compose session",
	Long: `Send events to a running 'remindr compose' session, acting as another
participant of the host form. The session must be reachable over NATS, either
through 'compose --expose' or an external server.`,
}

var signalChannelCmd = &cobra.Command{
	Use:   "channel <channel>",
	Short: "Change the channel from outside the wizard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := reminder.ParseChannel(args[0])
		if err != nil {
			return err
		}
		if !channel.Valid() {
			return fmt.Errorf("channel is required")
		}
		return publishSignal(cmd.Context(), events.TopicChannelChangedExternally,
			events.ChannelChangedExternally{Channel: channel})
	},
}

var signalTemplateCmd = &cobra.Command{
	Use:   "template <id>",
	Short: "Report a template applied from outside the wizard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := reminder.ParseChannel(signalFlags.channel)
		if err != nil {
			return err
		}
		return publishSignal(cmd.Context(), events.TopicTemplateAppliedExternally,
			events.TemplateAppliedExternally{TemplateID: args[0], Channel: channel})
	},
}

func init() {
	signalCmd.AddCommand(signalChannelCmd)
	signalCmd.AddCommand(signalTemplateCmd)

	signalCmd.PersistentFlags().StringVar(&signalFlags.url, "nats", "nats://localhost:4250", "NATS URL of the session")
	signalCmd.PersistentFlags().StringVar(&signalFlags.session, "session", "default", "Event session name")
	signalTemplateCmd.Flags().StringVar(&signalFlags.channel, "channel", "", "Channel the template belongs to")
}

func publishSignal(ctx context.Context, topic events.Topic, payload any) error {
	nc, err := nats.Connect(signalFlags.url)
	if err != nil {
		return err
	}
	defer func() { _ = nats.Shutdown(nc, nil) }()

	bus := events.NewNATSBus(nc, signalFlags.session, "signal")
	if err := bus.Publish(ctx, topic, payload); err != nil {
		return err
	}
	if err := bus.Flush(); err != nil {
		return fmt.Errorf("flushing: %w", err)
	}
	fmt.Printf("Sent %s to session %s\n", topic, signalFlags.session)
	return nil
}
