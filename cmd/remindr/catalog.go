package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/remindr/internal/config"
	"github.com/mark3labs/remindr/internal/reminder"
	"github.com/mark3labs/remindr/internal/rules"
	"github.com/mark3labs/remindr/internal/ruleserver"
	"github.com/mark3labs/remindr/internal/tui/theme"
)

var catalogFlags struct {
	local      bool
	serviceURL string
}

var catalogCmd = &cobra.Command{
	Use:   "catalog <channel> <level>",
	Short: "List the templates for a channel and urgency level",
	Long: `List the templates the rule service offers for a channel and urgency
level, with their conformance to the channel's rules.

Use --local to read the built-in catalog without a running service.`,
	Args: cobra.ExactArgs(2),
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogFlags.local, "local", false, "Use the built-in catalog instead of the rule service")
	catalogCmd.Flags().StringVar(&catalogFlags.serviceURL, "service-url", "", "Rule service URL (default: from config)")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	channel, err := reminder.ParseChannel(args[0])
	if err != nil {
		return err
	}
	if !channel.Valid() {
		return fmt.Errorf("channel is required")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || !reminder.Level(n).Valid() {
		return fmt.Errorf("level must be %d-%d, got %q", reminder.MinLevel, reminder.MaxLevel, args[1])
	}
	level := reminder.Level(n)

	var templates []reminder.Template
	if catalogFlags.local {
		templates = ruleserver.DefaultCatalog().Lookup(channel, level, true)
	} else {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if catalogFlags.serviceURL != "" {
			cfg.ServiceURL = catalogFlags.serviceURL
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		client, err := rules.NewClient(rules.Options{BaseURL: cfg.ServiceURL, RateLimit: cfg.RequestRate})
		if err != nil {
			return err
		}
		templates, err = client.Templates(cmd.Context(), rules.TemplatesQuery{
			Channel:             channel,
			Level:               level,
			ValidateConstraints: true,
		})
		if err != nil {
			return fmt.Errorf("failed to fetch templates: %w", err)
		}
	}

	fmt.Print(formatTemplates(channel, level, templates))
	return nil
}

// formatTemplates renders templates as a plain listing.
func formatTemplates(channel reminder.Channel, level reminder.Level, templates []reminder.Template) string {
	s := theme.Current().S()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.HeaderTitle.Render(fmt.Sprintf("%s %s · level %d %s",
		channel.Icon(), channel.Label(), level, level.Label())))
	if len(templates) == 0 {
		b.WriteString(s.Muted.Render("No templates.") + "\n")
		return b.String()
	}

	conforming := 0
	for _, t := range templates {
		if t.Status == reminder.StatusValid {
			conforming++
		}
		score := "-"
		if t.Score != nil {
			score = strconv.Itoa(*t.Score)
		}
		fmt.Fprintf(&b, "\n%s  %s\n", s.Text.Bold(true).Render(t.Name), s.Muted.Render(t.ID))
		fmt.Fprintf(&b, "  %s · %d chars · levels %s · score %s\n",
			t.Status.Label(), t.FullBodyLength, t.LevelRange(), score)
		for _, w := range t.Warnings {
			fmt.Fprintf(&b, "  ! %s\n", w)
		}
		fmt.Fprintf(&b, "  %s\n", s.Muted.Render(t.BodyPreview))
	}
	fmt.Fprintf(&b, "\n%d of %d template(s) fully conforming\n", conforming, len(templates))
	return b.String()
}
