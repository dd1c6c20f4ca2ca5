package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/mark3labs/remindr/internal/logger"
	"github.com/mark3labs/remindr/internal/tui/theme"
)

const (
	logoText1 = "█▀█ █▀▀ █▀▄▀█ █ █▄ █ █▀▄ █▀█"
	logoText2 = "█▀▄ ██▄ █ ▀ █ █ █ ▀█ █▄▀ █▀▄"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "remindr",
	Short: "Compose overdue membership due reminders in the terminal",
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	rootCmd.Long = renderLogo() + `

remindr guides you through composing a reminder for an overdue membership
due: pick a channel (email, SMS or letter), an urgency level, then a template
checked against the channel's rules. Templates come from a rule service
(run one locally with 'remindr serve'); an independent validation subsystem
follows your edits over NATS and reports conformance as you type.`

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(signalCmd)
}
