package main

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/mark3labs/remindr/internal/config"
	"github.com/mark3labs/remindr/internal/events"
	"github.com/mark3labs/remindr/internal/logger"
	"github.com/mark3labs/remindr/internal/message"
	"github.com/mark3labs/remindr/internal/nats"
	"github.com/mark3labs/remindr/internal/reminder"
	"github.com/mark3labs/remindr/internal/rules"
	"github.com/mark3labs/remindr/internal/tui"
	"github.com/mark3labs/remindr/internal/validation"
	"github.com/mark3labs/remindr/internal/wizard"
)

const fetchTimeout = 10 * time.Second

var composeFlags struct {
	form       string
	serviceURL string
	bridge     string
	session    string
	expose     string
}

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose a reminder in the wizard",
	Long: `Compose a reminder in the three step wizard.

The host form (--form) seeds the wizard and receives the result when you
press ctrl+s. With the embedded bridge, a validation subsystem runs in the
same process; use --expose to let other processes join the session with
'remindr signal'.`,
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().StringVarP(&composeFlags.form, "form", "f", "reminder.yml", "Host form file to seed from and write back to")
	composeCmd.Flags().StringVar(&composeFlags.serviceURL, "service-url", "", "Rule service URL (default: from config)")
	composeCmd.Flags().StringVar(&composeFlags.bridge, "bridge", "", "Event bridge: embedded, off or a NATS URL (default: from config)")
	composeCmd.Flags().StringVar(&composeFlags.session, "session", "", "Event session name (default: from config)")
	composeCmd.Flags().StringVar(&composeFlags.expose, "expose", "", "Expose the embedded NATS server on host:port")
}

// loadConfig loads the configuration and applies the compose flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("service-url") {
		cfg.ServiceURL = composeFlags.serviceURL
	}
	if cmd.Flags().Changed("bridge") {
		cfg.Bridge = composeFlags.bridge
	}
	if cmd.Flags().Changed("session") {
		cfg.Session = composeFlags.session
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}
	return cfg, nil
}

func runCompose(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	form, err := reminder.LoadForm(composeFlags.form)
	if err != nil {
		return err
	}

	client, err := rules.NewClient(rules.Options{
		BaseURL:   cfg.ServiceURL,
		Timeout:   fetchTimeout,
		RateLimit: cfg.RequestRate,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	bus, cleanup, err := startBridge(ctx, cfg, client, form)
	if err != nil {
		return err
	}
	defer cleanup()

	bridge := wizard.NewBridge(bus)
	if err := bridge.Start(); err != nil {
		return fmt.Errorf("failed to start bridge: %w", err)
	}
	defer func() { _ = bridge.Close() }()

	w := wizard.New(wizard.Options{
		Catalog: client,
		Bridge:  bridge,
		Form:    form,
		Flags: wizard.Flags{
			Preview:        cfg.Preview,
			LiveValidation: cfg.LiveValidation,
			Animations:     cfg.Animations,
		},
		Debounce:        cfg.Debounce(),
		TransitionDelay: cfg.TransitionDelay(),
		FetchTimeout:    fetchTimeout,
		Messages:        message.NewBuilder(cfg.DeadlineDays, cfg.DateFormat),
	})
	defer w.Close()

	m := tui.New(tui.Options{Wizard: w, Form: form, FormPath: composeFlags.form})
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}

	if m.Saved() {
		fmt.Printf("Reminder written to %s\n", composeFlags.form)
	}
	return nil
}

// startBridge connects the event bus selected by cfg.Bridge. In embedded
// mode it also starts the NATS server and the validation subsystem.
// The returned bus is nil when the bridge is off.
func startBridge(ctx context.Context, cfg *config.Config, client *rules.Client, form *reminder.Form) (events.Bus, func(), error) {
	switch cfg.Bridge {
	case config.BridgeOff:
		return nil, func() {}, nil

	case config.BridgeEmbedded:
		ns, err := nats.StartEmbeddedNATS(nats.ServerOptions{ListenAddr: composeFlags.expose})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start NATS: %w", err)
		}
		wizardConn, err := nats.ConnectInProcess(ns)
		if err != nil {
			ns.Shutdown()
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		validatorConn, err := nats.ConnectInProcess(ns)
		if err != nil {
			_ = nats.Shutdown(wizardConn, ns)
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}

		svc := validation.New(events.NewNATSBus(validatorConn, cfg.Session, "validation"), client, validation.Options{
			DaysOverdue: form.DaysOverdue,
			Recipients:  form.Recipients,
		})
		if err := svc.Start(ctx); err != nil {
			shutdownNATS(validatorConn, wizardConn, ns)
			return nil, nil, fmt.Errorf("failed to start validation: %w", err)
		}
		if composeFlags.expose != "" {
			logger.Info("Session %s open on nats://%s", cfg.Session, composeFlags.expose)
		}

		cleanup := func() {
			if err := svc.Close(); err != nil {
				logger.Warn("Closing validation: %v", err)
			}
			shutdownNATS(validatorConn, wizardConn, ns)
		}
		return events.NewNATSBus(wizardConn, cfg.Session, "wizard"), cleanup, nil

	default:
		nc, err := nats.Connect(cfg.Bridge)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := nats.Shutdown(nc, nil); err != nil {
				logger.Warn("Closing NATS: %v", err)
			}
		}
		return events.NewNATSBus(nc, cfg.Session, "wizard"), cleanup, nil
	}
}

func shutdownNATS(validatorConn, wizardConn *natsgo.Conn, ns *server.Server) {
	validatorConn.Close()
	if err := nats.Shutdown(wizardConn, ns); err != nil {
		logger.Warn("Shutting down NATS: %v", err)
	}
}
