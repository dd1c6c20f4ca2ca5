package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mark3labs/remindr/internal/config"
)

var setupFlags struct {
	project    bool
	force      bool
	serviceURL string
	bridge     string
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create remindr configuration file",
	Long: `Create a remindr configuration file with sensible defaults.

By default, creates a global config at ~/.config/remindr/remindr.yml.
Use --project to create a project-local config in the current directory.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
	setupCmd.Flags().StringVar(&setupFlags.serviceURL, "service-url", "", "Rule service URL")
	setupCmd.Flags().StringVar(&setupFlags.bridge, "bridge", "", "Event bridge: embedded, off or a NATS URL")
}

func runSetup(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	cfg := config.Default()
	if setupFlags.serviceURL != "" {
		cfg.ServiceURL = setupFlags.serviceURL
	}
	if setupFlags.bridge != "" {
		cfg.Bridge = setupFlags.bridge
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var err error
	if setupFlags.project {
		err = config.WriteProject(cfg)
	} else {
		err = config.WriteGlobal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Config written to: %s\n\n", targetPath)
	fmt.Println("Run 'remindr serve' and 'remindr compose' to get started.")
	return nil
}

// fileExists checks if a file exists (helper for setup command).
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
