// Frigatemx-cfg is a camera configuration utility for Frigate NVR
// installs that run on MemryX accelerators.
//
// It provides ONVIF camera discovery, an interactive configuration
// wizard, and direct commands for editing the camera list in Frigate's
// config.yaml. The tool talks to cameras over the local network and
// edits the config file in place; container lifecycle management lives
// in frigatemx-launcher.
//
// Usage:
//
//	frigatemx-cfg [command] [flags]
//
// Invoked with no arguments it starts the interactive wizard.
// See 'frigatemx-cfg --help' for the full command list.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arlott/frigatemx/internal/logging"
	"github.com/arlott/frigatemx/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "frigatemx-cfg",
	Short:   "Frigate Camera Configuration Utility",
	Version: version.Version,
	Long: `A standalone utility for configuring cameras in a Frigate NVR install.

Provides ONVIF camera discovery, an interactive configuration wizard,
and direct commands for editing the cameras section of config.yaml.

Run without arguments to start the wizard.`,
	// Bare `frigatemx-cfg` lands in the wizard so a fresh install needs
	// no command knowledge at all.
	RunE: runWizard,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("frigatemx-cfg %s (commit: %s)\n", version.Version, version.Commit)
		},
	})
}
