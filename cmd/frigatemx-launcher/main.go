// Frigatemx-launcher manages a Frigate NVR deployment on a MemryX host.
//
// This utility provisions the host and drives the frigate container
// through docker for operations that fall outside camera configuration:
//
//   - Host dependency installs (Docker Engine, MemryX driver stack)
//   - Frigate source checkout management
//   - Container lifecycle (build, start, stop, restart, rebuild, remove)
//   - Log access and config file watching
//
// Prerequisites:
//
//   - Ubuntu host with apt and systemd
//   - sudo rights for the install flows
//   - A MemryX M.2 accelerator for detection
//
// See 'frigatemx-launcher --help' for the full command list.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arlott/frigatemx/internal/logging"
	"github.com/arlott/frigatemx/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "frigatemx-launcher",
	Short: "Frigate Deployment Launcher",
	Long: `Host provisioning and container lifecycle for a Frigate NVR install.

This utility drives docker, apt, git and systemctl for:
  - Installing Docker Engine and the MemryX driver stack
  - Cloning and refreshing the frigate source checkout
  - Building the frigate image and running the container
  - Following container logs and watching the config file

Camera configuration lives in the companion tool; run 'frigatemx-cfg'
for discovery and the interactive wizard.

Use 'frigatemx-launcher status' to check host prerequisites.`,
	Version: version.Version,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Example: `  # Check host prerequisites
  frigatemx-launcher status

  # First-time host setup
  frigatemx-launcher install docker
  frigatemx-launcher install memryx
  frigatemx-launcher setup

  # Bring frigate up (builds the image when missing)
  frigatemx-launcher start

  # Follow container logs
  frigatemx-launcher logs --follow`,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("frigatemx-launcher %s (commit: %s)\n", version.Version, version.Commit)
		},
	})
}
