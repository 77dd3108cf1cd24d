package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arlott/frigatemx/internal/config"
	"github.com/arlott/frigatemx/internal/dockerctl"
	"github.com/arlott/frigatemx/internal/frigateapi"
	"github.com/arlott/frigatemx/internal/frigateconf"
	"github.com/arlott/frigatemx/internal/installer"
	"github.com/arlott/frigatemx/internal/logging"
	"github.com/arlott/frigatemx/internal/ui"
	"github.com/arlott/frigatemx/internal/urls"
)

// Command flags
var (
	checkoutDir   string
	verbose       bool // Show full command transcripts
	assumeYes     bool
	logTail       int
	logFollow     bool
	watchInterval string
)

// Step budgets for the install progress lists. Flows may emit fewer
// steps than budgeted (skipped arch or group steps); unreached steps
// never render.
const (
	dockerInstallSteps = 15
	memryxInstallSteps = 11
	setupSteps         = 5
)

func init() {
	// Common flags for all commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&checkoutDir, "checkout", "", "Frigate source checkout directory (default: from settings)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show full command transcripts")

	// Add subcommands
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(watchCmd)
}

// resolveCheckoutDir returns the checkout directory from the flag or
// the tool settings.
func resolveCheckoutDir() (string, error) {
	if checkoutDir != "" {
		return checkoutDir, nil
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}
	return settings.FrigateDir()
}

// resolveConfigPath returns the path to Frigate's config.yaml under
// the active checkout.
func resolveConfigPath() (string, error) {
	if checkoutDir != "" {
		return filepath.Join(checkoutDir, "config", "config.yaml"), nil
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}
	return settings.FrigateConfigPath()
}

// createRunner creates a docker runner for the given checkout
func createRunner(dir string) *dockerctl.Runner {
	// Silent by default; FRIGATEMX_LOG_LEVEL=debug turns on detail
	logging.InitializeFromEnv()

	cfg := dockerctl.DefaultConfig()
	cfg.CheckoutDir = dir
	return dockerctl.NewRunner(cfg, logging.GetLogger())
}

// createInstaller creates an installer for the given checkout
func createInstaller(dir string) *installer.Installer {
	logging.InitializeFromEnv()

	cfg := installer.DefaultConfig()
	cfg.CheckoutDir = dir
	return installer.New(cfg, logging.GetLogger())
}

// promptSudoPassword reads the sudo password without echo and hands it
// to the installer. Skipped for root and non-interactive sessions; an
// empty entry relies on a NOPASSWD rule or a cached sudo ticket.
func promptSudoPassword(in *installer.Installer) error {
	if os.Geteuid() == 0 {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}

	fmt.Print("Sudo password (empty to use a cached ticket): ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) > 0 {
		in.SetSudoPassword(password)
		for i := range password {
			password[i] = 0
		}
	}
	return nil
}

// opContext returns a context cancelled by Ctrl+C.
func opContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// stepTracker adapts the installer's "==> name" progress lines into
// indexed step callbacks for the OpRunner, completing each step when
// the next one begins. All lines are kept as the transcript.
type stepTracker struct {
	onStep  ui.StepCallback
	current int
	lines   strings.Builder
}

func newStepTracker(onStep ui.StepCallback) *stepTracker {
	return &stepTracker{onStep: onStep}
}

func (t *stepTracker) Line(line string) {
	t.lines.WriteString(line)
	t.lines.WriteByte('\n')

	name, ok := strings.CutPrefix(line, "==> ")
	if !ok {
		return
	}
	if t.current > 0 {
		t.onStep(t.current, "", ui.StepComplete, "")
	}
	t.current++
	t.onStep(t.current, name, ui.StepRunning, "")
}

// Finish settles the step that was running when the flow ended.
func (t *stepTracker) Finish(err error) {
	if t.current == 0 {
		return
	}
	if err != nil {
		t.onStep(t.current, "", ui.StepFailed, "")
		return
	}
	t.onStep(t.current, "", ui.StepComplete, "")
}

func (t *stepTracker) Transcript() string {
	return t.lines.String()
}

// transcriptTail returns the last n lines of captured output.
func transcriptTail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// mark renders a pass/fail status line fragment.
func mark(ok bool, yes, no string) string {
	if ok {
		return "✓ " + yes
	}
	return "✗ " + no
}

// statusCmd implements the 'status' command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check host prerequisites and container state",
	Long: `Check everything a running frigate deployment needs.

This command checks:
  1. git and docker binaries, and that the docker daemon answers
  2. MemryX driver packages on the supported series
  3. MemryX device nodes under /dev
  4. The frigate source checkout
  5. The container and image state

Run this command first to troubleshoot any deployment issue.`,
	Example: `  # Check the default deployment
  frigatemx-launcher status

  # Check a custom checkout location
  frigatemx-launcher status --checkout /opt/frigate`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	// Suppress usage on execution errors (we're past argument parsing)
	cmd.SilenceUsage = true

	dir, err := resolveCheckoutDir()
	if err != nil {
		return err
	}

	ui.PrintCommandHeader(
		"Host Status",
		"frigatemx-launcher status",
		map[string]string{
			"Checkout":  dir,
			"Container": dockerctl.ContainerName,
		},
	)

	ctx, cancel := opContext()
	defer cancel()

	in := createInstaller(dir)
	prereqs := in.CheckPrerequisites(ctx)
	fmt.Println(installer.FormatPrerequisiteReport(prereqs))

	fmt.Println("Source Checkout:")
	info, err := in.CheckoutStatus(ctx)
	switch {
	case err != nil:
		fmt.Printf("  ✗ could not inspect %s: %v\n", dir, err)
	case !info.Exists:
		fmt.Printf("  ✗ no checkout at %s (run 'frigatemx-launcher setup')\n", dir)
	default:
		line := "  ✓ " + dir
		if info.Branch != "" {
			line += " (branch " + info.Branch + ")"
		}
		if info.Dirty {
			line += " [local changes]"
		}
		fmt.Println(line)
	}
	fmt.Println()

	fmt.Println("Frigate Container:")
	runner := createRunner(dir)
	st, err := runner.Status(ctx)
	if err != nil {
		fmt.Printf("  ✗ status query failed: %v\n", err)
	} else {
		fmt.Printf("  %s\n", mark(st.DaemonUp, "docker daemon up", "docker daemon unreachable"))
		fmt.Printf("  %s\n", mark(st.ImageBuilt, "image built", "image not built (run 'frigatemx-launcher build')"))
		fmt.Printf("  %s\n", mark(st.ContainerExists, "container exists", "container not created"))
		fmt.Printf("  %s\n", mark(st.ContainerRunning, "container running", "container stopped"))
		if st.ContainerRunning {
			fmt.Printf("  Web UI: http://localhost:%d\n", frigateapi.DefaultPort)
		}
	}
	if op := runner.CurrentOperation(); op != "" {
		fmt.Printf("  Operation in flight: %s\n", op)
	}
	fmt.Println()

	if !prereqs.AllAvailable {
		return fmt.Errorf("host prerequisites missing")
	}
	return nil
}

// buildCmd implements the 'build' command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the frigate image from the checkout",
	Long: `Build the frigate docker image from the source checkout.

The build uses the checkout's own Dockerfile, so the image matches the
checked-out frigate version exactly. First builds take a long time;
later builds reuse cached layers.`,
	Example: `  # Build the image
  frigatemx-launcher build

  # Watch the full build output
  frigatemx-launcher build --verbose`,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	dir, err := resolveCheckoutDir()
	if err != nil {
		return err
	}

	ui.PrintCommandHeader(
		"Image Build",
		"frigatemx-launcher build",
		map[string]string{
			"Checkout": dir,
			"Image":    dockerctl.ImageName,
		},
	)

	ctx, cancel := opContext()
	defer cancel()

	var transcript strings.Builder
	onLine := func(line string) {
		transcript.WriteString(line)
		transcript.WriteByte('\n')
		if verbose {
			fmt.Println("  " + line)
		}
	}

	runner := createRunner(dir)
	ui.PrintPleaseWait("Building the frigate image", "10 to 30 minutes on first build")
	start := time.Now()

	if err := runner.Build(ctx, onLine); err != nil {
		ui.PrintFailure("Image build failed", err, []string{
			"Check the docker daemon: frigatemx-launcher status",
			"Ensure the checkout exists: frigatemx-launcher setup",
			"Builds need several GB of free disk space",
			"Run with --verbose for the full build output",
		})
		if !verbose && transcript.Len() > 0 {
			ui.PrintCommandOutput(transcriptTail(transcript.String(), 15))
		}
		return fmt.Errorf("image build failed: %w", err)
	}

	ui.PrintSuccess("Image build complete", map[string]string{
		"Image":    dockerctl.ImageName,
		"Checkout": dir,
		"Duration": time.Since(start).Round(time.Second).String(),
	})
	return nil
}

// startCmd implements the 'start' command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the frigate container",
	Long: `Bring the frigate container up.

Starts the existing container when it is only stopped, creates one when
it is missing, and builds the image first when that is missing too. A
container that is already running is left alone.`,
	Example: `  # Bring frigate up
  frigatemx-launcher start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	dir, err := resolveCheckoutDir()
	if err != nil {
		return err
	}

	ui.PrintCommandHeader(
		"Container Start",
		"frigatemx-launcher start",
		map[string]string{
			"Checkout":  dir,
			"Container": dockerctl.ContainerName,
		},
	)

	ctx, cancel := opContext()
	defer cancel()

	var transcript strings.Builder
	onLine := func(line string) {
		transcript.WriteString(line)
		transcript.WriteByte('\n')
		if verbose {
			fmt.Println("  " + line)
		}
	}

	runner := createRunner(dir)
	ui.PrintPleaseWait("Starting frigate", "builds the image first when missing")
	start := time.Now()

	action, err := runner.Up(ctx, onLine)
	if err != nil {
		ui.PrintFailure("Container start failed", err, []string{
			"Check the docker daemon: frigatemx-launcher status",
			"Another lifecycle operation may be running in this session",
			"Inspect recent logs: frigatemx-launcher logs --tail 100",
			"Run with --verbose for the full command output",
		})
		if !verbose && transcript.Len() > 0 {
			ui.PrintCommandOutput(transcriptTail(transcript.String(), 15))
		}
		return fmt.Errorf("container start failed: %w", err)
	}

	ui.PrintSuccess("Container start complete", map[string]string{
		"Action":   action.String(),
		"Web UI":   fmt.Sprintf("http://localhost:%d", frigateapi.DefaultPort),
		"Duration": time.Since(start).Round(time.Second).String(),
	})
	return nil
}

// stopCmd implements the 'stop' command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the frigate container",
	Long: `Stop the frigate container.

Stop is never blocked by another running operation, so it can interrupt
a start or restart that is stuck.`,
	Example: `  # Stop frigate
  frigatemx-launcher stop`,
	RunE: runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	dir, err := resolveCheckoutDir()
	if err != nil {
		return err
	}

	ui.PrintCommandHeader(
		"Container Stop",
		"frigatemx-launcher stop",
		map[string]string{"Container": dockerctl.ContainerName},
	)

	ctx, cancel := opContext()
	defer cancel()

	runner := createRunner(dir)
	if err := runner.Stop(ctx); err != nil {
		ui.PrintFailure("Container stop failed", err, []string{
			"Check the container exists: frigatemx-launcher status",
			"A container that was never created has nothing to stop",
		})
		return fmt.Errorf("container stop failed: %w", err)
	}

	ui.PrintSuccess("Container stop complete", map[string]string{
		"Container": dockerctl.ContainerName,
	})
	return nil
}

// restartCmd implements the 'restart' command
var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the frigate container",
	Long: `Restart the frigate container so it picks up config changes.

Frigate reads config.yaml at startup only; run this after editing the
camera list.`,
	Example: `  # Restart after a config change
  frigatemx-launcher restart`,
	RunE: runRestart,
}

func runRestart(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	dir, err := resolveCheckoutDir()
	if err != nil {
		return err
	}

	ui.PrintCommandHeader(
		"Container Restart",
		"frigatemx-launcher restart",
		map[string]string{"Container": dockerctl.ContainerName},
	)

	ctx, cancel := opContext()
	defer cancel()

	runner := createRunner(dir)
	ui.PrintPleaseWait("Restarting frigate", "cameras reconnect after startup")

	if err := runner.Restart(ctx); err != nil {
		ui.PrintFailure("Container restart failed", err, []string{
			"Check the container exists: frigatemx-launcher status",
			"Validate the config first: frigatemx-cfg config validate",
			"Inspect startup logs: frigatemx-launcher logs --tail 100",
		})
		return fmt.Errorf("container restart failed: %w", err)
	}

	ui.PrintSuccess("Container restart complete", map[string]string{
		"Container": dockerctl.ContainerName,
		"Web UI":    fmt.Sprintf("http://localhost:%d", frigateapi.DefaultPort),
	})
	return nil
}

// rebuildCmd implements the 'rebuild' command
var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the image and recreate the container",
	Long: `Tear the container down, rebuild the image from the checkout, and
create a fresh container.

Use this after 'frigatemx-launcher setup' pulled a new frigate version,
or when the container is wedged beyond a restart.`,
	Example: `  # Rebuild after updating the checkout
  frigatemx-launcher setup
  frigatemx-launcher rebuild`,
	RunE: runRebuild,
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	dir, err := resolveCheckoutDir()
	if err != nil {
		return err
	}

	ui.PrintCommandHeader(
		"Container Rebuild",
		"frigatemx-launcher rebuild",
		map[string]string{
			"Checkout": dir,
			"Image":    dockerctl.ImageName,
		},
	)

	ctx, cancel := opContext()
	defer cancel()

	var transcript strings.Builder
	onLine := func(line string) {
		transcript.WriteString(line)
		transcript.WriteByte('\n')
		if verbose {
			fmt.Println("  " + line)
		}
	}

	runner := createRunner(dir)
	ui.PrintPleaseWait("Rebuilding frigate", "10 to 30 minutes for a full rebuild")
	start := time.Now()

	if err := runner.Rebuild(ctx, onLine); err != nil {
		ui.PrintFailure("Container rebuild failed", err, []string{
			"Check the docker daemon: frigatemx-launcher status",
			"Builds need several GB of free disk space",
			"Run with --verbose for the full build output",
		})
		if !verbose && transcript.Len() > 0 {
			ui.PrintCommandOutput(transcriptTail(transcript.String(), 15))
		}
		return fmt.Errorf("container rebuild failed: %w", err)
	}

	ui.PrintSuccess("Container rebuild complete", map[string]string{
		"Image":    dockerctl.ImageName,
		"Web UI":   fmt.Sprintf("http://localhost:%d", frigateapi.DefaultPort),
		"Duration": time.Since(start).Round(time.Second).String(),
	})
	return nil
}

// removeCmd implements the 'remove' command
var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the frigate container",
	Long: `Stop and delete the frigate container.

The image, the checkout, recordings and the config file are kept; only
the container and any state it held outside its mounts are removed. A
later 'frigatemx-launcher start' creates a fresh container.`,
	Example: `  # Remove with confirmation prompt
  frigatemx-launcher remove

  # Remove without prompting (scripts)
  frigatemx-launcher remove --yes`,
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVar(&assumeYes, "yes", false, "Skip the confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	dir, err := resolveCheckoutDir()
	if err != nil {
		return err
	}

	ui.PrintCommandHeader(
		"Container Removal",
		"frigatemx-launcher remove",
		map[string]string{"Container": dockerctl.ContainerName},
	)

	if !assumeYes && !ui.RemoveContainerConfirmation() {
		return nil // User cancelled
	}

	ctx, cancel := opContext()
	defer cancel()

	runner := createRunner(dir)
	if err := runner.Remove(ctx); err != nil {
		ui.PrintFailure("Container removal failed", err, []string{
			"Check the container exists: frigatemx-launcher status",
			"Another lifecycle operation may be running in this session",
		})
		return fmt.Errorf("container removal failed: %w", err)
	}

	ui.PrintSuccess("Container removal complete", map[string]string{
		"Container": dockerctl.ContainerName + " (removed)",
		"Next":      "frigatemx-launcher start recreates it",
	})
	return nil
}

// logsCmd implements the 'logs' command
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show frigate container logs",
	Long: `Print the frigate container log tail, or follow it.

Output is unstyled so it can be piped. Follow mode polls the docker log
tail and prints what changed; stop it with Ctrl+C.`,
	Example: `  # Last 200 lines
  frigatemx-launcher logs

  # Last 50 lines, then follow
  frigatemx-launcher logs --tail 50 --follow

  # Grep for detector problems
  frigatemx-launcher logs --tail 500 | grep -i memx`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().IntVar(&logTail, "tail", dockerctl.DefaultLogTail, "Number of trailing lines to fetch")
	logsCmd.Flags().BoolVarP(&logFollow, "follow", "f", false, "Keep following the log")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	dir, err := resolveCheckoutDir()
	if err != nil {
		return err
	}

	ctx, cancel := opContext()
	defer cancel()

	runner := createRunner(dir)

	if !logFollow {
		text, err := runner.Logs(ctx, logTail)
		if err != nil {
			return fmt.Errorf("failed to fetch logs: %w", err)
		}
		if text != "" {
			fmt.Println(strings.TrimRight(text, "\n"))
		}
		return nil
	}

	err = runner.FollowLogs(ctx, logTail, func(chunk string, reset bool) {
		fmt.Println(strings.TrimRight(chunk, "\n"))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("log follow failed: %w", err)
	}
	return nil
}

// installCmd groups the host dependency installs
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install host dependencies",
	Long: `Install the host dependencies frigate needs.

Both flows run a fixed sequence of privileged steps through sudo and
stream progress as each step runs. Run 'frigatemx-launcher status'
first to see what is missing.`,
}

func init() {
	installCmd.AddCommand(installDockerCmd)
	installCmd.AddCommand(installMemryXCmd)
}

// installDockerCmd implements the 'install docker' command
var installDockerCmd = &cobra.Command{
	Use:   "docker",
	Short: "Install Docker Engine",
	Long: `Install Docker Engine from the official apt repository.

This flow follows the upstream install guide: it adds the docker apt
source with its signing key, installs the engine packages, enables the
services, and adds your user to the docker group. Rerunning it on a
host with docker present refreshes the repository files and upgrades
the packages.`,
	Example: `  # Install Docker Engine
  frigatemx-launcher install docker

  # Watch every apt line
  frigatemx-launcher install docker --verbose`,
	RunE: runInstallDocker,
}

func runInstallDocker(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	dir, err := resolveCheckoutDir()
	if err != nil {
		return err
	}

	in := createInstaller(dir)
	if err := promptSudoPassword(in); err != nil {
		return err
	}
	defer in.ClearSudoPassword()

	ctx, cancel := opContext()
	defer cancel()

	runner := ui.NewOpRunner(ui.OpRunnerConfig{
		Title:   "Docker Engine Install",
		Command: "frigatemx-launcher install docker",
		Params: map[string]string{
			"Source": "download.docker.com apt repository",
			"Guide":  urls.DockerInstallGuide,
		},
		TotalSteps: dockerInstallSteps,
		Verbose:    verbose,
	})

	err = runner.Run(ctx, func(onStep ui.StepCallback) error {
		tracker := newStepTracker(onStep)
		flowErr := in.InstallDocker(ctx, tracker.Line)
		tracker.Finish(flowErr)
		runner.SetTranscript(tracker.Transcript())
		return flowErr
	})
	if err != nil {
		return fmt.Errorf("docker install failed: %w", err)
	}

	ui.PrintWarning("Group membership pending", map[string]string{
		"Why":  "docker group membership applies to new sessions only",
		"Next": "log out and back in, then run 'frigatemx-launcher status'",
	})
	return nil
}

// installMemryXCmd implements the 'install memryx' command
var installMemryXCmd = &cobra.Command{
	Use:   "memryx",
	Short: "Install the MemryX driver stack",
	Long: `Install the MemryX drivers, runtime and device manager.

Packages are pinned to the driver series the frigate MemryX detector is
validated against and held there, so a routine apt upgrade cannot move
them onto an incompatible series. The kernel module builds through
dkms; a reboot is required before the devices appear.`,
	Example: `  # Install the MemryX stack
  frigatemx-launcher install memryx

  # Watch every apt line
  frigatemx-launcher install memryx --verbose`,
	RunE: runInstallMemryX,
}

func runInstallMemryX(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	dir, err := resolveCheckoutDir()
	if err != nil {
		return err
	}

	in := createInstaller(dir)
	if err := promptSudoPassword(in); err != nil {
		return err
	}
	defer in.ClearSudoPassword()

	ctx, cancel := opContext()
	defer cancel()

	runner := ui.NewOpRunner(ui.OpRunnerConfig{
		Title:   "MemryX Driver Install",
		Command: "frigatemx-launcher install memryx",
		Params: map[string]string{
			"Source": "developer.memryx.com apt repository",
			"Guide":  urls.MemryXDeveloperHub,
		},
		TotalSteps: memryxInstallSteps,
		Verbose:    verbose,
	})

	err = runner.Run(ctx, func(onStep ui.StepCallback) error {
		tracker := newStepTracker(onStep)
		flowErr := in.InstallMemryX(ctx, tracker.Line)
		tracker.Finish(flowErr)
		runner.SetTranscript(tracker.Transcript())
		return flowErr
	})
	if err != nil {
		return fmt.Errorf("memryx install failed: %w", err)
	}

	ui.PrintWarning("Reboot required", map[string]string{
		"Why":  "the dkms kernel module loads at boot",
		"Next": "reboot, then check devices with 'frigatemx-launcher status'",
	})
	return nil
}

// setupCmd implements the 'setup' command
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Clone or refresh the frigate checkout",
	Long: `Prepare the frigate source tree this launcher builds from.

Clones the upstream frigate repository into the checkout directory, or
refreshes an existing clone from its upstream, stashing local edits
first. A starter config.yaml with the MemryX detector is written if
none exists yet.`,
	Example: `  # Clone or refresh the checkout
  frigatemx-launcher setup

  # Use a custom location
  frigatemx-launcher setup --checkout /opt/frigate`,
	RunE: runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	dir, err := resolveCheckoutDir()
	if err != nil {
		return err
	}
	cfgPath, err := resolveConfigPath()
	if err != nil {
		return err
	}

	in := createInstaller(dir)

	ctx, cancel := opContext()
	defer cancel()

	runner := ui.NewOpRunner(ui.OpRunnerConfig{
		Title:   "Checkout Setup",
		Command: "frigatemx-launcher setup",
		Params: map[string]string{
			"Repository": installer.FrigateRepoURL,
			"Checkout":   dir,
		},
		TotalSteps: setupSteps,
		Verbose:    verbose,
	})

	_, err = runner.RunWithResult(ctx, func(onStep ui.StepCallback) (map[string]string, error) {
		tracker := newStepTracker(onStep)

		if flowErr := in.EnsureCheckout(ctx, tracker.Line); flowErr != nil {
			tracker.Finish(flowErr)
			runner.SetTranscript(tracker.Transcript())
			return nil, flowErr
		}

		store := frigateconf.NewStore(cfgPath)
		tracker.Line("==> write starter config")
		created, cfgErr := store.WriteInitial()
		tracker.Finish(cfgErr)
		runner.SetTranscript(tracker.Transcript())
		if cfgErr != nil {
			return nil, cfgErr
		}

		details := map[string]string{"Checkout": dir}
		if created {
			details["Config"] = cfgPath + " (created)"
		} else {
			details["Config"] = cfgPath + " (already present)"
		}
		if info, statusErr := in.CheckoutStatus(ctx); statusErr == nil && info.Branch != "" {
			details["Branch"] = info.Branch
		}
		return details, nil
	})
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	return nil
}

// watchCmd implements the 'watch' command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the config file for outside edits",
	Long: `Poll Frigate's config.yaml and report every change made on disk.

Each change is loaded and validated as it lands, so a typo made while
hand-editing the file shows up immediately instead of at the next
container restart. Stop with Ctrl+C.`,
	Example: `  # Watch with the default 1s poll interval
  frigatemx-launcher watch

  # Poll less often
  frigatemx-launcher watch --interval 10s`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchInterval, "interval", "", "Poll interval (e.g. 500ms, 2s; default: from settings)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	logging.InitializeFromEnv()

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	interval := time.Duration(0)
	if watchInterval != "" {
		interval, err = time.ParseDuration(watchInterval)
		if err != nil {
			return fmt.Errorf("invalid interval value: %w", err)
		}
	} else if settings, serr := config.LoadSettings(); serr == nil {
		interval = settings.Frigate.WatchInterval
	}

	store := frigateconf.NewStore(path)
	onChange := func(string) {
		stamp := time.Now().Format("15:04:05")
		doc, report, loadErr := store.Load()
		if loadErr != nil {
			fmt.Printf("[%s] changed, unreadable: %v\n", stamp, loadErr)
			return
		}
		if report.HasFindings() {
			fmt.Printf("[%s] changed, recovered: %s\n", stamp, report.Summary())
			return
		}
		if problems := frigateconf.ValidateDocument(doc); len(problems) > 0 {
			fmt.Printf("[%s] changed, %d problem(s):\n", stamp, len(problems))
			for _, p := range problems {
				fmt.Printf("    - %v\n", p)
			}
			return
		}
		fmt.Printf("[%s] changed, valid (%d camera(s))\n", stamp, doc.Cameras().Len())
	}

	watcher := frigateconf.NewWatcher(path, onChange)
	watcher.Interval = interval

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", path)

	ctx, cancel := opContext()
	defer cancel()

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	fmt.Println("\nStopped.")
	return nil
}
