package installer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/arlott/frigatemx/internal/frigateconf"
)

// PrerequisiteCheck is the outcome of probing one host requirement.
type PrerequisiteCheck struct {
	Name      string
	Available bool
	Path      string // resolved binary path, for LookPath probes
	Version   string
	Message   string // fix hint on failure, context on success
	Error     error  // set when the probe itself broke
}

// PrerequisiteResult aggregates every host probe.
type PrerequisiteResult struct {
	Checks       []PrerequisiteCheck
	AllAvailable bool
}

// CheckPrerequisites probes the host for everything a full frigate
// deployment needs:
//   - git binary
//   - docker binary and a responsive daemon
//   - the MemryX driver stack on the supported series
//   - at least one MemryX device node
func (in *Installer) CheckPrerequisites(ctx context.Context) *PrerequisiteResult {
	result := &PrerequisiteResult{AllAvailable: true}

	probes := []func(context.Context) PrerequisiteCheck{
		in.checkGit,
		in.checkDockerBinary,
		in.checkDockerDaemon,
		in.checkMemryXPackages,
		in.checkMemryXDevices,
	}
	for _, probe := range probes {
		c := probe(ctx)
		result.Checks = append(result.Checks, c)
		result.AllAvailable = result.AllAvailable && c.Available
	}
	return result
}

// checkBinary resolves a binary on PATH and records its version string.
func (in *Installer) checkBinary(ctx context.Context, name, bin, hint string) PrerequisiteCheck {
	path, err := exec.LookPath(bin)
	if err != nil {
		return PrerequisiteCheck{Name: name, Error: err, Message: hint}
	}
	return PrerequisiteCheck{
		Name:      name,
		Available: true,
		Path:      path,
		Version:   in.binaryVersion(ctx, bin, "--version"),
		Message:   "Found at " + path,
	}
}

func (in *Installer) checkGit(ctx context.Context) PrerequisiteCheck {
	return in.checkBinary(ctx, "git", in.config.GitPath,
		"git not found in PATH\nInstall it with: sudo apt-get install git")
}

func (in *Installer) checkDockerBinary(ctx context.Context) PrerequisiteCheck {
	return in.checkBinary(ctx, "docker", in.config.DockerPath,
		"docker not found in PATH\nInstall it with: frigatemx-launcher install docker")
}

// checkDockerDaemon verifies the docker daemon answers, separately from
// the binary check: a stopped daemon is the more common failure.
func (in *Installer) checkDockerDaemon(ctx context.Context) PrerequisiteCheck {
	result, err := in.run(ctx, "", nil, in.config.DockerPath,
		"info", "--format", "{{.ServerVersion}}")
	if err != nil {
		return PrerequisiteCheck{
			Name:    "docker daemon",
			Error:   err,
			Message: "Docker daemon is not reachable\nStart it with: sudo systemctl start docker",
		}
	}
	return PrerequisiteCheck{
		Name:      "docker daemon",
		Available: true,
		Version:   strings.TrimSpace(result.stdout),
		Message:   "Daemon is responding",
	}
}

// checkMemryXPackages verifies the driver stack is installed and on
// the supported series.
func (in *Installer) checkMemryXPackages(ctx context.Context) PrerequisiteCheck {
	c := PrerequisiteCheck{Name: "memryx drivers"}

	versions := make([]string, 0, len(memryxPackages))
	for _, pkg := range memryxPackages {
		version, err := in.PackageVersion(ctx, pkg)
		if err != nil {
			c.Error = err
			c.Message = "Could not query dpkg for the driver packages"
			return c
		}
		if version == "" {
			c.Message = pkg + " is not installed\nInstall the stack with: frigatemx-launcher install memryx"
			return c
		}
		versions = append(versions, pkg+" "+version)
	}
	c.Version = strings.Join(versions, ", ")

	// memx-drivers is first in the set and carries the series.
	if series := majorMinor(strings.Fields(versions[0])[1]); series != memryxSeries {
		c.Message = fmt.Sprintf("Installed series %s does not match the supported %s\n"+
			"Update with: frigatemx-launcher install memryx", series, memryxSeries)
		return c
	}
	c.Available = true
	return c
}

// checkMemryXDevices verifies the accelerator device nodes exist.
func (in *Installer) checkMemryXDevices(_ context.Context) PrerequisiteCheck {
	count, err := frigateconf.CountMemryXDevices(in.config.DeviceDir)
	switch {
	case err != nil:
		return PrerequisiteCheck{
			Name:    "memryx devices",
			Error:   err,
			Message: "Could not scan for device nodes",
		}
	case count == 0:
		return PrerequisiteCheck{
			Name: "memryx devices",
			Message: "No memx device nodes found\n" +
				"Check the accelerator is seated; a reboot is required after a driver install",
		}
	}
	return PrerequisiteCheck{
		Name:      "memryx devices",
		Available: true,
		Version:   fmt.Sprintf("%d device(s)", count),
	}
}

// binaryVersion asks a binary for its version, tolerating failure; a
// missing version string never fails a check on its own.
func (in *Installer) binaryVersion(ctx context.Context, name string, args ...string) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	result, err := in.run(ctx, "", nil, name, args...)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(firstLine(result.stdout))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// FormatPrerequisiteReport renders the probe results as indented text
// for the status command.
func FormatPrerequisiteReport(result *PrerequisiteResult) string {
	var sb strings.Builder
	sb.WriteString("Host Prerequisites Check:\n")
	sb.WriteString(strings.Repeat("━", 42) + "\n\n")

	for _, c := range result.Checks {
		if !c.Available {
			fmt.Fprintf(&sb, "✗ %s\n", c.Name)
			for _, line := range strings.Split(c.Message, "\n") {
				fmt.Fprintf(&sb, "  %s\n", line)
			}
			sb.WriteString("\n")
			continue
		}
		fmt.Fprintf(&sb, "✓ %s\n", c.Name)
		if c.Version != "" {
			fmt.Fprintf(&sb, "  Version: %s\n", c.Version)
		}
		if c.Path != "" {
			fmt.Fprintf(&sb, "  Path: %s\n", c.Path)
		}
		if c.Message != "" {
			fmt.Fprintf(&sb, "  %s\n", c.Message)
		}
		sb.WriteString("\n")
	}

	if result.AllAvailable {
		sb.WriteString("All prerequisites are satisfied.\n")
	} else {
		sb.WriteString("Some prerequisites are missing. Install them before starting frigate.\n")
	}
	return sb.String()
}
