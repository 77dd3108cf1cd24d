package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// addDeviceNodes drops fake device files into the test device dir.
func addDeviceNodes(t *testing.T, env *testEnv, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(env.in.config.DeviceDir, name)
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func checkByName(t *testing.T, result *PrerequisiteResult, name string) PrerequisiteCheck {
	t.Helper()
	for _, check := range result.Checks {
		if check.Name == name {
			return check
		}
	}
	t.Fatalf("no check named %q in %+v", name, result.Checks)
	return PrerequisiteCheck{}
}

func TestCheckPrerequisitesAllSatisfied(t *testing.T) {
	env := newTestEnv(t)
	addDeviceNodes(t, env, "memx0", "memx0_feature")

	result := env.in.CheckPrerequisites(context.Background())

	if !result.AllAvailable {
		t.Fatalf("AllAvailable = false: %s", FormatPrerequisiteReport(result))
	}
	if len(result.Checks) != 5 {
		t.Fatalf("ran %d checks, want 5", len(result.Checks))
	}

	daemon := checkByName(t, result, "docker daemon")
	if daemon.Version != "27.0.3" {
		t.Errorf("daemon version = %q, want 27.0.3", daemon.Version)
	}

	drivers := checkByName(t, result, "memryx drivers")
	if !strings.Contains(drivers.Version, "memx-drivers 2.1.0-7") {
		t.Errorf("drivers version = %q", drivers.Version)
	}

	devices := checkByName(t, result, "memryx devices")
	if devices.Version != "1 device(s)" {
		t.Errorf("devices = %q, the _feature node must not count", devices.Version)
	}
}

func TestCheckPrerequisitesMissingDocker(t *testing.T) {
	env := newTestEnv(t)
	addDeviceNodes(t, env, "memx0")
	env.in.config.DockerPath = filepath.Join(env.dir, "nonexistent")

	result := env.in.CheckPrerequisites(context.Background())

	if result.AllAvailable {
		t.Fatal("AllAvailable = true with docker missing")
	}
	check := checkByName(t, result, "docker")
	if check.Available {
		t.Error("docker check passed for a missing binary")
	}
	if !strings.Contains(check.Message, "install docker") {
		t.Errorf("message = %q, want an install hint", check.Message)
	}
}

func TestCheckPrerequisitesDaemonDown(t *testing.T) {
	env := newTestEnv(t)
	addDeviceNodes(t, env, "memx0")
	env.mock(t, "docker", env.logLine()+`
case "$1" in
  --version) echo "Docker version 27.0.3, build abcdef0" ;;
  info) echo "Cannot connect to the Docker daemon" >&2; exit 1 ;;
esac`)

	result := env.in.CheckPrerequisites(context.Background())

	check := checkByName(t, result, "docker daemon")
	if check.Available {
		t.Error("daemon check passed while the daemon is down")
	}
	if !strings.Contains(check.Message, "systemctl start docker") {
		t.Errorf("message = %q, want a start hint", check.Message)
	}
	// The binary itself is still there.
	if !checkByName(t, result, "docker").Available {
		t.Error("binary check should pass while only the daemon is down")
	}
}

func TestCheckMemryXPackagesNotInstalled(t *testing.T) {
	env := newTestEnv(t)
	addDeviceNodes(t, env, "memx0")
	env.mock(t, "dpkg-query", "exit 1")
	env.mock(t, "dpkg", "exit 1")

	result := env.in.CheckPrerequisites(context.Background())

	check := checkByName(t, result, "memryx drivers")
	if check.Available {
		t.Error("drivers check passed with nothing installed")
	}
	if !strings.Contains(check.Message, "memx-drivers is not installed") {
		t.Errorf("message = %q, want the missing package named", check.Message)
	}
	if !strings.Contains(check.Message, "install memryx") {
		t.Errorf("message = %q, want an install hint", check.Message)
	}
}

func TestCheckMemryXPackagesWrongSeries(t *testing.T) {
	env := newTestEnv(t)
	addDeviceNodes(t, env, "memx0")
	env.mock(t, "dpkg-query", `case "$2" in
  '-f=${Version}') echo "1.2.3-1" ;;
  '-f=${Status}') echo "install ok installed" ;;
esac`)

	result := env.in.CheckPrerequisites(context.Background())

	check := checkByName(t, result, "memryx drivers")
	if check.Available {
		t.Error("drivers check passed on the wrong series")
	}
	if !strings.Contains(check.Message, "series 1.2") {
		t.Errorf("message = %q, want the installed series named", check.Message)
	}
	if !strings.Contains(check.Message, "2.1") {
		t.Errorf("message = %q, want the supported series named", check.Message)
	}
}

func TestCheckMemryXDevicesMissing(t *testing.T) {
	env := newTestEnv(t)

	result := env.in.CheckPrerequisites(context.Background())

	check := checkByName(t, result, "memryx devices")
	if check.Available {
		t.Error("devices check passed with an empty device dir")
	}
	if !strings.Contains(check.Message, "reboot") {
		t.Errorf("message = %q, want the reboot hint", check.Message)
	}
}

func TestFormatPrerequisiteReport(t *testing.T) {
	result := &PrerequisiteResult{
		Checks: []PrerequisiteCheck{
			{
				Name:      "git",
				Available: true,
				Path:      "/usr/bin/git",
				Version:   "git version 2.43.0",
				Message:   "Found at /usr/bin/git",
			},
			{
				Name:    "memryx drivers",
				Message: "memx-drivers is not installed\nInstall the stack with: frigatemx-launcher install memryx",
			},
		},
		AllAvailable: false,
	}

	report := FormatPrerequisiteReport(result)

	if !strings.Contains(report, "✓ git") {
		t.Error("report misses the passing check mark")
	}
	if !strings.Contains(report, "  Version: git version 2.43.0") {
		t.Error("report misses the version line")
	}
	if !strings.Contains(report, "✗ memryx drivers") {
		t.Error("report misses the failing check mark")
	}
	if !strings.Contains(report, "  Install the stack with: frigatemx-launcher install memryx") {
		t.Error("report misses the indented fix hint")
	}
	if !strings.Contains(report, "Some prerequisites are missing") {
		t.Error("report misses the failing summary line")
	}

	result.Checks = result.Checks[:1]
	result.AllAvailable = true
	report = FormatPrerequisiteReport(result)
	if !strings.Contains(report, "All prerequisites are satisfied.") {
		t.Error("report misses the passing summary line")
	}
}
