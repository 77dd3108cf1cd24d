package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arlott/frigatemx/internal/urls"
)

func TestInstallMemryXSequence(t *testing.T) {
	env := newTestEnv(t)
	captured := filepath.Join(env.dir, "captured")
	env.mock(t, "sudo", env.logLine()+`
if [ "$1" = "mv" ]; then cat "$2" > `+captured+`; fi`)

	if err := env.in.InstallMemryX(context.Background(), nil); err != nil {
		t.Fatalf("InstallMemryX failed: %v", err)
	}

	want := []string{
		"apt-mark unhold memx-drivers memx-accl mxa-manager",
		"install -m 0755 -d /etc/apt/keyrings",
		"curl -fsSL https://developer.memryx.com/deb/memryx.asc -o /etc/apt/keyrings/memryx.asc",
		"chmod a+r /etc/apt/keyrings/memryx.asc",
		"mv ",
		"apt-get update",
		"apt-get install -y dkms linux-headers-6.8.0-45-generic",
		"apt-get install -y memx-drivers=2.1.*",
		"apt-get install -y memx-accl=2.1.* mxa-manager=2.1.*",
		"apt-mark hold memx-drivers memx-accl mxa-manager",
	}
	got := env.sudoCommands(t)
	if len(got) != len(want) {
		t.Fatalf("ran %d privileged commands, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i, line := range got {
		if want[i] == "mv " {
			if !strings.HasPrefix(line, "mv ") ||
				!strings.HasSuffix(line, " /etc/apt/sources.list.d/memryx.list") {
				t.Errorf("command %d = %q, want mv <tmp> memryx.list", i, line)
			}
			continue
		}
		if line != want[i] {
			t.Errorf("command %d = %q, want %q", i, line, want[i])
		}
	}

	source, err := os.ReadFile(captured)
	if err != nil {
		t.Fatalf("apt source was never staged: %v", err)
	}
	wantSource := "deb [signed-by=/etc/apt/keyrings/memryx.asc] https://developer.memryx.com/deb stable main\n"
	if string(source) != wantSource {
		t.Errorf("apt source = %q, want %q", source, wantSource)
	}
}

func TestInstallMemryXArm64RunsBoardSetup(t *testing.T) {
	env := newTestEnv(t)
	env.mock(t, "dpkg", env.logLine()+`
if [ "$1" = "--print-architecture" ]; then echo arm64; fi`)

	if err := env.in.InstallMemryX(context.Background(), nil); err != nil {
		t.Fatalf("InstallMemryX failed: %v", err)
	}

	got := env.sudoCommands(t)
	drivers, setup, runtime := -1, -1, -1
	for i, line := range got {
		switch {
		case strings.HasPrefix(line, "apt-get install -y memx-drivers="):
			drivers = i
		case line == "mx_arm_setup":
			setup = i
		case strings.HasPrefix(line, "apt-get install -y memx-accl="):
			runtime = i
		}
	}
	if setup == -1 {
		t.Fatalf("mx_arm_setup never ran on arm64:\n%s", strings.Join(got, "\n"))
	}
	if !(drivers < setup && setup < runtime) {
		t.Errorf("board setup out of order: drivers=%d setup=%d runtime=%d", drivers, setup, runtime)
	}
}

func TestInstallMemryXAmd64SkipsBoardSetup(t *testing.T) {
	env := newTestEnv(t)

	if err := env.in.InstallMemryX(context.Background(), nil); err != nil {
		t.Fatalf("InstallMemryX failed: %v", err)
	}
	for _, line := range env.sudoCommands(t) {
		if strings.Contains(line, "mx_arm_setup") {
			t.Errorf("mx_arm_setup ran on amd64: %q", line)
		}
	}
}

func TestInstallMemryXStepFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mock(t, "sudo", env.logLine()+`
case "$*" in
  *memx-drivers*)
    case "$1" in
      apt-get) echo "E: Version '2.1.*' for 'memx-drivers' was not found" >&2; exit 100 ;;
    esac ;;
esac`)

	err := env.in.InstallMemryX(context.Background(), nil)

	var installErr *InstallError
	if !errors.As(err, &installErr) {
		t.Fatalf("error = %v, want InstallError", err)
	}
	if installErr.Doc != urls.MemryXDeveloperHub {
		t.Errorf("Doc = %q, want the developer hub", installErr.Doc)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("no StepError in chain: %v", err)
	}
	if stepErr.Step != "install memryx drivers" {
		t.Errorf("failing step = %q", stepErr.Step)
	}
}

func TestInstallMemryXAnnouncesReboot(t *testing.T) {
	env := newTestEnv(t)

	var lines []string
	if err := env.in.InstallMemryX(context.Background(), func(line string) {
		lines = append(lines, line)
	}); err != nil {
		t.Fatalf("InstallMemryX failed: %v", err)
	}

	found := false
	for _, line := range lines {
		if strings.Contains(line, "reboot") {
			found = true
		}
	}
	if !found {
		t.Errorf("progress lines %v never mention the required reboot", lines)
	}
}
