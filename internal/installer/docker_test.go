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

func TestInstallDockerSequence(t *testing.T) {
	env := newTestEnv(t)
	captured := filepath.Join(env.dir, "captured")
	env.mock(t, "sudo", env.logLine()+`
if [ "$1" = "mv" ]; then cat "$2" > `+captured+`; fi`)

	if err := env.in.InstallDocker(context.Background(), nil); err != nil {
		t.Fatalf("InstallDocker failed: %v", err)
	}

	want := []string{
		"rm -f /etc/apt/sources.list.d/docker.list /etc/apt/keyrings/docker.asc",
		"apt-get update",
		"apt-get install -y ca-certificates curl",
		"install -m 0755 -d /etc/apt/keyrings",
		"curl -fsSL https://download.docker.com/linux/ubuntu/gpg -o /etc/apt/keyrings/docker.asc",
		"chmod a+r /etc/apt/keyrings/docker.asc",
		"mv ",
		"apt-get update",
		"apt-get install -y docker-ce docker-ce-cli containerd.io docker-buildx-plugin docker-compose-plugin",
		"systemctl restart containerd",
		"systemctl enable containerd",
		"systemctl start docker",
		"systemctl enable docker",
		"groupadd docker",
		"usermod -aG docker tester",
	}
	got := env.sudoCommands(t)
	if len(got) != len(want) {
		t.Fatalf("ran %d privileged commands, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i, line := range got {
		if want[i] == "mv " {
			if !strings.HasPrefix(line, "mv ") ||
				!strings.HasSuffix(line, " /etc/apt/sources.list.d/docker.list") {
				t.Errorf("command %d = %q, want mv <tmp> docker.list", i, line)
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
	wantSource := "deb [arch=amd64 signed-by=/etc/apt/keyrings/docker.asc] https://download.docker.com/linux/ubuntu noble stable\n"
	if string(source) != wantSource {
		t.Errorf("apt source = %q, want %q", source, wantSource)
	}
}

func TestInstallDockerStepFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mock(t, "sudo", env.logLine()+`
if [ "$1" = "apt-get" ]; then
  echo "E: could not get lock" >&2
  exit 100
fi`)

	err := env.in.InstallDocker(context.Background(), nil)

	var installErr *InstallError
	if !errors.As(err, &installErr) {
		t.Fatalf("error = %v, want InstallError", err)
	}
	if installErr.Flow != "docker install" {
		t.Errorf("Flow = %q", installErr.Flow)
	}
	if installErr.Doc != urls.DockerInstallGuide {
		t.Errorf("Doc = %q, want the install guide", installErr.Doc)
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("InstallError does not wrap a StepError: %v", err)
	}
	if stepErr.Step != "update package lists" {
		t.Errorf("failing step = %q, want update package lists", stepErr.Step)
	}
	if !strings.Contains(err.Error(), "could not get lock") {
		t.Errorf("error text %q misses apt stderr", err.Error())
	}
	if !strings.Contains(err.Error(), urls.DockerInstallGuide) {
		t.Errorf("error text %q misses the manual guide link", err.Error())
	}
}

func TestInstallDockerSkipsGroupWithoutUser(t *testing.T) {
	env := newTestEnv(t)
	env.in.config.DockerGroupUser = ""

	var lines []string
	if err := env.in.InstallDocker(context.Background(), func(line string) {
		lines = append(lines, line)
	}); err != nil {
		t.Fatalf("InstallDocker failed: %v", err)
	}

	for _, cmd := range env.sudoCommands(t) {
		if strings.HasPrefix(cmd, "usermod") || strings.HasPrefix(cmd, "groupadd") {
			t.Errorf("group command ran without a configured user: %q", cmd)
		}
	}
	found := false
	for _, line := range lines {
		if strings.Contains(line, "skip docker group setup") {
			found = true
		}
	}
	if !found {
		t.Errorf("progress lines %v miss the skip notice", lines)
	}
}

func TestInstallDockerBusy(t *testing.T) {
	env := newTestEnv(t)
	release, err := env.in.begin("memryx install")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	err = env.in.InstallDocker(context.Background(), nil)
	var busy *BusyError
	if !errors.As(err, &busy) {
		t.Fatalf("error = %v, want BusyError", err)
	}
	if busy.Running != "memryx install" || busy.Requested != "docker install" {
		t.Errorf("BusyError = %+v", busy)
	}
}

func TestInstallDockerToleratesContainerdRestartFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mock(t, "sudo", env.logLine()+`
if [ "$1" = "systemctl" ] && [ "$3" = "containerd" ]; then exit 1; fi`)

	if err := env.in.InstallDocker(context.Background(), nil); err != nil {
		t.Fatalf("InstallDocker failed on tolerated step: %v", err)
	}

	got := env.sudoCommands(t)
	last := got[len(got)-1]
	if last != "usermod -aG docker tester" {
		t.Errorf("flow did not run to completion, last command = %q", last)
	}
}
