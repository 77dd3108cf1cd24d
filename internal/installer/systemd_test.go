package installer

import (
	"context"
	"strings"
	"testing"
)

func TestServiceActive(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "active unit",
			body: "echo active",
			want: true,
		},
		{
			name: "inactive unit",
			body: "echo inactive\nexit 3",
			want: false,
		},
		{
			name: "unknown unit",
			body: "echo inactive\nexit 4",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.mock(t, "systemctl", env.logLine()+"\n"+tt.body)

			got, err := env.in.ServiceActive(context.Background(), "docker")
			if err != nil {
				t.Fatalf("ServiceActive failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ServiceActive = %v, want %v", got, tt.want)
			}

			commands := env.commands(t)
			if len(commands) != 1 || commands[0] != "systemctl is-active docker" {
				t.Errorf("commands = %v, want [systemctl is-active docker]", commands)
			}
		})
	}
}

func TestStartDockerDaemonSequence(t *testing.T) {
	env := newTestEnv(t)

	if err := env.in.StartDockerDaemon(context.Background(), nil); err != nil {
		t.Fatalf("StartDockerDaemon failed: %v", err)
	}

	want := []string{
		"systemctl stop docker",
		"systemctl stop docker.socket",
		"rm -rf /var/run/docker.sock /var/run/docker",
		"systemctl start docker",
		"systemctl enable docker",
	}
	got := env.sudoCommands(t)
	if len(got) != len(want) {
		t.Fatalf("ran %d commands, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStartDockerDaemonToleratesStopFailures(t *testing.T) {
	env := newTestEnv(t)
	env.mock(t, "sudo", env.logLine()+`
if [ "$2" = "stop" ]; then
  echo "Failed to stop docker.service: Unit not loaded." >&2
  exit 5
fi`)

	if err := env.in.StartDockerDaemon(context.Background(), nil); err != nil {
		t.Fatalf("StartDockerDaemon failed on tolerated stop: %v", err)
	}

	got := env.sudoCommands(t)
	last := got[len(got)-1]
	if last != "systemctl enable docker" {
		t.Errorf("flow did not run to completion, last command = %q", last)
	}
}

func TestStartDockerDaemonStartFailureIsFatal(t *testing.T) {
	env := newTestEnv(t)
	env.mock(t, "sudo", env.logLine()+`
if [ "$2" = "start" ]; then
  echo "Failed to start docker.service" >&2
  exit 1
fi`)

	err := env.in.StartDockerDaemon(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error when start fails")
	}
	if !strings.Contains(err.Error(), "start docker service") {
		t.Errorf("error %q does not name the failing step", err)
	}
}
