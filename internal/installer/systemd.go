package installer

import (
	"context"
	"fmt"
	"strings"
)

// ServiceActive reports whether a systemd unit is active. The query
// runs unprivileged; is-active exits non-zero for inactive units,
// which is an answer rather than a failure.
func (in *Installer) ServiceActive(ctx context.Context, unit string) (bool, error) {
	result, err := in.run(ctx, "", nil, in.config.SystemctlPath, "is-active", unit)
	if err != nil {
		if result != nil && result.exitCode > 0 {
			return false, nil
		}
		return false, fmt.Errorf("failed to query %s: %w", unit, err)
	}
	return strings.TrimSpace(result.stdout) == "active", nil
}

// StartDockerDaemon recovers a wedged docker daemon. Both the service
// and its activation socket are stopped, stale socket files are
// removed, and the service is started and enabled again. The stop and
// cleanup steps are tolerated to fail since the units may not be
// running in the first place.
func (in *Installer) StartDockerDaemon(ctx context.Context, onLine LineFunc) error {
	release, err := in.begin("docker daemon start")
	if err != nil {
		return err
	}
	defer release()

	if err := in.stepOptional(ctx, onLine, "stop docker service",
		"systemctl", "stop", "docker"); err != nil {
		return err
	}
	if err := in.stepOptional(ctx, onLine, "stop docker socket",
		"systemctl", "stop", "docker.socket"); err != nil {
		return err
	}
	if err := in.stepOptional(ctx, onLine, "remove stale socket files",
		"rm", "-rf", "/var/run/docker.sock", "/var/run/docker"); err != nil {
		return err
	}
	if err := in.step(ctx, onLine, "start docker service",
		"systemctl", "start", "docker"); err != nil {
		return err
	}
	return in.step(ctx, onLine, "enable docker service",
		"systemctl", "enable", "docker")
}
