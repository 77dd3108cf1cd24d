package installer

import (
	"context"
	"fmt"

	"github.com/arlott/frigatemx/internal/urls"
)

const (
	dockerKeyringPath = "/etc/apt/keyrings/docker.asc"
	dockerSourcePath  = "/etc/apt/sources.list.d/docker.list"
	dockerGPGURL      = "https://download.docker.com/linux/ubuntu/gpg"
	dockerAptRepo     = "https://download.docker.com/linux/ubuntu"
)

// dockerPackages is the Docker Engine package set from the official
// install guide.
var dockerPackages = []string{
	"docker-ce",
	"docker-ce-cli",
	"containerd.io",
	"docker-buildx-plugin",
	"docker-compose-plugin",
}

// InstallDocker installs Docker Engine from the official apt
// repository, starts and enables the services, and adds the configured
// user to the docker group. Progress lines stream through onLine. The
// flow is idempotent; rerunning it on a host with docker present
// refreshes the repository files and upgrades the packages.
func (in *Installer) InstallDocker(ctx context.Context, onLine LineFunc) error {
	release, err := in.begin("docker install")
	if err != nil {
		return err
	}
	defer release()

	if err := in.installDocker(ctx, onLine); err != nil {
		return &InstallError{Flow: "docker install", Doc: urls.DockerInstallGuide, Err: err}
	}
	emit(onLine, "Docker Engine installed")
	return nil
}

func (in *Installer) installDocker(ctx context.Context, onLine LineFunc) error {
	if err := in.stepOptional(ctx, onLine, "remove old docker repository files",
		"rm", "-f", dockerSourcePath, dockerKeyringPath); err != nil {
		return err
	}
	if err := in.step(ctx, onLine, "update package lists",
		"apt-get", "update"); err != nil {
		return err
	}
	if err := in.step(ctx, onLine, "install prerequisites",
		"apt-get", "install", "-y", "ca-certificates", "curl"); err != nil {
		return err
	}
	if err := in.step(ctx, onLine, "create keyring directory",
		"install", "-m", "0755", "-d", "/etc/apt/keyrings"); err != nil {
		return err
	}
	if err := in.step(ctx, onLine, "download docker signing key",
		"curl", "-fsSL", dockerGPGURL, "-o", dockerKeyringPath); err != nil {
		return err
	}
	if err := in.step(ctx, onLine, "set signing key permissions",
		"chmod", "a+r", dockerKeyringPath); err != nil {
		return err
	}

	source, err := in.dockerAptSource(ctx)
	if err != nil {
		return err
	}
	if err := in.writeRootFile(ctx, onLine, "add docker apt source", dockerSourcePath, source); err != nil {
		return err
	}

	if err := in.step(ctx, onLine, "refresh package lists",
		"apt-get", "update"); err != nil {
		return err
	}
	installArgs := append([]string{"apt-get", "install", "-y"}, dockerPackages...)
	if err := in.step(ctx, onLine, "install docker packages", installArgs...); err != nil {
		return err
	}

	// containerd restart failures are tolerated; the docker service
	// start below is the check that matters.
	if err := in.stepOptional(ctx, onLine, "restart containerd",
		"systemctl", "restart", "containerd"); err != nil {
		return err
	}
	if err := in.stepOptional(ctx, onLine, "enable containerd",
		"systemctl", "enable", "containerd"); err != nil {
		return err
	}
	if err := in.step(ctx, onLine, "start docker service",
		"systemctl", "start", "docker"); err != nil {
		return err
	}
	if err := in.step(ctx, onLine, "enable docker service",
		"systemctl", "enable", "docker"); err != nil {
		return err
	}

	return in.addUserToDockerGroup(ctx, onLine)
}

// dockerAptSource builds the apt source line for the host architecture
// and Ubuntu release.
func (in *Installer) dockerAptSource(ctx context.Context) (string, error) {
	arch, err := in.debArchitecture(ctx)
	if err != nil {
		return "", &StepError{Step: "detect architecture", Err: err}
	}
	codename, err := osCodename(in.config.OSReleasePath)
	if err != nil {
		return "", &StepError{Step: "detect ubuntu release", Err: err}
	}
	return fmt.Sprintf("deb [arch=%s signed-by=%s] %s %s stable\n",
		arch, dockerKeyringPath, dockerAptRepo, codename), nil
}

// addUserToDockerGroup lets the configured user talk to the docker
// socket without sudo. Group creation is tolerated to fail because the
// package install usually creates the group already.
func (in *Installer) addUserToDockerGroup(ctx context.Context, onLine LineFunc) error {
	if in.config.DockerGroupUser == "" {
		emit(onLine, "==> skip docker group setup")
		return nil
	}
	if err := in.stepOptional(ctx, onLine, "create docker group",
		"groupadd", "docker"); err != nil {
		return err
	}
	return in.step(ctx, onLine, "add user to docker group",
		"usermod", "-aG", "docker", in.config.DockerGroupUser)
}
