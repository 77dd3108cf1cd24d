package installer

import (
	"context"
	"fmt"

	"github.com/arlott/frigatemx/internal/urls"
)

const (
	memryxKeyringPath = "/etc/apt/keyrings/memryx.asc"
	memryxSourcePath  = "/etc/apt/sources.list.d/memryx.list"
	memryxGPGURL      = "https://developer.memryx.com/deb/memryx.asc"
	memryxAptRepo     = "https://developer.memryx.com/deb"

	// memryxSeries is the driver series the frigate MemryX detector is
	// validated against. Installs pin to it and hold the packages so a
	// routine apt upgrade cannot drift onto an incompatible series.
	memryxSeries = "2.1"
)

// memryxPackages is the MemryX SDK package set. Order matters for
// install: drivers must be present before the runtime and the manager.
var memryxPackages = []string{"memx-drivers", "memx-accl", "mxa-manager"}

// InstallMemryX installs the MemryX driver stack pinned to the
// supported series and holds the packages there. The same flow also
// moves an older installed series onto the supported one. On ARM
// boards the vendor board setup tool runs between the driver and
// runtime installs. The kernel module builds through dkms, so a reboot
// is required before the devices appear.
func (in *Installer) InstallMemryX(ctx context.Context, onLine LineFunc) error {
	release, err := in.begin("memryx install")
	if err != nil {
		return err
	}
	defer release()

	if err := in.installMemryX(ctx, onLine); err != nil {
		return &InstallError{Flow: "memryx install", Doc: urls.MemryXDeveloperHub, Err: err}
	}
	emit(onLine, "MemryX drivers installed, reboot before first use")
	return nil
}

func (in *Installer) installMemryX(ctx context.Context, onLine LineFunc) error {
	unholdArgs := append([]string{"apt-mark", "unhold"}, memryxPackages...)
	if err := in.stepOptional(ctx, onLine, "remove package holds", unholdArgs...); err != nil {
		return err
	}
	if err := in.step(ctx, onLine, "create keyring directory",
		"install", "-m", "0755", "-d", "/etc/apt/keyrings"); err != nil {
		return err
	}
	if err := in.step(ctx, onLine, "download memryx signing key",
		"curl", "-fsSL", memryxGPGURL, "-o", memryxKeyringPath); err != nil {
		return err
	}
	if err := in.step(ctx, onLine, "set signing key permissions",
		"chmod", "a+r", memryxKeyringPath); err != nil {
		return err
	}

	source := fmt.Sprintf("deb [signed-by=%s] %s stable main\n", memryxKeyringPath, memryxAptRepo)
	if err := in.writeRootFile(ctx, onLine, "add memryx apt source", memryxSourcePath, source); err != nil {
		return err
	}
	if err := in.step(ctx, onLine, "update package lists",
		"apt-get", "update"); err != nil {
		return err
	}

	kernel, err := in.kernelRelease(ctx)
	if err != nil {
		return &StepError{Step: "detect kernel release", Err: err}
	}
	if err := in.step(ctx, onLine, "install kernel headers",
		"apt-get", "install", "-y", "dkms", "linux-headers-"+kernel); err != nil {
		return err
	}

	if err := in.step(ctx, onLine, "install memryx drivers",
		"apt-get", "install", "-y", "memx-drivers="+memryxSeries+".*"); err != nil {
		return err
	}

	arch, err := in.debArchitecture(ctx)
	if err != nil {
		return &StepError{Step: "detect architecture", Err: err}
	}
	if arch == "arm64" {
		if err := in.step(ctx, onLine, "run arm board setup", "mx_arm_setup"); err != nil {
			return err
		}
	}

	if err := in.step(ctx, onLine, "install memryx runtime",
		"apt-get", "install", "-y",
		"memx-accl="+memryxSeries+".*", "mxa-manager="+memryxSeries+".*"); err != nil {
		return err
	}

	holdArgs := append([]string{"apt-mark", "hold"}, memryxPackages...)
	return in.step(ctx, onLine, "hold memryx packages", holdArgs...)
}
