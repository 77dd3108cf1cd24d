package installer

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// PackageVersion returns the installed version of a package, or ""
// when it is not installed. dpkg-query exits non-zero for packages it
// has never heard of, which is an answer rather than a failure; in
// that case dpkg -l is consulted as a fallback for hosts with older
// dpkg-query format support.
func (in *Installer) PackageVersion(ctx context.Context, name string) (string, error) {
	result, err := in.run(ctx, "", nil, in.config.DpkgQueryPath, "-W", "-f=${Version}", name)
	if err != nil {
		if result != nil && result.exitCode > 0 {
			return in.packageVersionFallback(ctx, name)
		}
		return "", fmt.Errorf("failed to query package %s: %w", name, err)
	}
	return strings.TrimSpace(result.stdout), nil
}

// packageVersionFallback parses dpkg -l output. Lines starting ii or
// hi are installed or held packages; the third field is the version.
func (in *Installer) packageVersionFallback(ctx context.Context, name string) (string, error) {
	result, err := in.run(ctx, "", nil, in.config.DpkgPath, "-l", name)
	if err != nil {
		if result != nil && result.exitCode > 0 {
			return "", nil
		}
		return "", fmt.Errorf("failed to list package %s: %w", name, err)
	}
	for _, line := range strings.Split(result.stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		if fields[0] != "ii" && fields[0] != "hi" {
			continue
		}
		// dpkg -l may qualify the name with an architecture suffix.
		if fields[1] == name || strings.HasPrefix(fields[1], name+":") {
			return fields[2], nil
		}
	}
	return "", nil
}

// PackageInstalled reports whether a package is in the installed
// state, not merely known to dpkg from leftover config files.
func (in *Installer) PackageInstalled(ctx context.Context, name string) (bool, error) {
	result, err := in.run(ctx, "", nil, in.config.DpkgQueryPath, "-W", "-f=${Status}", name)
	if err != nil {
		if result != nil && result.exitCode > 0 {
			return false, nil
		}
		return false, fmt.Errorf("failed to query package %s: %w", name, err)
	}
	return strings.TrimSpace(result.stdout) == "install ok installed", nil
}

// debArchitecture returns dpkg's architecture name (amd64, arm64).
// The apt sources and the vendor board setup both key off it.
func (in *Installer) debArchitecture(ctx context.Context) (string, error) {
	result, err := in.run(ctx, "", nil, in.config.DpkgPath, "--print-architecture")
	if err != nil {
		return "", fmt.Errorf("failed to detect architecture: %w", err)
	}
	return strings.TrimSpace(result.stdout), nil
}

// kernelRelease returns the running kernel version, used to pick the
// matching linux-headers package.
func (in *Installer) kernelRelease(ctx context.Context) (string, error) {
	result, err := in.run(ctx, "", nil, in.config.UnamePath, "-r")
	if err != nil {
		return "", fmt.Errorf("failed to detect kernel release: %w", err)
	}
	return strings.TrimSpace(result.stdout), nil
}

// osCodename reads VERSION_CODENAME from an os-release file.
func osCodename(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read os-release: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		value, ok := strings.CutPrefix(strings.TrimSpace(line), "VERSION_CODENAME=")
		if !ok {
			continue
		}
		return strings.Trim(value, `"'`), nil
	}
	return "", fmt.Errorf("no VERSION_CODENAME in %s", path)
}

// majorMinor reduces a debian version like 2.1.0-7 to its series, 2.1.
func majorMinor(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}
