package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FrigateRepoURL is the upstream frigate repository the launcher
// builds from.
const FrigateRepoURL = "https://github.com/blakeblackshear/frigate.git"

// CheckoutInfo describes the state of the frigate source checkout.
type CheckoutInfo struct {
	// Exists is true when the checkout directory is a git repository.
	Exists bool
	// Branch is the checked-out branch, or "" on a detached HEAD.
	Branch string
	// Dirty is true when the working tree has local changes.
	Dirty bool
}

// EnsureCheckout clones the frigate repository, or refreshes an
// existing clone from its upstream. Local edits are stashed before
// pulling so an experiment in the tree cannot block updates. A
// checkout directory that is not a git repository is replaced with a
// fresh clone.
func (in *Installer) EnsureCheckout(ctx context.Context, onLine LineFunc) error {
	release, err := in.begin("checkout refresh")
	if err != nil {
		return err
	}
	defer release()

	dir := in.config.CheckoutDir
	if _, statErr := os.Stat(dir); statErr != nil {
		if !os.IsNotExist(statErr) {
			return fmt.Errorf("failed to inspect checkout dir: %w", statErr)
		}
		return in.clone(ctx, onLine)
	}
	if _, statErr := os.Stat(filepath.Join(dir, ".git")); statErr != nil {
		emit(onLine, "==> replace non-git checkout directory")
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove stale checkout: %w", err)
		}
		return in.clone(ctx, onLine)
	}
	return in.refresh(ctx, onLine)
}

func (in *Installer) clone(ctx context.Context, onLine LineFunc) error {
	emit(onLine, "==> clone frigate repository")
	result, err := in.run(ctx, "", onLine, in.config.GitPath,
		"clone", FrigateRepoURL, in.config.CheckoutDir)
	if err != nil {
		return &StepError{Step: "clone frigate repository", Stderr: resultStderr(result), Err: err}
	}
	return nil
}

func (in *Installer) refresh(ctx context.Context, onLine LineFunc) error {
	emit(onLine, "==> fetch upstream changes")
	if result, err := in.git(ctx, onLine, "fetch", "origin"); err != nil {
		return &StepError{Step: "fetch upstream changes", Stderr: resultStderr(result), Err: err}
	}

	branch, err := in.currentBranch(ctx)
	if err != nil {
		return err
	}
	if branch == "" {
		emit(onLine, "checkout is on a detached HEAD, leaving it alone")
		return nil
	}

	dirty, err := in.isDirty(ctx)
	if err != nil {
		return err
	}
	if dirty {
		emit(onLine, "==> stash local changes")
		if result, err := in.git(ctx, onLine, "stash"); err != nil {
			return &StepError{Step: "stash local changes", Stderr: resultStderr(result), Err: err}
		}
	}

	emit(onLine, "==> pull "+branch)
	if result, err := in.git(ctx, onLine, "pull", "origin", branch); err != nil {
		// A failed pull (diverged history, no network) is not fatal;
		// the existing tree still builds.
		emit(onLine, "pull failed, keeping existing checkout")
		in.logger.Warn("git pull failed",
			zap.String("branch", branch),
			zap.String("stderr", strings.TrimSpace(resultStderr(result))),
			zap.Error(err))
	}
	return nil
}

// git runs a git command against the checkout directory.
func (in *Installer) git(ctx context.Context, onLine LineFunc, args ...string) (*commandResult, error) {
	full := append([]string{"-C", in.config.CheckoutDir}, args...)
	return in.run(ctx, "", onLine, in.config.GitPath, full...)
}

func (in *Installer) currentBranch(ctx context.Context) (string, error) {
	result, err := in.git(ctx, nil, "branch", "--show-current")
	if err != nil {
		return "", &StepError{Step: "detect current branch", Stderr: resultStderr(result), Err: err}
	}
	return strings.TrimSpace(result.stdout), nil
}

func (in *Installer) isDirty(ctx context.Context) (bool, error) {
	result, err := in.git(ctx, nil, "status", "--porcelain")
	if err != nil {
		return false, &StepError{Step: "check working tree", Stderr: resultStderr(result), Err: err}
	}
	return strings.TrimSpace(result.stdout) != "", nil
}

// CheckoutStatus inspects the checkout without changing it.
func (in *Installer) CheckoutStatus(ctx context.Context) (*CheckoutInfo, error) {
	info := &CheckoutInfo{}
	if _, err := os.Stat(filepath.Join(in.config.CheckoutDir, ".git")); err != nil {
		return info, nil
	}
	info.Exists = true

	branch, err := in.currentBranch(ctx)
	if err != nil {
		return nil, err
	}
	info.Branch = branch

	dirty, err := in.isDirty(ctx)
	if err != nil {
		return nil, err
	}
	info.Dirty = dirty
	return info, nil
}
