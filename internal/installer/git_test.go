package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// gitCommands returns the logged git invocations with the binary name
// and the -C <dir> prefix stripped.
func gitCommands(t *testing.T, env *testEnv) []string {
	t.Helper()
	var out []string
	for _, line := range env.commands(t) {
		rest, ok := strings.CutPrefix(line, "git ")
		if !ok {
			continue
		}
		if inRepo, ok := strings.CutPrefix(rest, "-C "+env.in.config.CheckoutDir+" "); ok {
			rest = inRepo
		}
		out = append(out, rest)
	}
	return out
}

// makeCheckout creates a fake git checkout directory.
func makeCheckout(t *testing.T, env *testEnv) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(env.in.config.CheckoutDir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestEnsureCheckoutClones(t *testing.T) {
	env := newTestEnv(t)

	if err := env.in.EnsureCheckout(context.Background(), nil); err != nil {
		t.Fatalf("EnsureCheckout failed: %v", err)
	}

	got := gitCommands(t, env)
	want := "clone https://github.com/blakeblackshear/frigate.git " + env.in.config.CheckoutDir
	if len(got) != 1 || got[0] != want {
		t.Errorf("git commands = %v, want [%s]", got, want)
	}
}

func TestEnsureCheckoutReplacesNonGitDir(t *testing.T) {
	env := newTestEnv(t)
	if err := os.MkdirAll(env.in.config.CheckoutDir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(env.in.config.CheckoutDir, "leftover.txt")
	if err := os.WriteFile(stale, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := env.in.EnsureCheckout(context.Background(), nil); err != nil {
		t.Fatalf("EnsureCheckout failed: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale directory content survived the replacement")
	}
	got := gitCommands(t, env)
	if len(got) != 1 || !strings.HasPrefix(got[0], "clone ") {
		t.Errorf("git commands = %v, want a single clone", got)
	}
}

func TestEnsureCheckoutRefreshClean(t *testing.T) {
	env := newTestEnv(t)
	makeCheckout(t, env)
	env.mock(t, "git", env.logLine()+`
case "$*" in
  *"branch --show-current") echo "dev" ;;
esac`)

	if err := env.in.EnsureCheckout(context.Background(), nil); err != nil {
		t.Fatalf("EnsureCheckout failed: %v", err)
	}

	want := []string{
		"fetch origin",
		"branch --show-current",
		"status --porcelain",
		"pull origin dev",
	}
	got := gitCommands(t, env)
	if len(got) != len(want) {
		t.Fatalf("git commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEnsureCheckoutStashesDirtyTree(t *testing.T) {
	env := newTestEnv(t)
	makeCheckout(t, env)
	env.mock(t, "git", env.logLine()+`
case "$*" in
  *"branch --show-current") echo "dev" ;;
  *"status --porcelain") echo " M config/config.yml" ;;
esac`)

	if err := env.in.EnsureCheckout(context.Background(), nil); err != nil {
		t.Fatalf("EnsureCheckout failed: %v", err)
	}

	got := gitCommands(t, env)
	stash, pull := -1, -1
	for i, cmd := range got {
		switch cmd {
		case "stash":
			stash = i
		case "pull origin dev":
			pull = i
		}
	}
	if stash == -1 {
		t.Fatalf("dirty tree was not stashed: %v", got)
	}
	if !(stash < pull) {
		t.Errorf("stash must come before pull: %v", got)
	}
}

func TestEnsureCheckoutDetachedHead(t *testing.T) {
	env := newTestEnv(t)
	makeCheckout(t, env)
	// branch --show-current prints nothing on a detached HEAD.
	env.mock(t, "git", env.logLine())

	var lines []string
	if err := env.in.EnsureCheckout(context.Background(), func(line string) {
		lines = append(lines, line)
	}); err != nil {
		t.Fatalf("EnsureCheckout failed: %v", err)
	}

	for _, cmd := range gitCommands(t, env) {
		if strings.HasPrefix(cmd, "pull") || cmd == "stash" {
			t.Errorf("detached HEAD should not be touched, ran %q", cmd)
		}
	}
	found := false
	for _, line := range lines {
		if strings.Contains(line, "detached") {
			found = true
		}
	}
	if !found {
		t.Errorf("progress lines %v never mention the detached HEAD", lines)
	}
}

func TestEnsureCheckoutToleratesPullFailure(t *testing.T) {
	env := newTestEnv(t)
	makeCheckout(t, env)
	env.mock(t, "git", env.logLine()+`
case "$*" in
  *"branch --show-current") echo "dev" ;;
  *" pull "*) echo "fatal: unable to access remote" >&2; exit 1 ;;
esac`)

	var lines []string
	if err := env.in.EnsureCheckout(context.Background(), func(line string) {
		lines = append(lines, line)
	}); err != nil {
		t.Fatalf("EnsureCheckout must tolerate a failed pull, got %v", err)
	}

	found := false
	for _, line := range lines {
		if strings.Contains(line, "pull failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("progress lines %v never mention the failed pull", lines)
	}
}

func TestEnsureCheckoutFetchFailureIsFatal(t *testing.T) {
	env := newTestEnv(t)
	makeCheckout(t, env)
	env.mock(t, "git", env.logLine()+`
case "$*" in
  *" fetch "*) echo "fatal: could not resolve host" >&2; exit 128 ;;
esac`)

	err := env.in.EnsureCheckout(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error when fetch fails")
	}
	if !strings.Contains(err.Error(), "fetch upstream changes") {
		t.Errorf("error %q does not name the failing step", err)
	}
}

func TestCheckoutStatus(t *testing.T) {
	t.Run("missing checkout", func(t *testing.T) {
		env := newTestEnv(t)
		info, err := env.in.CheckoutStatus(context.Background())
		if err != nil {
			t.Fatalf("CheckoutStatus failed: %v", err)
		}
		if info.Exists {
			t.Error("Exists = true for a missing checkout")
		}
	})

	t.Run("dirty checkout on a branch", func(t *testing.T) {
		env := newTestEnv(t)
		makeCheckout(t, env)
		env.mock(t, "git", env.logLine()+`
case "$*" in
  *"branch --show-current") echo "dev" ;;
  *"status --porcelain") echo "?? scratch.txt" ;;
esac`)

		info, err := env.in.CheckoutStatus(context.Background())
		if err != nil {
			t.Fatalf("CheckoutStatus failed: %v", err)
		}
		if !info.Exists || info.Branch != "dev" || !info.Dirty {
			t.Errorf("info = %+v, want exists on dev and dirty", info)
		}
	})
}
