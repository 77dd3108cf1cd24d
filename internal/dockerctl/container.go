package dockerctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// ContainerName is the fixed name of the managed container.
	ContainerName = "frigate"

	// ImageName is the fixed tag of the locally built image.
	ImageName = "frigate"

	// DefaultLogTail is how many trailing log lines Logs fetches when
	// the caller does not say.
	DefaultLogTail = 200
)

// defaultLogPollInterval is how often FollowLogs re-reads the tail.
const defaultLogPollInterval = 3 * time.Second

// Build builds the Frigate image from the checkout. Output streams to
// onLine as it is produced.
func (r *Runner) Build(ctx context.Context, onLine LineFunc) error {
	release, err := r.gate.Begin("build")
	if err != nil {
		return err
	}
	defer release()
	return r.doBuild(ctx, onLine)
}

func (r *Runner) doBuild(ctx context.Context, onLine LineFunc) error {
	if _, err := os.Stat(r.config.CheckoutDir); err != nil {
		return &MissingCheckoutError{Dir: r.config.CheckoutDir}
	}

	r.logger.Info("building frigate image",
		zap.String("checkout", r.config.CheckoutDir),
	)
	_, err := r.docker(ctx, r.config.Timeout, r.config.CheckoutDir, onLine,
		"build", "-t", ImageName, "-f", "docker/main/Dockerfile", ".")
	return err
}

// Run creates and starts a new container from the local image.
func (r *Runner) Run(ctx context.Context) error {
	release, err := r.gate.Begin("run")
	if err != nil {
		return err
	}
	defer release()
	return r.doRun(ctx)
}

func (r *Runner) doRun(ctx context.Context) error {
	if _, err := os.Stat(r.config.CheckoutDir); err != nil {
		return &MissingCheckoutError{Dir: r.config.CheckoutDir}
	}

	// The config mount must be an absolute path or docker treats it
	// as a named volume.
	dir, err := filepath.Abs(r.config.CheckoutDir)
	if err != nil {
		return err
	}

	r.logger.Info("creating frigate container", zap.String("checkout", dir))
	_, err = r.docker(ctx, r.config.Timeout, "", nil, runArgs(dir)...)
	return err
}

// runArgs is the container creation argv: tmpfs cache, bumped shm for
// frame buffers, the mxa_manager socket shared from the host, the
// standard UI/RTSP/WebRTC ports and the first MemryX device.
func runArgs(checkoutDir string) []string {
	return []string{
		"run", "-d",
		"--name", ContainerName,
		"--restart=unless-stopped",
		"--mount", "type=tmpfs,target=/tmp/cache,tmpfs-size=1000000000",
		"--shm-size=256m",
		"-v", filepath.Join(checkoutDir, "config") + ":/config",
		"-v", "/run/mxa_manager:/run/mxa_manager",
		"-e", "FRIGATE_RTSP_PASSWORD=password",
		"--privileged=true",
		"-p", "8971:8971",
		"-p", "8554:8554",
		"-p", "5000:5000",
		"-p", "8555:8555/tcp",
		"-p", "8555:8555/udp",
		"--device", "/dev/memx0",
		ImageName,
	}
}

// Start starts the existing stopped container.
func (r *Runner) Start(ctx context.Context) error {
	release, err := r.gate.Begin("start")
	if err != nil {
		return err
	}
	defer release()
	return r.doStart(ctx)
}

func (r *Runner) doStart(ctx context.Context) error {
	r.logger.Info("starting frigate container")
	_, err := r.docker(ctx, r.config.Timeout, "", nil, "start", ContainerName)
	return err
}

// Stop stops the running container. It does not take the operation
// gate, so it stays available while another operation is in flight.
func (r *Runner) Stop(ctx context.Context) error {
	r.logger.Info("stopping frigate container")
	_, err := r.docker(ctx, r.config.Timeout, "", nil, "stop", ContainerName)
	return err
}

// Restart restarts the container.
func (r *Runner) Restart(ctx context.Context) error {
	release, err := r.gate.Begin("restart")
	if err != nil {
		return err
	}
	defer release()

	r.logger.Info("restarting frigate container")
	_, err = r.docker(ctx, r.config.Timeout, "", nil, "restart", ContainerName)
	return err
}

// Remove stops the container when running and removes it.
func (r *Runner) Remove(ctx context.Context) error {
	release, err := r.gate.Begin("remove")
	if err != nil {
		return err
	}
	defer release()
	return r.doRemove(ctx)
}

func (r *Runner) doRemove(ctx context.Context) error {
	running, err := r.ContainerRunning(ctx)
	if err != nil {
		return err
	}
	if running {
		if _, err := r.docker(ctx, r.config.Timeout, "", nil, "stop", ContainerName); err != nil {
			return err
		}
	}

	r.logger.Info("removing frigate container")
	_, err = r.docker(ctx, r.config.Timeout, "", nil, "rm", ContainerName)
	return err
}

// UpAction describes what Up had to do.
type UpAction int

const (
	// UpNoop means the container was already running
	UpNoop UpAction = iota
	// UpStarted means an existing container was started
	UpStarted
	// UpCreated means a container was created from the existing image
	UpCreated
	// UpBuiltAndCreated means the image was built before creating
	UpBuiltAndCreated
)

func (a UpAction) String() string {
	switch a {
	case UpNoop:
		return "already running"
	case UpStarted:
		return "started"
	case UpCreated:
		return "created"
	case UpBuiltAndCreated:
		return "built and created"
	default:
		return "UpAction(" + strconv.Itoa(int(a)) + ")"
	}
}

// Up ensures the container is running: it starts the existing container
// when stopped, creates one when absent, and builds the image first
// when that is missing too. Build output streams to onLine.
func (r *Runner) Up(ctx context.Context, onLine LineFunc) (UpAction, error) {
	release, err := r.gate.Begin("start")
	if err != nil {
		return UpNoop, err
	}
	defer release()

	exists, err := r.ContainerExists(ctx)
	if err != nil {
		return UpNoop, err
	}
	if exists {
		running, err := r.ContainerRunning(ctx)
		if err != nil {
			return UpNoop, err
		}
		if running {
			return UpNoop, nil
		}
		return UpStarted, r.doStart(ctx)
	}

	built, err := r.ImageExists(ctx)
	if err != nil {
		return UpNoop, err
	}
	if !built {
		if err := r.doBuild(ctx, onLine); err != nil {
			return UpNoop, err
		}
		return UpBuiltAndCreated, r.doRun(ctx)
	}
	return UpCreated, r.doRun(ctx)
}

// Rebuild tears the container down, rebuilds the image from the
// checkout and creates a fresh container. Build output streams to
// onLine.
func (r *Runner) Rebuild(ctx context.Context, onLine LineFunc) error {
	release, err := r.gate.Begin("rebuild")
	if err != nil {
		return err
	}
	defer release()

	exists, err := r.ContainerExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err := r.doRemove(ctx); err != nil {
			return err
		}
	}
	if err := r.doBuild(ctx, onLine); err != nil {
		return err
	}
	return r.doRun(ctx)
}

// ContainerExists reports whether the frigate container exists in any
// state.
func (r *Runner) ContainerExists(ctx context.Context) (bool, error) {
	return r.psMatch(ctx, true)
}

// ContainerRunning reports whether the frigate container is currently
// running.
func (r *Runner) ContainerRunning(ctx context.Context) (bool, error) {
	return r.psMatch(ctx, false)
}

// psMatch lists container names through docker ps and looks for an
// exact line match. The name filter matches substrings, so a container
// named frigate-old would otherwise pass for frigate.
func (r *Runner) psMatch(ctx context.Context, all bool) (bool, error) {
	args := []string{"ps"}
	if all {
		args = append(args, "-a")
	}
	args = append(args, "--filter", "name="+ContainerName, "--format", "{{.Names}}")

	result, err := r.docker(ctx, r.config.QueryTimeout, "", nil, args...)
	if err != nil {
		return false, err
	}
	return containsLine(result.Stdout, ContainerName), nil
}

// ImageExists reports whether the locally built frigate image is
// present.
func (r *Runner) ImageExists(ctx context.Context) (bool, error) {
	result, err := r.docker(ctx, r.config.QueryTimeout, "", nil,
		"images", "--filter", "reference="+ImageName, "--format", "{{.Repository}}")
	if err != nil {
		return false, err
	}
	return containsLine(result.Stdout, ImageName), nil
}

// containsLine reports whether any line of s equals want exactly.
func containsLine(s, want string) bool {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == want {
			return true
		}
	}
	return false
}

// Ping checks that the Docker daemon is reachable.
func (r *Runner) Ping(ctx context.Context) error {
	_, err := r.docker(ctx, r.config.QueryTimeout, "", nil,
		"info", "--format", "{{.ServerVersion}}")
	if err == nil {
		return nil
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return &DaemonError{Details: cmdErr.Stderr, Err: err}
	}
	return &DaemonError{Err: err}
}

// Status describes the daemon, image and container state in one
// snapshot.
type Status struct {
	// DaemonUp is whether the Docker daemon answered at all
	DaemonUp bool
	// ImageBuilt is whether the frigate image exists locally
	ImageBuilt bool
	// ContainerExists is whether the container exists in any state
	ContainerExists bool
	// ContainerRunning is whether the container is currently running
	ContainerRunning bool
}

// Status gathers the container and image state. A down daemon is
// reported in the snapshot, not as an error.
func (r *Runner) Status(ctx context.Context) (*Status, error) {
	st := &Status{}
	if err := r.Ping(ctx); err != nil {
		r.logger.Debug("docker daemon unreachable", zap.Error(err))
		return st, nil
	}
	st.DaemonUp = true

	var err error
	if st.ImageBuilt, err = r.ImageExists(ctx); err != nil {
		return st, err
	}
	if st.ContainerExists, err = r.ContainerExists(ctx); err != nil {
		return st, err
	}
	if st.ContainerExists {
		if st.ContainerRunning, err = r.ContainerRunning(ctx); err != nil {
			return st, err
		}
	}
	return st, nil
}

// Logs fetches the last tail lines of container output. A tail of zero
// or less means DefaultLogTail.
func (r *Runner) Logs(ctx context.Context, tail int) (string, error) {
	if tail <= 0 {
		tail = DefaultLogTail
	}
	result, err := r.docker(ctx, r.config.QueryTimeout, "", nil,
		"logs", "--tail", strconv.Itoa(tail), ContainerName)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// FollowLogs polls the container log tail and emits only what changed.
// When new output extends the previous read, the appended part is
// emitted with reset false. When it diverges (container recreated, tail
// window slid past the old text), the full text is emitted with reset
// true so the caller replaces its view. Poll failures are skipped; the
// container may simply not exist yet. Returns ctx.Err() when cancelled.
func (r *Runner) FollowLogs(ctx context.Context, tail int, emit func(chunk string, reset bool)) error {
	ticker := time.NewTicker(r.logPoll)
	defer ticker.Stop()

	var previous string
	for {
		text, err := r.Logs(ctx, tail)
		if err != nil {
			r.logger.Debug("log poll failed", zap.Error(err))
		} else if text != previous {
			if previous != "" && strings.HasPrefix(text, previous) {
				if delta := strings.Trim(text[len(previous):], "\n"); delta != "" {
					emit(delta, false)
				}
			} else {
				emit(text, true)
			}
			previous = text
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
