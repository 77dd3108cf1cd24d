package frigateconf

import (
	"context"
	"crypto/sha256"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arlott/frigatemx/internal/logging"
)

// DefaultWatchInterval is how often the config file is polled for outside
// edits.
const DefaultWatchInterval = time.Second

// Watcher polls a config file's modification time and reports changes
// made outside this process. Saves made through the Store should be
// bracketed with Suppress/MarkClean/Resume so they do not fire the
// callback.
type Watcher struct {
	// Interval overrides DefaultWatchInterval when positive.
	Interval time.Duration
	// OnChange runs on the watcher goroutine when the file content
	// changed on disk.
	OnChange func(path string)

	path   string
	logger *zap.Logger

	mu         sync.Mutex
	suppressed bool
	primed     bool
	lastMod    time.Time
	lastSize   int64
	lastSum    [sha256.Size]byte
}

// NewWatcher returns a watcher for the given config file.
func NewWatcher(path string, onChange func(path string)) *Watcher {
	return &Watcher{
		path:     path,
		OnChange: onChange,
		logger:   logging.GetLogger(),
	}
}

// Suppress pauses change notifications. State still updates on polls, so
// a Resume does not replay changes seen while suppressed.
func (w *Watcher) Suppress() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.suppressed = true
}

// Resume re-enables change notifications.
func (w *Watcher) Resume() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.suppressed = false
}

// MarkClean records the current file state so it is not reported as a
// change on the next poll.
func (w *Watcher) MarkClean() {
	w.prime()
}

// Run polls until the context is cancelled and returns the context error.
func (w *Watcher) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	w.prime()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) prime() {
	info, err := os.Stat(w.path)
	if err != nil {
		w.mu.Lock()
		w.primed = false
		w.mu.Unlock()
		return
	}
	sum := [sha256.Size]byte{}
	if data, rerr := os.ReadFile(w.path); rerr == nil {
		sum = sha256.Sum256(data)
	}
	w.mu.Lock()
	w.primed = true
	w.lastMod = info.ModTime()
	w.lastSize = info.Size()
	w.lastSum = sum
	w.mu.Unlock()
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		w.mu.Lock()
		w.primed = false
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	if !w.primed {
		w.mu.Unlock()
		// The file appeared; record its state without firing.
		w.prime()
		return
	}
	changed := !info.ModTime().Equal(w.lastMod) || info.Size() != w.lastSize
	w.mu.Unlock()
	if !changed {
		return
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		return
	}
	sum := sha256.Sum256(data)

	w.mu.Lock()
	same := sum == w.lastSum
	suppressed := w.suppressed
	w.lastMod = info.ModTime()
	w.lastSize = info.Size()
	w.lastSum = sum
	w.mu.Unlock()

	if same || suppressed {
		return
	}
	w.logger.Info("config file changed on disk", zap.String("path", w.path))
	if w.OnChange != nil {
		w.OnChange(w.path)
	}
}
