package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arlott/frigatemx/internal/logging"
)

// ShutdownGrace is how long Shutdown waits for cancelled sessions to
// finish before abandoning them. Scans check cancellation at least every
// read interval, so a healthy session stops well inside this window.
const ShutdownGrace = 800 * time.Millisecond

// Session is one live discovery run tracked by a Registry. The goroutine
// that runs the scan must call End exactly once when it finishes.
type Session struct {
	// ID identifies the session in logs and busy errors
	ID string

	// StartedAt is when the session began
	StartedAt time.Time

	cancel  context.CancelFunc
	done    chan struct{}
	endOnce sync.Once
}

// Done returns a channel closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Registry owns all live discovery sessions for one consumer (the TUI or
// a CLI command). It enforces the one-scan-at-a-time rule and provides a
// bounded shutdown for program exit. Construct one and inject it; there
// is no package-level instance.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	logger   *zap.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logging.GetLogger(),
	}
}

// Begin registers a new scan session. If another session is still
// running it returns a busy error naming when that scan started; scans
// are rejected, never queued.
//
// The returned context is cancelled when the session is stopped or the
// registry shuts down. The caller must run the scan with it and call
// End(session) when the scan returns.
func (r *Registry) Begin(parent context.Context) (*Session, context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, active := range r.sessions {
		return nil, nil, NewBusyError(active.StartedAt)
	}

	ctx, cancel := context.WithCancel(parent)
	session := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	r.sessions[session.ID] = session

	r.logger.Debug("discovery session started", zap.String("session", session.ID))
	return session, ctx, nil
}

// End marks a session finished and deregisters it. Safe to call more
// than once.
func (r *Registry) End(session *Session) {
	if session == nil {
		return
	}

	session.endOnce.Do(func() {
		session.cancel()
		close(session.done)
	})

	r.mu.Lock()
	delete(r.sessions, session.ID)
	r.mu.Unlock()

	r.logger.Debug("discovery session ended", zap.String("session", session.ID))
}

// Active returns the running session, or nil when idle.
func (r *Registry) Active() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, session := range r.sessions {
		return session
	}
	return nil
}

// Stop requests cooperative cancellation of the active session without
// waiting for it to finish. Returns false when no session was running.
func (r *Registry) Stop() bool {
	session := r.Active()
	if session == nil {
		return false
	}
	session.cancel()
	return true
}

// Shutdown cancels every session and waits for them to end, bounded by
// ShutdownGrace and by ctx. Sessions still running after the grace
// period are abandoned with a warning; they hold only a UDP socket and
// exit on their own at the next cancellation check.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.Unlock()

	if len(sessions) == 0 {
		return nil
	}

	for _, session := range sessions {
		session.cancel()
	}

	// The grace context stays expired once hit, so every remaining
	// session is abandoned immediately instead of re-waiting.
	graceCtx, cancelGrace := context.WithTimeout(ctx, ShutdownGrace)
	defer cancelGrace()

	var abandoned []string
	for _, session := range sessions {
		select {
		case <-session.Done():
		case <-graceCtx.Done():
			abandoned = append(abandoned, session.ID)
		}
	}

	if len(abandoned) > 0 {
		err := NewShutdownError(abandoned)
		r.logger.Warn("discovery shutdown incomplete", zap.Strings("abandoned", abandoned))
		return err
	}

	return nil
}
