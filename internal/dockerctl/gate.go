package dockerctl

import "sync"

// OperationGate serializes container lifecycle operations. Only one may
// run at a time; a second request fails fast with a BusyError naming the
// operation in flight rather than queueing behind it.
type OperationGate struct {
	mu      sync.Mutex
	current string
}

// Begin claims the gate for op. It returns a release function to call
// when the operation finishes, or a BusyError when another operation
// holds the gate.
func (g *OperationGate) Begin(op string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current != "" {
		return nil, &BusyError{Running: g.current, Requested: op}
	}
	g.current = op

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			g.current = ""
			g.mu.Unlock()
		})
	}
	return release, nil
}

// Current returns the operation holding the gate, or "" when idle.
func (g *OperationGate) Current() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}
