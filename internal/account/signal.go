package account

import (
	"context"
	"sync"
)

// Signal is a one-shot readiness gate. It starts pending and becomes
// resolved on the first Complete call; later calls are no-ops. Readers wait
// on Done or Wait before proceeding.
type Signal struct {
	once sync.Once
	done chan struct{}
}

// NewSignal creates a pending signal.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Complete resolves the signal. Safe to call more than once.
func (s *Signal) Complete() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Done returns a channel that is closed once the signal resolves.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the signal resolves or the context is cancelled.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
