package scenario

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

type cleanup struct {
	key string
	fn  func(context.Context) error
}

// Scope collects the cleanup actions of one case and runs them in reverse
// registration order when closed. Each key is registered at most once.
type Scope struct {
	mu       sync.Mutex
	cleanups []cleanup
	keys     map[string]struct{}
	closed   bool
}

// NewScope returns an empty Scope.
func NewScope() *Scope {
	return &Scope{keys: make(map[string]struct{})}
}

// Defer registers fn under key. It returns false when key is already
// registered or the scope is closed; fn is then dropped.
func (s *Scope) Defer(key string, fn func(context.Context) error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if _, dup := s.keys[key]; dup {
		return false
	}
	s.keys[key] = struct{}{}
	s.cleanups = append(s.cleanups, cleanup{key: key, fn: fn})
	return true
}

// Forget drops the cleanup registered under key, if any.
func (s *Scope) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; !ok {
		return
	}
	delete(s.keys, key)
	for i, c := range s.cleanups {
		if c.key == key {
			s.cleanups = append(s.cleanups[:i], s.cleanups[i+1:]...)
			break
		}
	}
}

// Keys returns the registered keys in registration order.
func (s *Scope) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, len(s.cleanups))
	for i, c := range s.cleanups {
		keys[i] = c.key
	}
	return keys
}

// Close runs every cleanup, newest first. A failing cleanup does not stop
// the others; all errors are returned combined. Close is idempotent.
func (s *Scope) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cleanups := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()

	var err error
	for i := len(cleanups) - 1; i >= 0; i-- {
		err = multierr.Append(err, cleanups[i].fn(ctx))
	}
	return err
}
