package cache

import (
	"errors"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
)

// state is the shared shape of a resource cache: the cached list, the
// currently focused item and the last error message, guarded by one lock.
type state[T any] struct {
	mu        sync.RWMutex
	items     []T
	current   *T
	lastError string
	lastSync  time.Time
}

// Snapshot is a point-in-time copy of a cache's contents.
type Snapshot[T any] struct {
	Items     []T
	Current   *T
	LastError string
	LastSync  time.Time
}

func (s *state[T]) snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]T, len(s.items))
	copy(items, s.items)

	var current *T
	if s.current != nil {
		c := *s.current
		current = &c
	}

	return Snapshot[T]{
		Items:     items,
		Current:   current,
		LastError: s.lastError,
		LastSync:  s.lastSync,
	}
}

func (s *state[T]) replaceAll(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.lastError = ""
	s.lastSync = time.Now().UTC()
}

// apply reconciles one mutation into the list and keeps the focused item in
// step when it is the one that changed.
func (s *state[T]) apply(item T, op Op, key func(T) string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = Reconcile(s.items, item, op, key)
	s.lastError = ""

	if s.current == nil {
		return
	}
	if key(*s.current) != key(item) {
		return
	}
	switch op {
	case OpUpdate:
		c := item
		s.current = &c
	case OpDelete:
		s.current = nil
	}
}

func (s *state[T]) setCurrent(item *T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item == nil {
		s.current = nil
		return
	}
	c := *item
	s.current = &c
	s.lastError = ""
}

func (s *state[T]) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

// userFacing keeps upstream 4xx messages verbatim and substitutes the given
// fallback for transport-level failures, so admins see either exactly what
// the platform said or a stable local message, never wire internals.
func userFacing(err error, fallbackMsg string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status == http.StatusBadGateway || appErr.Status >= http.StatusInternalServerError {
			return apperrors.Upstream(fallbackMsg, err)
		}
		return err
	}
	return apperrors.Upstream(fallbackMsg, err)
}
