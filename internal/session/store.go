// Package session keeps one FilterState per dashboard viewer in memory.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-dashboard/internal/domain"
	"github.com/spec-kit/ticket-dashboard/internal/filter"
)

// Session owns a single FilterState. Updates are serialized so each event is
// processed to completion before the next one for the same session starts.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu    sync.Mutex
	state domain.FilterState
	// unix nanoseconds; read without mu so sweeps never wait on an in-flight event
	lastUsed atomic.Int64
}

// State returns a copy of the current filter state.
func (s *Session) State() domain.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter.Clone(s.state)
}

// Update runs fn with the current state under the session lock and stores the
// result when fn succeeds.
func (s *Session) Update(now time.Time, fn func(current domain.FilterState) (domain.FilterState, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(now)
	next, err := fn(s.state)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

// Store indexes live sessions by id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store that evicts sessions idle for longer than ttl.
// A non-positive ttl disables eviction.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new session starting at state.
func (st *Store) Create(state domain.FilterState) *Session {
	now := st.now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		state:     filter.Clone(state),
	}
	sess.touch(now)
	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

// Get returns the session and marks it used.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		sess.touch(st.now())
	}
	return sess, ok
}

// Delete removes a session and reports whether it existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Now returns the store clock.
func (st *Store) Now() time.Time {
	return st.now()
}

// Sweep evicts idle sessions and returns how many were removed. Idle times are
// checked without holding the store lock.
func (st *Store) Sweep() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	st.mu.RLock()
	candidates := make([]*Session, 0, len(st.sessions))
	for _, sess := range st.sessions {
		candidates = append(candidates, sess)
	}
	st.mu.RUnlock()

	var idle []*Session
	for _, sess := range candidates {
		if sess.idleSince().Before(cutoff) {
			idle = append(idle, sess)
		}
	}
	if len(idle) == 0 {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for _, sess := range idle {
		// skip sessions touched or replaced since the scan
		if cur, ok := st.sessions[sess.ID]; !ok || cur != sess || !sess.idleSince().Before(cutoff) {
			continue
		}
		delete(st.sessions, sess.ID)
		removed++
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (st *Store) RunSweeper(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 || st.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				logger.Debug("evicted idle sessions", zap.Int("count", n), zap.Int("remaining", st.Len()))
			}
		}
	}
}
