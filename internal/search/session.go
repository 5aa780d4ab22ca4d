package search

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultSessionTTL is how long an idle caller session is retained
const DefaultSessionTTL = 30 * time.Minute

// Sessions tracks the in-flight and last accepted search per caller. A new
// search from a caller cancels that caller's previous one, and only the
// result of the most recently issued search is ever committed.
type Sessions struct {
	searcher Searcher
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	latest   *SearchResult
	lastSeen time.Time
}

// NewSessions creates a session tracker around searcher
func NewSessions(searcher Searcher, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		searcher: searcher,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Run issues a search for callerID. ok is false when the call was superseded
// by a newer one from the same caller or was cancelled; in that case there is
// neither a result nor an error.
func (s *Sessions) Run(ctx context.Context, callerID string, q ParsedQuery, f SearchFilters) (res *SearchResult, ok bool, err error) {
	sess := s.acquire(callerID)
	sess.seq++
	token := sess.seq
	if sess.cancel != nil {
		sess.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	sess.cancel = cancel
	sess.mu.Unlock()
	defer cancel()

	res, err = s.searcher.Search(runCtx, q, f)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// the transport may ignore cancellation, so the token decides
	if token != sess.seq {
		return nil, false, nil
	}
	sess.cancel = nil
	sess.lastSeen = s.now()

	if runCtx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, err
	}

	sess.latest = res
	return res, true, nil
}

// Latest returns the last accepted result for callerID
func (s *Sessions) Latest(callerID string) (*SearchResult, bool) {
	s.mu.Lock()
	sess, found := s.sessions[callerID]
	s.mu.Unlock()
	if !found {
		return nil, false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.latest == nil {
		return nil, false
	}
	return sess.latest, true
}

// Sweep drops sessions idle for longer than the TTL and returns how many were removed
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.cancel == nil && sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// acquire returns the caller's session locked and marked as seen. Taking
// sess.mu under s.mu keeps Sweep from dropping a session between lookup and use.
func (s *Sessions) acquire(callerID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[callerID]
	if !ok {
		sess = &session{}
		s.sessions[callerID] = sess
	}
	sess.mu.Lock()
	sess.lastSeen = s.now()
	return sess
}
