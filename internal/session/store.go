package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
	"github.com/robert-malhotra/scene-browser/internal/roi"
)

// Store keeps live sessions by id.
type Store interface {
	// Create starts a new session and returns it
	Create(ctx context.Context) (*Session, error)

	// Get returns a live session and extends its lifetime
	Get(id string) (*Session, error)

	// Delete closes and removes a session
	Delete(id string) error
}

// sessionEntry holds a session with its expiration time
type sessionEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStore implements Store in memory with an idle TTL. It is suitable
// for single-instance deployments; sessions do not survive a restart.
type MemoryStore struct {
	catalog  catalog.Catalog
	opts     Options
	viewport roi.Viewport
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]sessionEntry
	ttl      time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a session store whose sessions search c with opts.
// ttl is the idle lifetime of a session; cleanupInterval is how often expired
// sessions are removed.
func NewMemoryStore(c catalog.Catalog, opts Options, ttl, cleanupInterval time.Duration) *MemoryStore {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	store := &MemoryStore{
		catalog:  c,
		opts:     opts,
		viewport: roi.DefaultViewport(),
		logger:   opts.Logger,
		sessions: make(map[string]sessionEntry),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cleanupInterval)

	return store
}

// Create starts a new session, loads the product list, and runs the initial
// search. A failed bootstrap still returns the session; the failure is
// recorded in its state the way any later search failure would be.
func (s *MemoryStore) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	sess := New(id, s.catalog, s.opts, s.viewport)

	if _, err := sess.Controller.Bootstrap(ctx); err != nil {
		s.logger.WarnContext(ctx, "session bootstrap failed", "session_id", id, "error", err)
	}

	s.mu.Lock()
	s.sessions[id] = sessionEntry{
		session:   sess,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "session created", "session_id", id)
	return sess, nil
}

// Get returns a session by id and slides its expiration forward.
func (s *MemoryStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}

	now := s.now()
	if now.After(entry.expiresAt) {
		return nil, ErrSessionExpired
	}

	entry.expiresAt = now.Add(s.ttl)
	s.sessions[id] = entry
	return entry.session, nil
}

// Delete closes and removes a session by id.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	entry, exists := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	entry.session.Close()
	return nil
}

// Stop stops the background cleanup goroutine.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// cleanupLoop periodically removes expired sessions.
func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

// cleanup closes and removes all expired sessions.
func (s *MemoryStore) cleanup() int {
	s.mu.Lock()
	var expired []*Session
	now := s.now()
	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			expired = append(expired, entry.session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	if len(expired) > 0 {
		s.logger.Debug("expired sessions removed", "count", len(expired))
	}
	return len(expired)
}

// Stats returns statistics about the session store.
func (s *MemoryStore) Stats() (count int, oldestAge time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count = len(s.sessions)
	if count == 0 {
		return 0, 0
	}

	var oldest time.Time
	for _, entry := range s.sessions {
		if oldest.IsZero() || entry.session.CreatedAt.Before(oldest) {
			oldest = entry.session.CreatedAt
		}
	}

	return count, s.now().Sub(oldest)
}

// Sentinel errors for session store operations
var (
	ErrSessionNotFound = sessionStoreError("session not found")
	ErrSessionExpired  = sessionStoreError("session expired")
)

type sessionStoreError string

func (e sessionStoreError) Error() string {
	return string(e)
}
