// Package memory provides an in-memory persistence gateway.
//
// It backs tests and local development where neither Postgres nor Redis is
// available. Sessions are deep-copied through a JSON round trip on both save
// and load so the stored state can never alias the caller's records.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/capround/cutoffs/internal/core"
)

// Store is an in-memory Gateway implementation.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	created  map[string]time.Time

	// SaveErr, when set, is returned by every Save. Tests use it to
	// exercise the notification path for persistence failures.
	SaveErr error
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		sessions: make(map[string][]byte),
		created:  make(map[string]time.Time),
	}
}

// Save upserts the full session envelope keyed by its session id.
func (s *Store) Save(ctx context.Context, session *core.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.SaveErr != nil {
		return s.SaveErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := *session
	if created, ok := s.created[session.SessionID]; ok {
		snap.CreatedAt = created
	} else {
		snap.CreatedAt = time.Now().UTC()
		s.created[session.SessionID] = snap.CreatedAt
	}
	snap.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.sessions[session.SessionID] = data
	return nil
}

// Load returns the stored session, or (nil, nil) when none exists.
func (s *Store) Load(ctx context.Context, sessionID string) (*core.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	var session core.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
