// Package redisdoc provides the document-store persistence gateway.
//
// Each session is stored as a single JSON document under one key, the way
// the original Firestore backend kept one document per user session. Save
// overwrites the whole document; Load returns (nil, nil) when the key is
// absent. Writes are last-write-wins, which matches the debounced
// fire-and-forget save discipline upstream.
package redisdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/capround/cutoffs/internal/core"
)

// keyPrefix namespaces session documents in the keyspace.
const keyPrefix = "cutoffs:session:"

// Store is the Redis Gateway implementation.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Store around an existing client. A zero ttl keeps documents
// forever; a positive ttl lets abandoned anonymous sessions expire.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Save writes the full session envelope as one JSON document.
func (s *Store) Save(ctx context.Context, session *core.Session) error {
	snap := *session
	snap.UpdatedAt = time.Now().UTC()
	if snap.CreatedAt.IsZero() {
		if prev, err := s.Load(ctx, session.SessionID); err == nil && prev != nil {
			snap.CreatedAt = prev.CreatedAt
		} else {
			snap.CreatedAt = snap.UpdatedAt
		}
	}

	data, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+session.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("write session document: %w", err)
	}
	return nil
}

// Load reads the session document, or returns (nil, nil) when absent.
func (s *Store) Load(ctx context.Context, sessionID string) (*core.Session, error) {
	data, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session document: %w", err)
	}

	var session core.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session document: %w", err)
	}
	return &session, nil
}
