package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SaveTimeout is the maximum duration for one snapshot write.
var SaveTimeout = 30 * time.Second

// Gateway persists and rehydrates sessions. It is satisfied by the postgres,
// redisdoc and memory stores.
//
// Load returns (nil, nil) when no session exists for the key; absence is not
// an error. Save always overwrites the stored envelope entirely (no partial
// patch) and must tolerate out-of-order completions: the store is
// last-write-wins.
type Gateway interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, sessionID string) (*Session, error)
}

// Service owns the lifecycle state machine for every session this process
// has touched. All mutations for one session are serialized by a per-session
// lock; the only asynchronous boundary is the gateway write, which is
// fire-and-forget on a debounce timer.
type Service struct {
	gateway  Gateway
	debounce time.Duration

	mu       sync.RWMutex
	sessions map[string]*sessionState
}

// sessionState is the in-memory state for one session id.
type sessionState struct {
	mu      sync.Mutex
	session Session

	// Sort toggle state: choosing the same column twice in a row flips the
	// direction, a new column resets to ascending. UI state, not persisted.
	sortField SortField
	sortDir   SortDirection

	saveTimer *time.Timer
	lastUsed  time.Time
	loaded    bool
}

// NewService creates a Service persisting through gateway. Snapshots are
// written debounce after the last mutation in a burst.
func NewService(gateway Gateway, debounce time.Duration) *Service {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Service{
		gateway:  gateway,
		debounce: debounce,
		sessions: make(map[string]*sessionState),
	}
}

// state returns the state for sessionID, creating it on first touch. A new
// state is rehydrated from the gateway once; a failed load is logged and
// leaves the session empty, with in-memory state authoritative from then on.
func (s *Service) state(ctx context.Context, sessionID string) *sessionState {
	s.mu.RLock()
	st, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		s.mu.Lock()
		st, ok = s.sessions[sessionID]
		if !ok {
			st = &sessionState{
				session: Session{SessionID: sessionID, PendingAction: NoAction()},
				sortDir: SortAsc,
			}
			s.sessions[sessionID] = st
		}
		s.mu.Unlock()
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.lastUsed = time.Now()

	if !st.loaded {
		st.loaded = true
		stored, err := s.gateway.Load(ctx, sessionID)
		if err != nil {
			slog.Warn("session load failed, starting empty",
				"session_id", sessionID, "error", err)
		} else if stored != nil {
			st.session = *stored
		}
	}
	return st
}

// Get returns a snapshot of the session's current state.
func (s *Service) Get(ctx context.Context, sessionID string) Session {
	st := s.state(ctx, sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshot()
}

// SortState returns the session's current sort toggle state.
func (s *Service) SortState(ctx context.Context, sessionID string) (SortField, SortDirection) {
	st := s.state(ctx, sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sortField, st.sortDir
}

// SaveNow flushes the session to the gateway immediately, cancelling any
// pending debounce timer. Used by the explicit "Save Now" control.
func (s *Service) SaveNow(ctx context.Context, sessionID string) error {
	st := s.state(ctx, sessionID)

	st.mu.Lock()
	if st.saveTimer != nil {
		st.saveTimer.Stop()
		st.saveTimer = nil
	}
	snap := st.snapshot()
	st.mu.Unlock()

	if err := s.gateway.Save(ctx, &snap); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Reload replaces in-memory state entirely with the stored session. Returns
// false when the store has nothing for this id, leaving memory untouched.
func (s *Service) Reload(ctx context.Context, sessionID string) (Session, bool, error) {
	st := s.state(ctx, sessionID)

	stored, err := s.gateway.Load(ctx, sessionID)
	if err != nil {
		return Session{}, false, fmt.Errorf("load session: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if stored == nil {
		return st.snapshot(), false, nil
	}
	st.session = *stored
	return st.snapshot(), true, nil
}

// scheduleSave arranges a debounced snapshot. Another mutation before the
// timer fires cancels and reschedules it, so a burst of edits coalesces into
// a single write. Must be called with st.mu held.
func (s *Service) scheduleSave(st *sessionState) {
	if st.saveTimer != nil {
		st.saveTimer.Stop()
	}
	sessionID := st.session.SessionID
	st.saveTimer = time.AfterFunc(s.debounce, func() {
		s.flush(sessionID)
	})
}

// flush writes the current snapshot to the gateway. Failures are logged and
// surfaced nowhere else: the write is fire-and-forget, never retried, and
// in-memory state is never rolled back.
func (s *Service) flush(sessionID string) {
	s.mu.RLock()
	st, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return
	}

	st.mu.Lock()
	snap := st.snapshot()
	st.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), SaveTimeout)
	defer cancel()

	if err := s.gateway.Save(ctx, &snap); err != nil {
		slog.Error("session snapshot failed",
			"session_id", sessionID, "error", err)
		return
	}
	slog.Debug("session snapshot saved",
		"session_id", sessionID,
		"active", len(snap.ActiveRecords),
		"deleted", len(snap.DeletedRecords),
	)
}

// Close flushes every in-memory session synchronously. Called on shutdown.
func (s *Service) Close(ctx context.Context) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	var firstErr error
	for _, id := range ids {
		if err := s.SaveNow(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// snapshot deep-copies the session so callers and in-flight gateway writes
// can never alias the live records. Must be called with st.mu held.
func (st *sessionState) snapshot() Session {
	out := st.session
	out.ActiveRecords = cloneRecords(st.session.ActiveRecords)
	out.DeletedRecords = cloneRecords(st.session.DeletedRecords)
	out.PendingAction = clonePendingAction(st.session.PendingAction)
	return out
}

// clonePendingAction deep-copies the captured undo payloads.
func clonePendingAction(a PendingAction) PendingAction {
	out := PendingAction{Kind: a.Kind}
	if a.Delete != nil {
		d := *a.Delete
		d.Record = cloneRecord(d.Record)
		out.Delete = &d
	}
	if a.Reorder != nil {
		out.Reorder = &ReorderAction{PreviousActive: cloneRecords(a.Reorder.PreviousActive)}
	}
	if a.Restore != nil {
		out.Restore = &RestoreAction{
			Record:          cloneRecord(a.Restore.Record),
			PreviousActive:  cloneRecords(a.Restore.PreviousActive),
			PreviousDeleted: cloneRecords(a.Restore.PreviousDeleted),
		}
	}
	return out
}

// cloneRecord copies a single record, including the OriginalOrder pointer.
func cloneRecord(r Record) Record {
	if r.OriginalOrder != nil {
		v := *r.OriginalOrder
		r.OriginalOrder = &v
	}
	return r
}
