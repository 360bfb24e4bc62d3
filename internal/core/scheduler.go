package core

// scheduler.go provides the background janitor for the in-memory session
// cache.
//
// The service keeps per-session state between requests so the undo slot and
// sort toggle survive across a browsing session. Sessions that go idle are
// flushed to the gateway one last time and evicted, keeping the cache
// bounded. The janitor is long-running and context-aware for graceful
// shutdown; individual flush failures are logged but never fail the
// application.

import (
	"context"
	"log/slog"
	"time"
)

// JanitorConfig holds configuration for the session cache janitor.
type JanitorConfig struct {
	IdleTTL       time.Duration // Evict sessions idle longer than this (default: 30m)
	CheckInterval time.Duration // How often to sweep (default: 5m)
}

// StartJanitor starts a background loop that periodically evicts idle
// sessions. It runs immediately on start, then every CheckInterval, and
// stops when the context is cancelled.
func (s *Service) StartJanitor(ctx context.Context, cfg JanitorConfig) {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 5 * time.Minute
	}

	slog.Info("session janitor started",
		"idle_ttl", cfg.IdleTTL, "check_interval", cfg.CheckInterval)

	s.sweepIdle(ctx, cfg.IdleTTL)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			s.sweepIdle(ctx, cfg.IdleTTL)
		}
	}
}

// sweepIdle flushes and evicts every session idle longer than ttl.
func (s *Service) sweepIdle(ctx context.Context, ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)

	s.mu.RLock()
	var idle []string
	for id, st := range s.sessions {
		st.mu.Lock()
		if st.lastUsed.Before(cutoff) {
			idle = append(idle, id)
		}
		st.mu.Unlock()
	}
	s.mu.RUnlock()

	for _, id := range idle {
		// flush logs its own failures; eviction proceeds either way.
		s.flush(id)

		s.mu.Lock()
		st, ok := s.sessions[id]
		if ok {
			st.mu.Lock()
			// A request may have touched the session between the sweep and
			// the flush; keep it in that case.
			if st.lastUsed.Before(cutoff) {
				if st.saveTimer != nil {
					st.saveTimer.Stop()
				}
				delete(s.sessions, id)
			}
			st.mu.Unlock()
		}
		s.mu.Unlock()

		slog.Debug("evicted idle session", "session_id", id)
	}
}
