package guard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// The limiter and tracker only prune lazily, on the keys they happen to
// read. Abandoned keys (users who never come back, actions that stopped
// being limited) would otherwise accumulate forever, so the background
// sweeps below delete records that can no longer influence any decision.

// SweepStale removes rate-limit records whose newest timestamp is older
// than the widest window in use. Returns the number of keys removed.
func (l *RateLimiter) SweepStale(ctx context.Context, window time.Duration) (int, error) {
	keys, err := l.kv.KeysByPrefix(rateLimitKeyPrefix)
	if err != nil {
		return 0, err
	}

	cutoff := l.now().UnixMilli() - window.Milliseconds()
	removed := 0
	for _, key := range keys {
		data, err := l.kv.Get(key)
		if err != nil {
			return removed, err
		}

		var attempts []int64
		if len(data) > 0 && json.Unmarshal(data, &attempts) != nil {
			// Corrupt record: nothing can read it, drop it.
			attempts = nil
		}

		stale := true
		for _, ts := range attempts {
			if ts > cutoff {
				stale = false
				break
			}
		}
		if stale {
			if err := l.kv.Delete(key); err != nil {
				return removed, err
			}
			removed++
		}
	}

	if removed > 0 {
		l.logger.Info("swept stale rate limit records", slog.Int("count", removed))
	}
	return removed, nil
}

// SweepExpired removes lockout records whose lock window has elapsed.
// Returns the number of keys removed.
func (t *LockoutTracker) SweepExpired(ctx context.Context) (int, error) {
	keys, err := t.kv.KeysByPrefix(lockoutKeyPrefix)
	if err != nil {
		return 0, err
	}

	now := t.now().UnixMilli()
	removed := 0
	for _, key := range keys {
		data, err := t.kv.Get(key)
		if err != nil {
			return removed, err
		}

		var rec lockoutRecord
		expired := true
		if len(data) > 0 && json.Unmarshal(data, &rec) == nil {
			expired = now-rec.LockoutTime >= t.config.Duration.Milliseconds()
		}
		if expired {
			if err := t.kv.Delete(key); err != nil {
				return removed, err
			}
			removed++
		}
	}

	if removed > 0 {
		t.logger.Info("swept expired lockout records", slog.Int("count", removed))
	}
	return removed, nil
}
