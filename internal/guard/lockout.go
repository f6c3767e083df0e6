package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const lockoutKeyPrefix = "lockout_"

func lockoutKey(identity string) string {
	return lockoutKeyPrefix + identity
}

// lockoutRecord is the stored failure streak for one identity. The
// anchor marks the streak start until the threshold is reached, then the
// lockout start.
type lockoutRecord struct {
	Attempts    int   `json:"attempts"`
	LockoutTime int64 `json:"lockoutTime"` // epoch millis
}

// LockoutConfig holds the failure threshold and the lock duration
// imposed once it is reached.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutConfig matches the login policy: three failures lock the
// identity for ten minutes.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		Threshold: 3,
		Duration:  10 * time.Minute,
	}
}

// LockoutTracker counts consecutive credential failures per normalized
// identity and imposes a fixed-duration lock once the threshold is
// reached. Expiry is passive: stale records are dropped when read.
type LockoutTracker struct {
	kv     KV
	config LockoutConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewLockoutTracker creates a new LockoutTracker.
func NewLockoutTracker(kv KV, config LockoutConfig, logger *slog.Logger) *LockoutTracker {
	return &LockoutTracker{
		kv:     kv,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the wall clock. Tests only.
func (t *LockoutTracker) SetClock(now func() time.Time) {
	t.now = now
}

// NormalizeIdentity canonicalizes a login identifier before it is used
// as a lockout key.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// LockStatus reports whether an identity is currently locked out.
type LockStatus struct {
	Locked    bool
	Remaining time.Duration
}

// IsLocked reads the record for identity. Locked is true while the
// failure count has reached the threshold and the lock has not yet
// expired. An expired record is deleted on the way out. Storage errors
// fail open: a broken local store must not lock users out.
func (t *LockoutTracker) IsLocked(ctx context.Context, identity string) LockStatus {
	identity = NormalizeIdentity(identity)
	rec, err := t.load(identity)
	if err != nil {
		t.logger.Error("lockout status check failed",
			slog.String("identity_key", lockoutKey(identity)),
			slog.Any("error", err))
		return LockStatus{}
	}
	if rec == nil {
		return LockStatus{}
	}

	elapsed := t.now().UnixMilli() - rec.LockoutTime
	if elapsed >= t.config.Duration.Milliseconds() {
		t.clear(identity)
		return LockStatus{}
	}
	if rec.Attempts >= t.config.Threshold {
		return LockStatus{
			Locked:    true,
			Remaining: t.config.Duration - time.Duration(elapsed)*time.Millisecond,
		}
	}
	return LockStatus{}
}

// FailureResult is the outcome of recording a failed attempt.
type FailureResult struct {
	Locked            bool
	Attempts          int
	RemainingAttempts int
	Notice            string
}

// RecordFailure increments the failure count for identity. A streak
// whose lock window has already elapsed is cleared first, so failures do
// not carry over through an expired lockout. When the increment reaches
// the threshold the anchor is re-set to now, starting the lock clock.
func (t *LockoutTracker) RecordFailure(ctx context.Context, identity string) FailureResult {
	identity = NormalizeIdentity(identity)
	now := t.now().UnixMilli()

	current := 0
	anchor := now
	rec, err := t.load(identity)
	if err != nil {
		t.logger.Error("failed to read lockout record",
			slog.String("identity_key", lockoutKey(identity)),
			slog.Any("error", err))
	} else if rec != nil {
		if now-rec.LockoutTime >= t.config.Duration.Milliseconds() {
			// Expired streak: start over.
			t.clear(identity)
		} else {
			current = rec.Attempts
			anchor = rec.LockoutTime
		}
	}

	attempts := current + 1
	locked := attempts >= t.config.Threshold
	if locked {
		anchor = now
	}

	data, _ := json.Marshal(lockoutRecord{Attempts: attempts, LockoutTime: anchor})
	if err := t.kv.Put(lockoutKey(identity), data); err != nil {
		t.logger.Error("failed to persist lockout record",
			slog.String("identity_key", lockoutKey(identity)),
			slog.Any("error", err))
	}

	result := FailureResult{
		Locked:            locked,
		Attempts:          attempts,
		RemainingAttempts: t.config.Threshold - attempts,
	}
	if locked {
		result.RemainingAttempts = 0
		result.Notice = fmt.Sprintf(
			"Too many failed login attempts. Your account has been locked for %s.",
			humanWindow(t.config.Duration))
		t.logger.Warn("account locked",
			slog.String("identity_key", lockoutKey(identity)),
			slog.Int("attempts", attempts))
	} else {
		result.Notice = fmt.Sprintf(
			"Invalid email or password. You have %d attempt(s) remaining before your account is locked.",
			result.RemainingAttempts)
	}
	return result
}

// RecordSuccess deletes the record for identity, fully resetting the
// failure streak.
func (t *LockoutTracker) RecordSuccess(ctx context.Context, identity string) {
	t.clear(NormalizeIdentity(identity))
}

func (t *LockoutTracker) load(identity string) (*lockoutRecord, error) {
	data, err := t.kv.Get(lockoutKey(identity))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var rec lockoutRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt lockout record: %w", err)
	}
	return &rec, nil
}

func (t *LockoutTracker) clear(identity string) {
	if err := t.kv.Delete(lockoutKey(identity)); err != nil {
		t.logger.Error("failed to clear lockout record",
			slog.String("identity_key", lockoutKey(identity)),
			slog.Any("error", err))
	}
}
