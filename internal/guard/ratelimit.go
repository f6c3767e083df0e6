package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// KV is the durable key-value storage the guards persist state in.
// Keys are plain strings, values JSON. The implementation must serialize
// access to a given key within the process.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	DeleteByPrefix(prefix string) (int, error)
	KeysByPrefix(prefix string) ([]string, error)
}

// Warning levels reported by DetailedStatus.
const (
	LevelSafe     = "safe"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

const rateLimitKeyPrefix = "rateLimit_"

func rateLimitKey(subjectID, action string) string {
	return rateLimitKeyPrefix + subjectID + "_" + action
}

// RateLimiterConfig holds knobs that apply to every limited action.
type RateLimiterConfig struct {
	// FailClosed denies attempts when the store is unavailable instead of
	// the default fail-open behavior. The guard is a client-facing defense
	// layer, so availability wins by default.
	FailClosed bool
}

// RateLimiter admits or denies attempts using a sliding window of
// timestamps per (subject, action) pair. State is pruned lazily on
// access; nothing sweeps it proactively.
type RateLimiter struct {
	kv     KV
	config RateLimiterConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewRateLimiter creates a new RateLimiter.
func NewRateLimiter(kv KV, config RateLimiterConfig, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		kv:     kv,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the wall clock. Tests only.
func (l *RateLimiter) SetClock(now func() time.Time) {
	l.now = now
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed     bool
	Attempts    int // attempts in the current window, including this one when allowed
	MaxAttempts int
	RetryAt     time.Time // earliest time a denied subject may retry
	Notice      string    // user-facing message, set on denial
}

// CheckAndRecord loads the attempt log for (subjectID, action), drops
// timestamps outside the window, and either records the current attempt
// and admits it, or denies without recording. Storage failures fail open
// unless FailClosed is set: the admitted/denied answer is always returned,
// never an internal error.
func (l *RateLimiter) CheckAndRecord(ctx context.Context, subjectID, action string, maxAttempts int, window time.Duration) (Decision, error) {
	if subjectID == "" {
		return Decision{}, fmt.Errorf("subject id must not be empty")
	}
	if maxAttempts < 1 {
		return Decision{}, fmt.Errorf("max attempts must be at least 1, got %d", maxAttempts)
	}
	if window <= 0 {
		return Decision{}, fmt.Errorf("window must be positive, got %s", window)
	}

	now := l.now()
	key := rateLimitKey(subjectID, action)

	attempts, err := l.loadAttempts(key, now, window)
	if err != nil {
		return l.storageFailure(subjectID, action, maxAttempts, err), nil
	}

	if len(attempts) >= maxAttempts {
		retryAt := time.UnixMilli(earliest(attempts) + window.Milliseconds())
		l.logger.Warn("rate limit exceeded",
			slog.String("subject", truncateSubject(subjectID)),
			slog.String("action", action),
			slog.Int("attempts", len(attempts)),
			slog.Int("max_attempts", maxAttempts))
		return Decision{
			Allowed:     false,
			Attempts:    len(attempts),
			MaxAttempts: maxAttempts,
			RetryAt:     retryAt,
			Notice:      denialNotice(action, maxAttempts, window, now, retryAt),
		}, nil
	}

	attempts = append(attempts, now.UnixMilli())
	data, err := json.Marshal(attempts)
	if err != nil {
		return l.storageFailure(subjectID, action, maxAttempts, err), nil
	}
	if err := l.kv.Put(key, data); err != nil {
		return l.storageFailure(subjectID, action, maxAttempts, err), nil
	}

	l.logger.Debug("rate limit attempt recorded",
		slog.String("subject", truncateSubject(subjectID)),
		slog.String("action", action),
		slog.Int("attempts", len(attempts)),
		slog.Int("max_attempts", maxAttempts))

	return Decision{
		Allowed:     true,
		Attempts:    len(attempts),
		MaxAttempts: maxAttempts,
	}, nil
}

// Reset clears the attempt log for one (subject, action) pair.
func (l *RateLimiter) Reset(ctx context.Context, subjectID, action string) error {
	key := rateLimitKey(subjectID, action)
	if err := l.kv.Delete(key); err != nil {
		l.logger.Error("rate limit reset failed",
			slog.String("subject", truncateSubject(subjectID)),
			slog.String("action", action),
			slog.Any("error", err))
		return err
	}
	l.logger.Info("rate limit reset",
		slog.String("subject", truncateSubject(subjectID)),
		slog.String("action", action))
	return nil
}

// Status reports the in-window attempt count and the next reset time
// without mutating stored state.
type Status struct {
	Attempts  int
	NextReset time.Time // zero when no attempts are in the window
}

func (l *RateLimiter) Status(ctx context.Context, subjectID, action string, window time.Duration) (Status, error) {
	now := l.now()
	attempts, err := l.loadAttempts(rateLimitKey(subjectID, action), now, window)
	if err != nil {
		l.logger.Error("rate limit status check failed", slog.Any("error", err))
		return Status{}, nil
	}

	st := Status{Attempts: len(attempts)}
	if len(attempts) > 0 {
		st.NextReset = time.UnixMilli(earliest(attempts) + window.Milliseconds())
	}
	return st, nil
}

// DetailedStatus extends Status with the configured limit, a coarse load
// classification and minutes until the window frees up.
type DetailedStatus struct {
	Attempts          int
	MaxAttempts       int
	NextReset         time.Time
	MinutesUntilReset int
	AtLimit           bool
	Level             string
}

func (l *RateLimiter) DetailedStatus(ctx context.Context, subjectID, action string, maxAttempts int, window time.Duration) (DetailedStatus, error) {
	now := l.now()
	attempts, err := l.loadAttempts(rateLimitKey(subjectID, action), now, window)
	if err != nil {
		l.logger.Error("rate limit status check failed", slog.Any("error", err))
		return DetailedStatus{MaxAttempts: maxAttempts, Level: LevelSafe}, nil
	}

	st := DetailedStatus{
		Attempts:    len(attempts),
		MaxAttempts: maxAttempts,
		AtLimit:     len(attempts) >= maxAttempts,
		Level:       warningLevel(len(attempts), maxAttempts),
	}
	if len(attempts) > 0 {
		resetAt := earliest(attempts) + window.Milliseconds()
		st.NextReset = time.UnixMilli(resetAt)
		st.MinutesUntilReset = int((resetAt - now.UnixMilli() + 59_999) / 60_000)
	}
	return st, nil
}

// ClearAll removes every rate-limit record system-wide.
func (l *RateLimiter) ClearAll(ctx context.Context) (int, error) {
	deleted, err := l.kv.DeleteByPrefix(rateLimitKeyPrefix)
	if err != nil {
		l.logger.Error("failed to clear rate limits", slog.Any("error", err))
		return deleted, err
	}
	if deleted > 0 {
		l.logger.Info("cleared rate limit entries", slog.Int("count", deleted))
	}
	return deleted, nil
}

// loadAttempts reads the stored timestamp log and filters it to the
// active window. Unparseable state counts as a storage failure.
func (l *RateLimiter) loadAttempts(key string, now time.Time, window time.Duration) ([]int64, error) {
	data, err := l.kv.Get(key)
	if err != nil {
		return nil, err
	}

	var stored []int64
	if len(data) > 0 {
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, fmt.Errorf("corrupt attempt log at %q: %w", key, err)
		}
	}

	windowStart := now.UnixMilli() - window.Milliseconds()
	attempts := stored[:0]
	for _, ts := range stored {
		if ts > windowStart {
			attempts = append(attempts, ts)
		}
	}
	return attempts, nil
}

// storageFailure converts a store error into a decision per the
// configured failure policy. Fail open keeps the app usable when local
// state is broken; the authoritative limit, if any, lives server-side.
func (l *RateLimiter) storageFailure(subjectID, action string, maxAttempts int, err error) Decision {
	l.logger.Error("rate limit check failed",
		slog.String("subject", truncateSubject(subjectID)),
		slog.String("action", action),
		slog.Any("error", err))

	if l.config.FailClosed {
		return Decision{
			Allowed:     false,
			MaxAttempts: maxAttempts,
			Notice:      "Service temporarily unavailable. Please try again shortly.",
		}
	}
	return Decision{Allowed: true, MaxAttempts: maxAttempts}
}

func earliest(attempts []int64) int64 {
	min := attempts[0]
	for _, ts := range attempts[1:] {
		if ts < min {
			min = ts
		}
	}
	return min
}

func warningLevel(attempts, maxAttempts int) string {
	pct := float64(attempts) / float64(maxAttempts) * 100
	switch {
	case pct >= 80:
		return LevelCritical
	case pct >= 60:
		return LevelWarning
	default:
		return LevelSafe
	}
}

func denialNotice(action string, maxAttempts int, window time.Duration, now, retryAt time.Time) string {
	waitMinutes := int((retryAt.Sub(now) + time.Minute - 1) / time.Minute)
	return fmt.Sprintf(
		"You've reached the maximum of %d %s attempts per %s. Please wait %d minute(s) before trying again. Next allowed: %s",
		maxAttempts, action, humanWindow(window), waitMinutes, retryAt.Format("3:04 PM"))
}

// humanWindow renders a window for notice text: "hour" instead of "1h0m0s".
func humanWindow(window time.Duration) string {
	switch {
	case window == time.Hour:
		return "hour"
	case window == time.Minute:
		return "minute"
	case window%time.Hour == 0:
		return fmt.Sprintf("%d hours", window/time.Hour)
	case window%time.Minute == 0:
		return fmt.Sprintf("%d minutes", window/time.Minute)
	default:
		return window.String()
	}
}

// truncateSubject shortens subject ids for log lines.
func truncateSubject(subjectID string) string {
	if len(subjectID) <= 8 {
		return subjectID
	}
	return subjectID[:8] + "..."
}
