package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/vehiscan/vehiscan/internal/guard"
	"github.com/vehiscan/vehiscan/internal/repositories"
	"github.com/vehiscan/vehiscan/internal/services"
)

// ScanRetention is how long scan history rows are kept before being purged.
const ScanRetention = 90 * 24 * time.Hour

// MaintenanceManager runs the periodic background work: guard store sweeps,
// renewal reminder dispatch and scan history retention.
type MaintenanceManager struct {
	limiter    *guard.RateLimiter
	lockouts   *guard.LockoutTracker
	scanWindow time.Duration
	reminders  *services.ReminderService
	scans      *repositories.ScanRepository
	logger     *slog.Logger
	interval   time.Duration
	stopCh     chan struct{}
}

// NewMaintenanceManager creates a new maintenance manager
func NewMaintenanceManager(
	limiter *guard.RateLimiter,
	lockouts *guard.LockoutTracker,
	scanWindow time.Duration,
	reminders *services.ReminderService,
	scans *repositories.ScanRepository,
	logger *slog.Logger,
	interval time.Duration,
) *MaintenanceManager {
	return &MaintenanceManager{
		limiter:    limiter,
		lockouts:   lockouts,
		scanWindow: scanWindow,
		reminders:  reminders,
		scans:      scans,
		logger:     logger,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the periodic maintenance loop
func (m *MaintenanceManager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Run immediately on startup
	m.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			m.runOnce(ctx)
		case <-m.stopCh:
			m.logger.Info("maintenance manager stopped")
			return
		case <-ctx.Done():
			m.logger.Info("maintenance manager context cancelled")
			return
		}
	}
}

func (m *MaintenanceManager) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if swept, err := m.limiter.SweepStale(runCtx, m.scanWindow); err != nil {
		m.logger.Error("rate limit sweep failed", slog.Any("error", err))
	} else if swept > 0 {
		m.logger.Info("swept stale rate limit records", slog.Int("count", swept))
	}

	if swept, err := m.lockouts.SweepExpired(runCtx); err != nil {
		m.logger.Error("lockout sweep failed", slog.Any("error", err))
	} else if swept > 0 {
		m.logger.Info("swept expired lockouts", slog.Int("count", swept))
	}

	if sent, err := m.reminders.Run(runCtx); err != nil {
		m.logger.Error("reminder run failed", slog.Any("error", err))
	} else if sent > 0 {
		m.logger.Info("renewal reminders sent", slog.Int("count", sent))
	}

	cutoff := time.Now().Add(-ScanRetention)
	if deleted, err := m.scans.DeleteOlderThan(runCtx, cutoff); err != nil {
		m.logger.Error("scan history purge failed", slog.Any("error", err))
	} else if deleted > 0 {
		m.logger.Info("purged old scan history", slog.Int64("rows_deleted", deleted))
	}
}

// Stop signals the maintenance manager to stop
func (m *MaintenanceManager) Stop() {
	close(m.stopCh)
}
