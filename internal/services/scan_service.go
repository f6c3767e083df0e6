package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/vehiscan/vehiscan/internal/guard"
	"github.com/vehiscan/vehiscan/internal/models"
	"github.com/vehiscan/vehiscan/internal/qr"
	pkglogger "github.com/vehiscan/vehiscan/pkg/logger"
)

// ScanAction is the rate-limited action name for QR scans
const ScanAction = "scan"

// ScanRepository defines the scan-history persistence operations the service needs
type ScanRepository interface {
	Create(ctx context.Context, scan *models.Scan) (*models.Scan, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Scan, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// ScanDeniedError carries the user-facing notice for a rate-limited scan
type ScanDeniedError struct {
	Notice  string
	RetryAt time.Time
}

func (e *ScanDeniedError) Error() string {
	return e.Notice
}

func (e *ScanDeniedError) Unwrap() error {
	return models.ErrRateLimitExceeded
}

// ScanService resolves QR payloads to vehicles behind the per-user rate limiter
type ScanService struct {
	vehicles    VehicleRepository
	scans       ScanRepository
	limiter     *guard.RateLimiter
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewScanService creates a new ScanService
func NewScanService(vehicles VehicleRepository, scans ScanRepository, limiter *guard.RateLimiter, maxAttempts int, window time.Duration, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *ScanService {
	return &ScanService{
		vehicles:    vehicles,
		scans:       scans,
		limiter:     limiter,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// ScanResponse represents the outcome of an admitted scan
type ScanResponse struct {
	Vehicle           *VehicleResponse `json:"vehicle"`
	AttemptsUsed      int              `json:"attempts_used"`
	AttemptsRemaining int              `json:"attempts_remaining"`
}

// Scan admits or denies one QR lookup. The rate limiter records the
// attempt before the payload is decoded, so malformed and unknown codes
// consume quota just like successful lookups.
func (s *ScanService) Scan(ctx context.Context, userID, payload string) (*ScanResponse, error) {
	decision, err := s.limiter.CheckAndRecord(ctx, userID, ScanAction, s.maxAttempts, s.window)
	if err != nil {
		s.logger.Error("scan rate limit check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !decision.Allowed {
		s.auditLogger.LogGuardEvent("scan_rate_limited", userID, "", map[string]string{
			"attempts": strconv.Itoa(decision.Attempts),
		})
		return nil, &ScanDeniedError{
			Notice:  decision.Notice,
			RetryAt: decision.RetryAt,
		}
	}

	parsed, err := qr.Parse(payload)
	if err != nil {
		s.logger.Info("scan rejected: invalid payload",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return nil, models.ErrBadRequest
	}

	// Foreign payloads carry no vehicle id and cannot be resolved
	if parsed.VehicleID == "" {
		return nil, models.ErrNotFound
	}

	vehicle, err := s.vehicles.GetByID(ctx, parsed.VehicleID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to look up scanned vehicle", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	registrationStatus := vehicle.RegistrationStatus(time.Now())

	if _, err := s.scans.Create(ctx, &models.Scan{
		UserID:             userID,
		VehicleID:          vehicle.ID,
		LicensePlate:       vehicle.LicensePlate,
		RegistrationStatus: registrationStatus,
	}); err != nil {
		// History is best effort, the lookup result still stands
		s.logger.Error("failed to record scan history", slog.Any("error", err))
	}

	s.logger.Info("vehicle scanned",
		slog.String("user_id", userID),
		slog.String("vehicle_id", vehicle.ID),
		slog.String("registration_status", registrationStatus))

	return &ScanResponse{
		Vehicle:           vehicleModelToResponse(vehicle),
		AttemptsUsed:      decision.Attempts,
		AttemptsRemaining: s.maxAttempts - decision.Attempts,
	}, nil
}

// Quota reports the user's current scan allowance without consuming an attempt
func (s *ScanService) Quota(ctx context.Context, userID string) (*guard.DetailedStatus, error) {
	status, err := s.limiter.DetailedStatus(ctx, userID, ScanAction, s.maxAttempts, s.window)
	if err != nil {
		s.logger.Error("failed to read scan quota", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return &status, nil
}

// HistoryEntry represents one row of a user's scan history
type HistoryEntry struct {
	ID                 string `json:"id"`
	VehicleID          string `json:"vehicle_id"`
	LicensePlate       string `json:"license_plate"`
	RegistrationStatus string `json:"registration_status"`
	ScannedAt          string `json:"scanned_at"`
}

// History lists the user's past scans, newest first
func (s *ScanService) History(ctx context.Context, userID string, limit, offset int) ([]*HistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	scans, err := s.scans.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list scan history", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	entries := make([]*HistoryEntry, 0, len(scans))
	for _, scan := range scans {
		entries = append(entries, &HistoryEntry{
			ID:                 scan.ID,
			VehicleID:          scan.VehicleID,
			LicensePlate:       scan.LicensePlate,
			RegistrationStatus: scan.RegistrationStatus,
			ScannedAt:          scan.ScannedAt.Format(time.RFC3339),
		})
	}
	return entries, nil
}
