package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/vehiscan/vehiscan/internal/models"
	pkglogger "github.com/vehiscan/vehiscan/pkg/logger"
)

// Reminder thresholds in days before the registration due date.
// Ordered from earliest to latest so each vehicle steps down through
// them as the due date approaches.
var reminderThresholds = []int{30, 7, 5}

// ReminderVehicleRepository defines the vehicle operations the reminder job needs
type ReminderVehicleRepository interface {
	ListDueBetween(ctx context.Context, from, to time.Time) ([]*models.Vehicle, error)
	SetRemindedThreshold(ctx context.Context, id string, threshold int) error
}

// ReminderUserRepository resolves vehicle owners to their email addresses
type ReminderUserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ReminderService sends renewal reminder emails as vehicles approach
// their registration due date. Each threshold fires at most once per
// registration cycle, tracked on the vehicle row.
type ReminderService struct {
	vehicles ReminderVehicleRepository
	users    ReminderUserRepository
	email    EmailService
	logger   *slog.Logger
	now      func() time.Time
}

// NewReminderService creates a new ReminderService
func NewReminderService(vehicles ReminderVehicleRepository, users ReminderUserRepository, email EmailService, logger *slog.Logger) *ReminderService {
	return &ReminderService{
		vehicles: vehicles,
		users:    users,
		email:    email,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the time source, for tests
func (s *ReminderService) SetClock(now func() time.Time) {
	s.now = now
}

// Run processes one reminder sweep. Returns the number of reminders sent.
func (s *ReminderService) Run(ctx context.Context) (int, error) {
	now := s.now()

	vehicles, err := s.vehicles.ListDueBetween(ctx, now, now.AddDate(0, 0, reminderThresholds[0]))
	if err != nil {
		s.logger.Error("failed to list vehicles due for renewal", slog.Any("error", err))
		return 0, err
	}

	sent := 0
	for _, vehicle := range vehicles {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		due, err := vehicle.RegistrationDue()
		if err != nil {
			s.logger.Warn("skipping vehicle with unparseable renewal date",
				slog.String("vehicle_id", vehicle.ID))
			continue
		}

		daysLeft := calendarDaysUntil(now, due)
		threshold := activeThreshold(daysLeft)
		if threshold == 0 {
			continue
		}

		// Already reminded at this threshold or a later one
		if vehicle.RemindedThreshold != 0 && vehicle.RemindedThreshold <= threshold {
			continue
		}

		owner, err := s.users.GetByID(ctx, vehicle.OwnerUserID)
		if err != nil {
			s.logger.Warn("failed to resolve vehicle owner",
				slog.String("vehicle_id", vehicle.ID),
				slog.Any("error", err))
			continue
		}

		if err := s.email.SendRenewalReminder(ctx, owner.Email, vehicle.LicensePlate, due, daysLeft); err != nil {
			// Leave the threshold untouched so the next sweep retries
			s.logger.Error("failed to send renewal reminder",
				slog.String("vehicle_id", vehicle.ID),
				slog.Any("error", err))
			continue
		}

		if err := s.vehicles.SetRemindedThreshold(ctx, vehicle.ID, threshold); err != nil {
			s.logger.Error("failed to record reminder threshold",
				slog.String("vehicle_id", vehicle.ID),
				slog.Any("error", err))
		}

		s.logger.Info("renewal reminder sent",
			slog.String("vehicle_id", vehicle.ID),
			slog.String("owner_email", pkglogger.SanitizedEmail(owner.Email)),
			slog.Int("days_left", daysLeft),
			slog.Int("threshold", threshold))
		sent++
	}

	return sent, nil
}

// activeThreshold returns the tightest reminder threshold covering the
// remaining days, or 0 when no reminder is due yet.
func activeThreshold(daysLeft int) int {
	if daysLeft < 0 {
		return 0
	}

	active := 0
	for _, threshold := range reminderThresholds {
		if daysLeft <= threshold {
			active = threshold
		}
	}
	return active
}

// calendarDaysUntil counts whole calendar days between now and due. Due dates
// are anchored at midnight, so subtracting wall-clock time directly would
// undercount by a day for any sweep after 00:00.
func calendarDaysUntil(now, due time.Time) int {
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dueDate := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return int(dueDate.Sub(nowDate).Hours() / 24)
}
