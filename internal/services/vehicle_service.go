package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vehiscan/vehiscan/internal/models"
	"github.com/vehiscan/vehiscan/internal/qr"
	"github.com/vehiscan/vehiscan/internal/validation"
	pkglogger "github.com/vehiscan/vehiscan/pkg/logger"
)

// VehicleRepository defines the vehicle persistence operations the service needs
type VehicleRepository interface {
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)
	GetByChassisNumber(ctx context.Context, chassisNumber string) (*models.Vehicle, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]*models.Vehicle, error)
	Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error)
	Update(ctx context.Context, id string, vehicle *models.Vehicle) (*models.Vehicle, error)
	Delete(ctx context.Context, id string) error
}

// ValidationFailedError carries the per-field messages for a rejected form
type ValidationFailedError struct {
	Messages []string
}

func (e *ValidationFailedError) Error() string {
	return "vehicle validation failed"
}

func (e *ValidationFailedError) Unwrap() error {
	return models.ErrBadRequest
}

// VehicleService handles vehicle registration business logic
type VehicleService struct {
	repo   VehicleRepository
	logger *slog.Logger
}

// NewVehicleService creates a new VehicleService
func NewVehicleService(repo VehicleRepository, logger *slog.Logger) *VehicleService {
	return &VehicleService{
		repo:   repo,
		logger: logger,
	}
}

// VehicleResponse represents a vehicle in the HTTP response
type VehicleResponse struct {
	ID                 string `json:"id"`
	OwnerName          string `json:"owner_name"`
	LicensePlate       string `json:"license_plate"`
	Make               string `json:"make"`
	Model              string `json:"model,omitempty"`
	YearModel          string `json:"year_model"`
	BodyType           string `json:"body_type"`
	ChassisNumber      string `json:"chassis_number"`
	EngineNumber       string `json:"engine_number"`
	Color              string `json:"color"`
	Fuel               string `json:"fuel"`
	GrossWeight        string `json:"gross_weight"`
	NetWeight          string `json:"net_weight"`
	NetCapacity        string `json:"net_capacity"`
	PistonDisplacement string `json:"piston_displacement"`
	Series             string `json:"series"`
	LastRenewal        string `json:"last_renewal"`
	RegistrationStatus string `json:"registration_status"`
	QRPayload          string `json:"qr_payload"`
	CreatedAt          string `json:"created_at"`
}

// Register sanitizes and validates the submitted form, rejects duplicate
// chassis numbers and persists the vehicle for the owner.
func (s *VehicleService) Register(ctx context.Context, ownerUserID string, form validation.VehicleForm) (*VehicleResponse, error) {
	form = validation.SanitizeVehicle(form)

	result := validation.ValidateVehicle(form)
	if !result.Valid {
		s.logger.Info("vehicle registration rejected",
			slog.String("owner_user_id", ownerUserID),
			slog.Int("field_errors", len(result.Errors)))
		return nil, &ValidationFailedError{Messages: result.Errors}
	}

	existing, err := s.repo.GetByChassisNumber(ctx, form.ChassisNumber)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check chassis number", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if existing != nil {
		s.logger.Info("vehicle registration rejected: duplicate chassis number",
			slog.String("owner_user_id", ownerUserID))
		return nil, models.ErrConflict
	}

	vehicle := &models.Vehicle{
		OwnerUserID:        ownerUserID,
		OwnerName:          form.OwnerName,
		LicensePlate:       form.LicensePlate,
		Make:               form.Make,
		Model:              form.Model,
		YearModel:          form.YearModel,
		BodyType:           form.BodyType,
		ChassisNumber:      form.ChassisNumber,
		EngineNumber:       form.EngineNumber,
		Color:              form.Color,
		Fuel:               form.Fuel,
		GrossWeight:        form.GrossWeight,
		NetWeight:          form.NetWeight,
		NetCapacity:        form.NetCapacity,
		PistonDisplacement: form.PistonDisplacement,
		Series:             form.Series,
		LastRenewal:        form.LastRenewal,
	}

	created, err := s.repo.Create(ctx, vehicle)
	if err != nil {
		s.logger.Error("failed to create vehicle", slog.Any("error", err))
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		return nil, models.ErrInternalServer
	}

	s.logger.Info("vehicle registered",
		slog.String("vehicle_id", created.ID),
		slog.String("owner_user_id", ownerUserID),
		slog.String("plate", pkglogger.SanitizedPlate(created.LicensePlate)))

	return vehicleModelToResponse(created), nil
}

// Get returns a vehicle visible to the requesting user. Admins can read
// any vehicle, owners only their own.
func (s *VehicleService) Get(ctx context.Context, requesterID, requesterRole, vehicleID string) (*VehicleResponse, error) {
	vehicle, err := s.repo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if requesterRole != "admin" && vehicle.OwnerUserID != requesterID {
		return nil, models.ErrForbidden
	}

	return vehicleModelToResponse(vehicle), nil
}

// ListOwned returns the requesting user's vehicles
func (s *VehicleService) ListOwned(ctx context.Context, ownerUserID string) ([]*VehicleResponse, error) {
	vehicles, err := s.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		s.logger.Error("failed to list vehicles", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*VehicleResponse, 0, len(vehicles))
	for _, vehicle := range vehicles {
		responses = append(responses, vehicleModelToResponse(vehicle))
	}
	return responses, nil
}

// Renew records a registration renewal for the vehicle and clears any
// reminder progress so the next cycle starts fresh.
func (s *VehicleService) Renew(ctx context.Context, requesterID, requesterRole, vehicleID, renewalDate string) (*VehicleResponse, error) {
	renewalDate = validation.Sanitize(renewalDate)
	if !validation.ValidateField(validation.FieldDate, renewalDate) {
		return nil, &ValidationFailedError{Messages: []string{
			"Renewal date must be a valid date (YYYY-MM-DD)",
		}}
	}

	vehicle, err := s.repo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if requesterRole != "admin" && vehicle.OwnerUserID != requesterID {
		return nil, models.ErrForbidden
	}

	vehicle.LastRenewal = renewalDate
	vehicle.RemindedThreshold = 0

	updated, err := s.repo.Update(ctx, vehicleID, vehicle)
	if err != nil {
		s.logger.Error("failed to renew vehicle", slog.String("vehicle_id", vehicleID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("vehicle registration renewed",
		slog.String("vehicle_id", vehicleID),
		slog.String("last_renewal", renewalDate))

	return vehicleModelToResponse(updated), nil
}

// Delete removes a vehicle owned by the requester
func (s *VehicleService) Delete(ctx context.Context, requesterID, requesterRole, vehicleID string) error {
	vehicle, err := s.repo.GetByID(ctx, vehicleID)
	if err != nil {
		return err
	}

	if requesterRole != "admin" && vehicle.OwnerUserID != requesterID {
		return models.ErrForbidden
	}

	if err := s.repo.Delete(ctx, vehicleID); err != nil {
		s.logger.Error("failed to delete vehicle", slog.String("vehicle_id", vehicleID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("vehicle deleted", slog.String("vehicle_id", vehicleID))
	return nil
}

// QRCode renders the vehicle's QR code as a PNG. The payload encodes only
// the vehicle id, never the descriptive fields.
func (s *VehicleService) QRCode(ctx context.Context, requesterID, requesterRole, vehicleID string, size int) ([]byte, error) {
	vehicle, err := s.repo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if requesterRole != "admin" && vehicle.OwnerUserID != requesterID {
		return nil, models.ErrForbidden
	}

	png, err := qr.PNG(vehicle.ID, size)
	if err != nil {
		s.logger.Error("failed to render QR code", slog.String("vehicle_id", vehicleID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return png, nil
}

func vehicleModelToResponse(vehicle *models.Vehicle) *VehicleResponse {
	return &VehicleResponse{
		ID:                 vehicle.ID,
		OwnerName:          vehicle.OwnerName,
		LicensePlate:       vehicle.LicensePlate,
		Make:               vehicle.Make,
		Model:              vehicle.Model,
		YearModel:          vehicle.YearModel,
		BodyType:           vehicle.BodyType,
		ChassisNumber:      vehicle.ChassisNumber,
		EngineNumber:       vehicle.EngineNumber,
		Color:              vehicle.Color,
		Fuel:               vehicle.Fuel,
		GrossWeight:        vehicle.GrossWeight,
		NetWeight:          vehicle.NetWeight,
		NetCapacity:        vehicle.NetCapacity,
		PistonDisplacement: vehicle.PistonDisplacement,
		Series:             vehicle.Series,
		LastRenewal:        vehicle.LastRenewal,
		RegistrationStatus: vehicle.RegistrationStatus(time.Now()),
		QRPayload:          qr.Payload(vehicle.ID),
		CreatedAt:          vehicle.CreatedAt.Format(time.RFC3339),
	}
}
