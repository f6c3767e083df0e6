package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehiscan/vehiscan/internal/models"
	"github.com/vehiscan/vehiscan/internal/qr"
	"github.com/vehiscan/vehiscan/internal/validation"
)

func validVehicleForm() validation.VehicleForm {
	return validation.VehicleForm{
		OwnerName:          "Juan Dela Cruz",
		LicensePlate:       "ABC 1234",
		Make:               "Toyota",
		Model:              "Vios",
		YearModel:          "2020",
		BodyType:           "Sedan",
		ChassisNumber:      "MR053ABC12345678",
		EngineNumber:       "2NZ1234567",
		Color:              "Silver",
		Fuel:               "Gasoline",
		GrossWeight:        "1500",
		NetWeight:          "1100",
		NetCapacity:        "400",
		PistonDisplacement: "1497",
		Series:             "XLE",
		LastRenewal:        time.Now().AddDate(0, -1, 0).Format("2006-01-02"),
	}
}

func TestVehicleService_Register_Success(t *testing.T) {
	var created *models.Vehicle

	svc := NewVehicleService(&MockVehicleRepository{
		GetByChassisNumberFunc: func(ctx context.Context, chassisNumber string) (*models.Vehicle, error) {
			return nil, models.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
			vehicle.ID = "aB3dE5fG7hJ9kL1mN3p"
			vehicle.CreatedAt = time.Now()
			created = vehicle
			return vehicle, nil
		},
	}, slog.Default())

	resp, err := svc.Register(context.Background(), "user123", validVehicleForm())
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "user123", created.OwnerUserID)
	assert.Equal(t, "ABC 1234", resp.LicensePlate)
	assert.Equal(t, qr.Payload("aB3dE5fG7hJ9kL1mN3p"), resp.QRPayload)
	assert.Equal(t, models.RegistrationValid, resp.RegistrationStatus)
}

func TestVehicleService_Register_SanitizesBeforeValidation(t *testing.T) {
	form := validVehicleForm()
	form.OwnerName = "Juan  Dela   Cruz" // collapses to single spaces

	var created *models.Vehicle
	svc := NewVehicleService(&MockVehicleRepository{
		GetByChassisNumberFunc: func(ctx context.Context, chassisNumber string) (*models.Vehicle, error) {
			return nil, models.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
			created = vehicle
			vehicle.ID = "aB3dE5fG7hJ9kL1mN3p"
			return vehicle, nil
		},
	}, slog.Default())

	_, err := svc.Register(context.Background(), "user123", form)
	require.NoError(t, err)
	assert.Equal(t, "Juan Dela Cruz", created.OwnerName)
}

func TestVehicleService_Register_CollectsAllFieldErrors(t *testing.T) {
	form := validVehicleForm()
	form.LicensePlate = "????????"
	form.ChassisNumber = "short"
	form.YearModel = "1850"

	svc := NewVehicleService(&MockVehicleRepository{}, slog.Default())

	resp, err := svc.Register(context.Background(), "user123", form)
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBadRequest)

	var failed *ValidationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Len(t, failed.Messages, 3)
}

func TestVehicleService_Register_DuplicateChassisNumber(t *testing.T) {
	existing := &models.Vehicle{ID: "existing", ChassisNumber: "MR053ABC12345678"}

	svc := NewVehicleService(&MockVehicleRepository{
		GetByChassisNumberFunc: func(ctx context.Context, chassisNumber string) (*models.Vehicle, error) {
			return existing, nil
		},
	}, slog.Default())

	resp, err := svc.Register(context.Background(), "user123", validVehicleForm())
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestVehicleService_Get_OwnerOnly(t *testing.T) {
	vehicle := &models.Vehicle{
		ID:          "aB3dE5fG7hJ9kL1mN3p",
		OwnerUserID: "owner1",
		LastRenewal: time.Now().AddDate(0, -1, 0).Format("2006-01-02"),
	}

	svc := NewVehicleService(&MockVehicleRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Vehicle, error) {
			return vehicle, nil
		},
	}, slog.Default())

	_, err := svc.Get(context.Background(), "owner1", "user", vehicle.ID)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), "intruder", "user", vehicle.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.Get(context.Background(), "someone", "admin", vehicle.ID)
	assert.NoError(t, err)
}

func TestVehicleService_Renew_UpdatesDateAndClearsReminders(t *testing.T) {
	vehicle := &models.Vehicle{
		ID:                "aB3dE5fG7hJ9kL1mN3p",
		OwnerUserID:       "owner1",
		LastRenewal:       "2024-01-01",
		RemindedThreshold: 7,
	}

	var updated *models.Vehicle
	svc := NewVehicleService(&MockVehicleRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Vehicle, error) {
			return vehicle, nil
		},
		UpdateFunc: func(ctx context.Context, id string, v *models.Vehicle) (*models.Vehicle, error) {
			updated = v
			return v, nil
		},
	}, slog.Default())

	_, err := svc.Renew(context.Background(), "owner1", "user", vehicle.ID, "2026-08-30")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "2026-08-30", updated.LastRenewal)
	assert.Equal(t, 0, updated.RemindedThreshold)
}

func TestVehicleService_Renew_RejectsBadDate(t *testing.T) {
	svc := NewVehicleService(&MockVehicleRepository{}, slog.Default())

	_, err := svc.Renew(context.Background(), "owner1", "user", "id", "30-08-2026")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestVehicleService_RegistrationStatusExpired(t *testing.T) {
	vehicle := &models.Vehicle{
		ID:          "aB3dE5fG7hJ9kL1mN3p",
		OwnerUserID: "owner1",
		LastRenewal: "2020-01-01",
	}

	svc := NewVehicleService(&MockVehicleRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Vehicle, error) {
			return vehicle, nil
		},
	}, slog.Default())

	resp, err := svc.Get(context.Background(), "owner1", "user", vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationExpired, resp.RegistrationStatus)
}

func TestVehicleService_QRCode_RendersPNG(t *testing.T) {
	vehicle := &models.Vehicle{
		ID:          "aB3dE5fG7hJ9kL1mN3p",
		OwnerUserID: "owner1",
		LastRenewal: time.Now().AddDate(0, -1, 0).Format("2006-01-02"),
	}

	svc := NewVehicleService(&MockVehicleRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Vehicle, error) {
			return vehicle, nil
		},
	}, slog.Default())

	png, err := svc.QRCode(context.Background(), "owner1", "user", vehicle.ID, 256)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
