package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehiscan/vehiscan/internal/models"
)

func seedVehicle(ownerID, chassis, lastRenewal string) *models.Vehicle {
	return &models.Vehicle{
		OwnerUserID:        ownerID,
		OwnerName:          "Juan Dela Cruz",
		LicensePlate:       "ABC 1234",
		Make:               "Toyota",
		Model:              "Vios",
		YearModel:          "2021",
		BodyType:           "Sedan",
		ChassisNumber:      chassis,
		EngineNumber:       "ENG123456",
		Color:              "Silver",
		Fuel:               "Gasoline",
		GrossWeight:        "1500",
		NetWeight:          "1100",
		NetCapacity:        "400",
		PistonDisplacement: "1496",
		Series:             "XLE",
		LastRenewal:        lastRenewal,
	}
}

func TestVehicleRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	userRepo, vehicleRepo, scanRepo := InitializeRepositories(testDB.DB)

	email, password := TestUser("vehicles")
	owner, err := SeedUser(ctx, testDB.Pool, email, password)
	require.NoError(t, err)

	t.Run("seeded owner resolves by email", func(t *testing.T) {
		fetched, err := userRepo.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, fetched.ID)
	})

	t.Run("create and fetch round trip", func(t *testing.T) {
		created, err := vehicleRepo.Create(ctx, seedVehicle(owner.ID, "JTDBT923771012345", "2026-01-15"))
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)

		fetched, err := vehicleRepo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "JTDBT923771012345", fetched.ChassisNumber)
		assert.Equal(t, "2026-01-15", fetched.LastRenewal)
		assert.Equal(t, 0, fetched.RemindedThreshold)

		byChassis, err := vehicleRepo.GetByChassisNumber(ctx, "JTDBT923771012345")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byChassis.ID)
	})

	t.Run("duplicate chassis number conflicts", func(t *testing.T) {
		_, err := vehicleRepo.Create(ctx, seedVehicle(owner.ID, "JTDBT923771012345", "2026-02-01"))
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("list due between finds approaching renewals", func(t *testing.T) {
		// Due one year after last renewal
		lastRenewal := time.Now().AddDate(-1, 0, 20).Format("2006-01-02")
		created, err := vehicleRepo.Create(ctx, seedVehicle(owner.ID, "KMHDN41BP6U123456", lastRenewal))
		require.NoError(t, err)

		due, err := vehicleRepo.ListDueBetween(ctx, time.Now(), time.Now().AddDate(0, 0, 30))
		require.NoError(t, err)

		found := false
		for _, v := range due {
			if v.ID == created.ID {
				found = true
			}
		}
		assert.True(t, found, "vehicle due in 20 days should appear in the 30 day lookahead")
	})

	t.Run("set reminded threshold", func(t *testing.T) {
		created, err := vehicleRepo.Create(ctx, seedVehicle(owner.ID, "WVWZZZ1JZXW123456", "2026-03-01"))
		require.NoError(t, err)

		require.NoError(t, vehicleRepo.SetRemindedThreshold(ctx, created.ID, 30))

		fetched, err := vehicleRepo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, fetched.RemindedThreshold)
	})

	t.Run("scan history retention", func(t *testing.T) {
		created, err := vehicleRepo.Create(ctx, seedVehicle(owner.ID, "1HGBH41JXMN109186", "2026-04-01"))
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err := scanRepo.Create(ctx, &models.Scan{
				UserID:             owner.ID,
				VehicleID:          created.ID,
				LicensePlate:       created.LicensePlate,
				RegistrationStatus: models.RegistrationValid,
			})
			require.NoError(t, err)
		}

		count, err := scanRepo.CountByUser(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		history, err := scanRepo.ListByUser(ctx, owner.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, history, 3)

		deleted, err := scanRepo.DeleteOlderThan(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)
	})

	t.Run("delete missing vehicle is not found", func(t *testing.T) {
		err := vehicleRepo.Delete(ctx, fmt.Sprintf("missing-%d", time.Now().UnixNano()))
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
