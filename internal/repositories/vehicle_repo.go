package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vehiscan/vehiscan/internal/database"
	"github.com/vehiscan/vehiscan/internal/models"
)

type VehicleRepository struct {
	pool *pgxpool.Pool
}

func NewVehicleRepository(db *database.DB) *VehicleRepository {
	return &VehicleRepository{pool: db.Pool}
}

const vehicleColumns = `id, owner_user_id, owner_name, license_plate, make, model, year_model,
		body_type, chassis_number, engine_number, color, fuel,
		gross_weight, net_weight, net_capacity, piston_displacement, series,
		last_renewal, reminded_threshold, created_at, updated_at`

func scanVehicleRow(scanner rowScanner) (*models.Vehicle, error) {
	var v models.Vehicle

	err := scanner.Scan(
		&v.ID, &v.OwnerUserID, &v.OwnerName, &v.LicensePlate, &v.Make, &v.Model, &v.YearModel,
		&v.BodyType, &v.ChassisNumber, &v.EngineNumber, &v.Color, &v.Fuel,
		&v.GrossWeight, &v.NetWeight, &v.NetCapacity, &v.PistonDisplacement, &v.Series,
		&v.LastRenewal, &v.RemindedThreshold, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &v, nil
}

func scanVehicleRows(rows pgx.Rows) ([]*models.Vehicle, error) {
	defer rows.Close()

	vehicles := make([]*models.Vehicle, 0)

	for rows.Next() {
		vehicle, err := scanVehicleRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return vehicles, nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	return scanVehicleRow(r.pool.QueryRow(ctx, query, id))
}

func (r *VehicleRepository) GetByChassisNumber(ctx context.Context, chassisNumber string) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE chassis_number = $1`

	return scanVehicleRow(r.pool.QueryRow(ctx, query, chassisNumber))
}

func (r *VehicleRepository) ListByOwner(ctx context.Context, ownerUserID string) ([]*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE owner_user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}

	return scanVehicleRows(rows)
}

func (r *VehicleRepository) List(ctx context.Context, limit, offset int) ([]*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}

	return scanVehicleRows(rows)
}

// ListDueBetween returns vehicles whose registration falls due inside the
// given window, for renewal reminder scheduling. The due date is one year
// after last_renewal.
func (r *VehicleRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles
		WHERE last_renewal::date + INTERVAL '1 year' BETWEEN $1 AND $2
		ORDER BY last_renewal ASC`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query due vehicles: %w", err)
	}

	return scanVehicleRows(rows)
}

func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
	id, err := newRecordID()
	if err != nil {
		return nil, err
	}
	vehicle.ID = id

	now := time.Now()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	query := `
		INSERT INTO vehicles (` + vehicleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING ` + vehicleColumns

	return scanVehicleRow(r.pool.QueryRow(ctx, query,
		vehicle.ID, vehicle.OwnerUserID, vehicle.OwnerName, vehicle.LicensePlate, vehicle.Make, vehicle.Model, vehicle.YearModel,
		vehicle.BodyType, vehicle.ChassisNumber, vehicle.EngineNumber, vehicle.Color, vehicle.Fuel,
		vehicle.GrossWeight, vehicle.NetWeight, vehicle.NetCapacity, vehicle.PistonDisplacement, vehicle.Series,
		vehicle.LastRenewal, vehicle.RemindedThreshold, vehicle.CreatedAt, vehicle.UpdatedAt,
	))
}

func (r *VehicleRepository) Update(ctx context.Context, id string, vehicle *models.Vehicle) (*models.Vehicle, error) {
	vehicle.UpdatedAt = time.Now()

	query := `
		UPDATE vehicles SET owner_name = $1, license_plate = $2, make = $3, model = $4, year_model = $5,
			body_type = $6, chassis_number = $7, engine_number = $8, color = $9, fuel = $10,
			gross_weight = $11, net_weight = $12, net_capacity = $13, piston_displacement = $14, series = $15,
			last_renewal = $16, reminded_threshold = $17, updated_at = $18
		WHERE id = $19
		RETURNING ` + vehicleColumns

	return scanVehicleRow(r.pool.QueryRow(ctx, query,
		vehicle.OwnerName, vehicle.LicensePlate, vehicle.Make, vehicle.Model, vehicle.YearModel,
		vehicle.BodyType, vehicle.ChassisNumber, vehicle.EngineNumber, vehicle.Color, vehicle.Fuel,
		vehicle.GrossWeight, vehicle.NetWeight, vehicle.NetCapacity, vehicle.PistonDisplacement, vehicle.Series,
		vehicle.LastRenewal, vehicle.RemindedThreshold, vehicle.UpdatedAt, id,
	))
}

// SetRemindedThreshold records the most recent reminder threshold sent for
// the vehicle so the same reminder is not sent twice.
func (r *VehicleRepository) SetRemindedThreshold(ctx context.Context, id string, threshold int) error {
	query := `UPDATE vehicles SET reminded_threshold = $1, updated_at = $2 WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, threshold, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM vehicles WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
