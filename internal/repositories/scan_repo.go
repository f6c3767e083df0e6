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

type ScanRepository struct {
	pool *pgxpool.Pool
}

func NewScanRepository(db *database.DB) *ScanRepository {
	return &ScanRepository{pool: db.Pool}
}

func scanScanRow(scanner rowScanner) (*models.Scan, error) {
	var s models.Scan

	err := scanner.Scan(
		&s.ID, &s.UserID, &s.VehicleID, &s.LicensePlate,
		&s.RegistrationStatus, &s.ScannedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &s, nil
}

func scanScanRows(rows pgx.Rows) ([]*models.Scan, error) {
	defer rows.Close()

	scans := make([]*models.Scan, 0)

	for rows.Next() {
		scan, err := scanScanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scans = append(scans, scan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return scans, nil
}

func (r *ScanRepository) Create(ctx context.Context, scan *models.Scan) (*models.Scan, error) {
	id, err := newRecordID()
	if err != nil {
		return nil, err
	}
	scan.ID = id

	if scan.ScannedAt.IsZero() {
		scan.ScannedAt = time.Now()
	}

	query := `
		INSERT INTO scans (id, user_id, vehicle_id, license_plate, registration_status, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, vehicle_id, license_plate, registration_status, scanned_at
	`

	return scanScanRow(r.pool.QueryRow(ctx, query,
		scan.ID, scan.UserID, scan.VehicleID, scan.LicensePlate,
		scan.RegistrationStatus, scan.ScannedAt,
	))
}

func (r *ScanRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Scan, error) {
	query := `
		SELECT id, user_id, vehicle_id, license_plate, registration_status, scanned_at
		FROM scans WHERE user_id = $1 ORDER BY scanned_at DESC LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}

	return scanScanRows(rows)
}

func (r *ScanRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM scans WHERE user_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}

	return count, nil
}

// DeleteOlderThan removes scan history rows older than the cutoff.
// Returns the number of rows removed.
func (r *ScanRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM scans WHERE scanned_at < $1`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
