package models

import (
	"time"
)

// Scan records a QR lookup performed by a user. One row per admitted scan,
// persisted so users can review their scan history.
type Scan struct {
	ID                 string
	UserID             string
	VehicleID          string
	LicensePlate       string
	RegistrationStatus string
	ScannedAt          time.Time
}
