package models

import (
	"time"
)

// Registration status values derived from the last renewal date.
const (
	RegistrationValid   = "Valid"
	RegistrationExpired = "Expired"
	RegistrationInvalid = "Invalid"
)

// Vehicle is a registered vehicle record. The string-typed descriptive
// fields mirror the registration certificate and are sanitized and
// validated before persistence.
type Vehicle struct {
	ID                 string
	OwnerUserID        string
	OwnerName          string
	LicensePlate       string
	Make               string
	Model              string
	YearModel          string
	BodyType           string
	ChassisNumber      string
	EngineNumber       string
	Color              string
	Fuel               string
	GrossWeight        string
	NetWeight          string
	NetCapacity        string
	PistonDisplacement string
	Series             string
	LastRenewal        string // YYYY-MM-DD
	RemindedThreshold  int    // days before due of the last renewal reminder sent (0 = none)
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RegistrationDue returns the date the registration must be renewed by:
// one year after the last renewal.
func (v *Vehicle) RegistrationDue() (time.Time, error) {
	renewed, err := time.Parse("2006-01-02", v.LastRenewal)
	if err != nil {
		return time.Time{}, err
	}
	return renewed.AddDate(1, 0, 0), nil
}

// RegistrationStatus classifies the vehicle's registration as of now.
// A registration is Expired once more than one full year has elapsed
// since the last renewal.
func (v *Vehicle) RegistrationStatus(now time.Time) string {
	due, err := v.RegistrationDue()
	if err != nil {
		return RegistrationInvalid
	}
	if now.After(due) {
		return RegistrationExpired
	}
	return RegistrationValid
}
