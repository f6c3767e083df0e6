package qr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/vehiscan/vehiscan/internal/validation"
)

// Scheme prefixes every QR payload this service issues.
const Scheme = "vehiscan://vehicle/"

// Document ids are random alphanumeric strings; anything outside this
// shape inside a vehiscan:// payload is rejected outright.
var vehicleIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{15,30}$`)

var (
	ErrEmptyPayload     = errors.New("empty QR payload")
	ErrInvalidVehicleID = errors.New("invalid vehicle id format")
)

// Payload builds the QR payload for a vehicle id.
func Payload(vehicleID string) string {
	return Scheme + vehicleID
}

// ScanPayload is a scanned QR payload after sanitization.
type ScanPayload struct {
	// Raw is the sanitized payload text.
	Raw string
	// VehicleID is set only when the payload used the vehiscan scheme.
	VehicleID string
}

// Parse sanitizes a scanned payload and, when it carries the vehiscan
// scheme, extracts and validates the vehicle id. Payloads in any other
// format pass through sanitized but unvalidated; a vehiscan payload
// with a malformed id is an error.
func Parse(raw string) (ScanPayload, error) {
	if raw == "" {
		return ScanPayload{}, ErrEmptyPayload
	}

	sanitized := validation.Sanitize(raw)

	if strings.HasPrefix(sanitized, Scheme) {
		vehicleID := strings.TrimPrefix(sanitized, Scheme)
		if !vehicleIDPattern.MatchString(vehicleID) {
			return ScanPayload{Raw: sanitized}, ErrInvalidVehicleID
		}
		return ScanPayload{Raw: sanitized, VehicleID: vehicleID}, nil
	}

	return ScanPayload{Raw: sanitized}, nil
}

// PNG renders the QR code for a vehicle id as a PNG image.
func PNG(vehicleID string, size int) ([]byte, error) {
	png, err := qrcode.Encode(Payload(vehicleID), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode QR code: %w", err)
	}
	return png, nil
}

// DataURL renders the QR code as a base64 data URL for direct embedding
// in clients.
func DataURL(vehicleID string, size int) (string, error) {
	png, err := PNG(vehicleID, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
