package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/vehiscan/vehiscan/internal/auth"
	"github.com/vehiscan/vehiscan/internal/guard"
	"github.com/vehiscan/vehiscan/internal/models"
	"github.com/vehiscan/vehiscan/internal/services"
	pkghttp "github.com/vehiscan/vehiscan/pkg/http"
)

// ScanServiceInterface defines the interface for scan business logic
type ScanServiceInterface interface {
	Scan(ctx context.Context, userID, payload string) (*services.ScanResponse, error)
	Quota(ctx context.Context, userID string) (*guard.DetailedStatus, error)
	History(ctx context.Context, userID string, limit, offset int) ([]*services.HistoryEntry, error)
}

// ScanHandler handles QR scan HTTP requests
type ScanHandler struct {
	service ScanServiceInterface
}

// NewScanHandler creates a new ScanHandler
func NewScanHandler(service ScanServiceInterface) *ScanHandler {
	return &ScanHandler{
		service: service,
	}
}

// ScanRequest represents a scanned QR payload submission
type ScanRequest struct {
	Payload string `json:"payload" validate:"required"`
}

// Scan resolves a scanned QR payload to a vehicle
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Scan(r.Context(), claims.UserID, req.Payload)
	if err != nil {
		var denied *services.ScanDeniedError
		switch {
		case errors.As(err, &denied):
			pkghttp.WriteTooManyRequestsUntil(w, denied.RetryAt, denied.Notice)
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid QR code")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "No vehicle found for this QR code")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Quota reports the caller's remaining scan allowance
func (h *ScanHandler) Quota(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	status, err := h.service.Quota(r.Context(), claims.UserID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, status)
}

// History lists the caller's past scans
func (h *ScanHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.service.History(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, entries)
}
