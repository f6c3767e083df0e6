package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vehiscan/vehiscan/internal/auth"
	"github.com/vehiscan/vehiscan/internal/models"
	"github.com/vehiscan/vehiscan/internal/services"
	"github.com/vehiscan/vehiscan/internal/validation"
	pkghttp "github.com/vehiscan/vehiscan/pkg/http"
)

// VehicleServiceInterface defines the interface for vehicle business logic
type VehicleServiceInterface interface {
	Register(ctx context.Context, ownerUserID string, form validation.VehicleForm) (*services.VehicleResponse, error)
	Get(ctx context.Context, requesterID, requesterRole, vehicleID string) (*services.VehicleResponse, error)
	ListOwned(ctx context.Context, ownerUserID string) ([]*services.VehicleResponse, error)
	Renew(ctx context.Context, requesterID, requesterRole, vehicleID, renewalDate string) (*services.VehicleResponse, error)
	Delete(ctx context.Context, requesterID, requesterRole, vehicleID string) error
	QRCode(ctx context.Context, requesterID, requesterRole, vehicleID string, size int) ([]byte, error)
}

// VehicleHandler handles vehicle registration HTTP requests
type VehicleHandler struct {
	service VehicleServiceInterface
}

// NewVehicleHandler creates a new VehicleHandler
func NewVehicleHandler(service VehicleServiceInterface) *VehicleHandler {
	return &VehicleHandler{
		service: service,
	}
}

// RegisterVehicleRequest represents the registration form as submitted.
// Field rules are enforced by the validation package after sanitization,
// so only presence is checked here.
type RegisterVehicleRequest struct {
	OwnerName          string `json:"owner_name" validate:"required"`
	LicensePlate       string `json:"license_plate" validate:"required"`
	Make               string `json:"make" validate:"required"`
	Model              string `json:"model"`
	YearModel          string `json:"year_model" validate:"required"`
	BodyType           string `json:"body_type" validate:"required"`
	ChassisNumber      string `json:"chassis_number" validate:"required"`
	EngineNumber       string `json:"engine_number" validate:"required"`
	Color              string `json:"color" validate:"required"`
	Fuel               string `json:"fuel" validate:"required"`
	GrossWeight        string `json:"gross_weight" validate:"required"`
	NetWeight          string `json:"net_weight" validate:"required"`
	NetCapacity        string `json:"net_capacity" validate:"required"`
	PistonDisplacement string `json:"piston_displacement" validate:"required"`
	Series             string `json:"series" validate:"required"`
	LastRenewal        string `json:"last_renewal" validate:"required"`
}

// RenewRequest represents a registration renewal submission
type RenewRequest struct {
	RenewalDate string `json:"renewal_date" validate:"required"`
}

// ValidationFailureResponse lists every rejected field message
type ValidationFailureResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages"`
}

// Register handles vehicle registration
func (h *VehicleHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req RegisterVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Register(r.Context(), claims.UserID, validation.VehicleForm{
		OwnerName:          req.OwnerName,
		LicensePlate:       req.LicensePlate,
		Make:               req.Make,
		Model:              req.Model,
		YearModel:          req.YearModel,
		BodyType:           req.BodyType,
		ChassisNumber:      req.ChassisNumber,
		EngineNumber:       req.EngineNumber,
		Color:              req.Color,
		Fuel:               req.Fuel,
		GrossWeight:        req.GrossWeight,
		NetWeight:          req.NetWeight,
		NetCapacity:        req.NetCapacity,
		PistonDisplacement: req.PistonDisplacement,
		Series:             req.Series,
		LastRenewal:        req.LastRenewal,
	})
	if err != nil {
		writeVehicleError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, resp)
}

// List returns the authenticated user's vehicles
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	vehicles, err := h.service.ListOwned(r.Context(), claims.UserID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, vehicles)
}

// Get returns one vehicle by id
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	vehicle, err := h.service.Get(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"))
	if err != nil {
		writeVehicleError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, vehicle)
}

// Renew records a registration renewal
func (h *VehicleHandler) Renew(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req RenewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	vehicle, err := h.service.Renew(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"), req.RenewalDate)
	if err != nil {
		writeVehicleError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, vehicle)
}

// Delete removes a vehicle
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	if err := h.service.Delete(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id")); err != nil {
		writeVehicleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// QRCode renders the vehicle's QR code as a PNG image
func (h *VehicleHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	size := 256
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 64 || parsed > 1024 {
			pkghttp.WriteBadRequest(w, "size must be between 64 and 1024")
			return
		}
		size = parsed
	}

	png, err := h.service.QRCode(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"), size)
	if err != nil {
		writeVehicleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// writeVehicleError maps service errors to HTTP responses
func writeVehicleError(w http.ResponseWriter, err error) {
	var failed *services.ValidationFailedError
	switch {
	case errors.As(err, &failed):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ValidationFailureResponse{
			Error:    "validation_failed",
			Messages: failed.Messages,
		})
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Vehicle not found")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "You do not have access to this vehicle")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "A vehicle with this chassis number is already registered")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
