package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vehiscan/vehiscan/internal/guard"
	pkghttp "github.com/vehiscan/vehiscan/pkg/http"
)

// AdminHandler exposes guard maintenance operations to administrators
type AdminHandler struct {
	limiter     *guard.RateLimiter
	lockouts    *guard.LockoutTracker
	maxAttempts int
	window      time.Duration
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(limiter *guard.RateLimiter, lockouts *guard.LockoutTracker, maxAttempts int, window time.Duration) *AdminHandler {
	return &AdminHandler{
		limiter:     limiter,
		lockouts:    lockouts,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// ResetRateLimitRequest identifies one (subject, action) attempt log
type ResetRateLimitRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Action    string `json:"action" validate:"required"`
}

// UnlockRequest identifies a locked identity
type UnlockRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ClearAllResponse reports how many attempt logs were removed
type ClearAllResponse struct {
	Cleared int `json:"cleared"`
}

// ResetRateLimit drops the attempt log for one subject and action
func (h *AdminHandler) ResetRateLimit(w http.ResponseWriter, r *http.Request) {
	var req ResetRateLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.limiter.Reset(r.Context(), req.SubjectID, req.Action); err != nil {
		pkghttp.WriteInternalError(w, "Failed to reset rate limit")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearAllRateLimits drops every attempt log
func (h *AdminHandler) ClearAllRateLimits(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.limiter.ClearAll(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to clear rate limits")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ClearAllResponse{Cleared: cleared})
}

// RateLimitStatus reports the attempt log for one subject and action
// without consuming an attempt
func (h *AdminHandler) RateLimitStatus(w http.ResponseWriter, r *http.Request) {
	subjectID := r.URL.Query().Get("subject_id")
	action := r.URL.Query().Get("action")
	if subjectID == "" || action == "" {
		pkghttp.WriteBadRequest(w, "subject_id and action are required")
		return
	}

	status, err := h.limiter.DetailedStatus(r.Context(), subjectID, action, h.maxAttempts, h.window)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to read rate limit status")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, status)
}

// Unlock clears a lockout record so the identity can log in again
func (h *AdminHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	h.lockouts.RecordSuccess(r.Context(), req.Email)
	w.WriteHeader(http.StatusNoContent)
}
