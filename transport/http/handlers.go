package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/stepauth/pkg/clientip"
	"github.com/dmitrymomot/stepauth/stepup"
)

type initiateRequest struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type initiateResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsExisting bool      `json:"is_existing"`
}

func (h *handler) initiate(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.InitiateStepUp(r.Context(), stepup.InitiateRequest{
		AccountID: accountID,
		Phone:     req.Phone,
		Email:     req.Email,
		IP:        clientip.GetIP(r),
		UserAgent: r.UserAgent(),
	})
	switch {
	case errors.Is(err, stepup.ErrAccountLocked):
		writeError(w, http.StatusLocked, result.Message)
		return
	case errors.Is(err, stepup.ErrNoUsableChannel):
		writeError(w, http.StatusUnprocessableEntity, "no usable delivery channel")
		return
	case errors.Is(err, stepup.ErrAllChannelsFailed):
		writeError(w, http.StatusBadGateway, "delivery failed, try again")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, initiateResponse{
		Success:    result.Success,
		Message:    result.Message,
		ExpiresAt:  result.ExpiresAt,
		IsExisting: result.IsExisting,
	})
}

type submitRequest struct {
	Code string `json:"code"`
}

type submitResponse struct {
	Success           bool      `json:"success"`
	Message           string    `json:"message"`
	SessionToken      string    `json:"session_token,omitempty"`
	SessionExpiresAt  time.Time `json:"session_expires_at,omitzero"`
	AttemptsRemaining int       `json:"attempts_remaining"`
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.SubmitStepUpCode(r.Context(), accountID, req.Code, clientip.GetIP(r), r.UserAgent())
	switch {
	case errors.Is(err, stepup.ErrAccountLocked):
		writeError(w, http.StatusLocked, result.Message)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, submitResponse{
		Success:           result.Success,
		Message:           result.Message,
		SessionToken:      result.SessionToken,
		SessionExpiresAt:  result.SessionExpiresAt,
		AttemptsRemaining: result.AttemptsRemaining,
	})
}

type sessionResponse struct {
	Valid     bool   `json:"valid"`
	AccountID string `json:"account_id,omitempty"`
}

func (h *handler) verifySession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing session token")
		return
	}

	accountID, valid, err := h.svc.VerifySession(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := sessionResponse{Valid: valid}
	if valid {
		resp.AccountID = accountID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) invalidateSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing session token")
		return
	}

	if err := h.svc.InvalidateSession(r.Context(), token); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type lockoutResponse struct {
	Locked      bool       `json:"locked"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

func (h *handler) lockoutStatus(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	state, err := h.svc.CheckLockout(r.Context(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := lockoutResponse{Locked: state.IsLocked(time.Now())}
	if resp.Locked {
		resp.LockedUntil = state.LockedUntil
	}
	writeJSON(w, http.StatusOK, resp)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
