package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/stepauth/mfa"
)

type mfaSetupRequest struct {
	AccountName string `json:"account_name"`
}

type mfaSetupResponse struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioning_uri"`
	QRCodeBase64    string   `json:"qr_code_base64"`
	BackupCodes     []string `json:"backup_codes"`
}

func (h *handler) setupMFA(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var req mfaSetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.SetupMFA(r.Context(), accountID, req.AccountName)
	switch {
	case errors.Is(err, mfa.ErrAlreadyEnabled):
		writeError(w, http.StatusConflict, "mfa already enabled")
		return
	case errors.Is(err, mfa.ErrMissingAccountName):
		writeError(w, http.StatusBadRequest, "account name is required")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, mfaSetupResponse{
		Secret:          result.Secret,
		ProvisioningURI: result.ProvisioningURI,
		QRCodeBase64:    result.QRCodeBase64,
		BackupCodes:     result.BackupCodes,
	})
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *handler) enableMFA(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var req mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	enabled, err := h.svc.EnableMFA(r.Context(), accountID, req.Code)
	switch {
	case errors.Is(err, mfa.ErrNotEnrolled):
		writeError(w, http.StatusConflict, "run setup first")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !enabled {
		writeError(w, http.StatusUnauthorized, "verification failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": true})
}

func (h *handler) disableMFA(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	err := h.svc.DisableMFA(r.Context(), accountID)
	switch {
	case errors.Is(err, mfa.ErrNotEnrolled):
		writeError(w, http.StatusConflict, "mfa is not set up")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": false})
}

func (h *handler) verifyMFA(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var req mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	verified, err := h.svc.VerifyMFA(r.Context(), accountID, req.Code)
	switch {
	case errors.Is(err, mfa.ErrNotEnrolled):
		writeError(w, http.StatusConflict, "mfa is not set up")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !verified {
		writeError(w, http.StatusUnauthorized, "verification failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

func (h *handler) mfaStatus(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccount(w, r)
	if !ok {
		return
	}

	enabled, err := h.svc.MFAEnabled(r.Context(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}
