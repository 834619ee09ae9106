package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/stepauth/stepup"
)

// Router mounts the step-up operations as JSON endpoints.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(authMiddleware) // populates the account ID via WithAccountID
//	r.Mount("/stepup", stepuphttp.Router(svc))
func Router(svc *stepup.Service) chi.Router {
	h := &handler{svc: svc}

	r := chi.NewRouter()
	r.Post("/initiate", h.initiate)
	r.Post("/submit", h.submit)
	r.Get("/session", h.verifySession)
	r.Delete("/session", h.invalidateSession)
	r.Get("/lockout", h.lockoutStatus)

	r.Route("/mfa", func(mfa chi.Router) {
		mfa.Post("/setup", h.setupMFA)
		mfa.Post("/enable", h.enableMFA)
		mfa.Post("/disable", h.disableMFA)
		mfa.Post("/verify", h.verifyMFA)
		mfa.Get("/status", h.mfaStatus)
	})

	return r
}

type handler struct {
	svc *stepup.Service
}

func requireAccount(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, found := AccountIDFromContext(r.Context())
	if !found {
		writeError(w, http.StatusUnauthorized, "missing account identity")
		return uuid.Nil, false
	}
	return id, true
}
