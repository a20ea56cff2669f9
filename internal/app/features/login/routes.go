// internal/app/features/login/routes.go
package login

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/auth. limit, when non-nil, guards both endpoints.
func Routes(h *Handler, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	if limit != nil {
		r.Use(limit)
	}
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	return r
}
