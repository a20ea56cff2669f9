// internal/app/features/workspaces/routes.go
package workspaces

import "github.com/go-chi/chi/v5"

// Routes mounts the workspace endpoints under /api/workspace. All of them
// need a signed-in user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/all", h.ServeAll)
	r.Put("/change/current/{id}", h.HandleSwitch)
	r.Put("/update/{id}", h.HandleUpdate)

	r.Get("/{id}", h.ServeOne)
	r.Get("/{id}/members", h.ServeMembers)
	r.Put("/{id}/change/member/role", h.HandleChangeRole)

	return r
}
