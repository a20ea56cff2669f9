// internal/app/features/projects/routes.go
package projects

import "github.com/go-chi/chi/v5"

// Routes mounts the project endpoints under /api/project.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/workspace/{workspaceId}/create", h.HandleCreate)
	r.Get("/workspace/{workspaceId}/all", h.ServeAll)

	r.Get("/{id}/workspace/{workspaceId}", h.ServeOne)
	r.Get("/{id}/workspace/{workspaceId}/analytics", h.ServeAnalytics)
	r.Put("/{id}/workspace/{workspaceId}/update", h.HandleUpdate)
	r.Delete("/{id}/workspace/{workspaceId}/delete", h.HandleDelete)

	return r
}
