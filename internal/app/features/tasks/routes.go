// internal/app/features/tasks/routes.go
package tasks

import "github.com/go-chi/chi/v5"

// Routes mounts the task endpoints under /api/task.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/project/{projectId}/workspace/{workspaceId}/create", h.HandleCreate)
	r.Get("/workspace/{workspaceId}/all", h.ServeAll)

	r.Get("/{id}/project/{projectId}/workspace/{workspaceId}", h.ServeOne)
	r.Put("/{id}/project/{projectId}/workspace/{workspaceId}/update", h.HandleUpdate)
	r.Delete("/{id}/workspace/{workspaceId}/delete", h.HandleDelete)

	return r
}
