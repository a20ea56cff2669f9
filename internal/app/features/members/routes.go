// internal/app/features/members/routes.go
package members

import "github.com/go-chi/chi/v5"

// Routes mounts the member endpoints. Typically:
// r.With(sm.RequireSignedIn).Mount("/api/member", members.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/workspace/{inviteCode}/join", h.HandleJoin)
	r.Delete("/workspace/{workspaceId}/remove/{memberUserId}", h.HandleRemove)
	return r
}
