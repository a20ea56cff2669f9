// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
)

// Handler serves the router's fallback responses.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is installed as the router's NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusNotFound, body{
		Message:   "Route " + r.Method + " " + r.URL.Path + " not found",
		ErrorCode: string(apperr.NotFound),
	})
}

// MethodNotAllowed is installed as the router's MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusMethodNotAllowed, body{
		Message:   "Method " + r.Method + " not allowed on " + r.URL.Path,
		ErrorCode: string(apperr.BadRequest),
	})
}
