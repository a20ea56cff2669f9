// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
	"go.uber.org/zap"
)

// body is the JSON shape of every error response.
type body struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write renders err as a JSON error. Classified errors keep their message;
// anything else becomes a 500 and is logged.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
	}
	JSON(w, status, body{
		Message:   apperr.Message(err),
		ErrorCode: string(apperr.KindOf(err)),
	})
}

// BadRequest writes a 400 with msg.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, body{Message: msg, ErrorCode: string(apperr.BadRequest)})
}

// Unauthorized writes a 401 with msg.
func Unauthorized(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusUnauthorized, body{Message: msg, ErrorCode: string(apperr.Unauthorized)})
}
