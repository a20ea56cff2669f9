// internal/app/features/shared/params/params.go
package params

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/limits"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectID parses the chi URL parameter name as an ObjectID.
func ObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequestf("Invalid %s", name)
	}
	return id, nil
}

// DecodeJSON reads the request body into v. An empty body leaves v untouched.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.BadRequestf("Invalid JSON body")
	}
	return nil
}
