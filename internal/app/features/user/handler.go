// internal/app/features/user/handler.go
package user

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apierrors "github.com/ag863k/Flowmatic-pm/internal/app/features/errors"
	"github.com/ag863k/Flowmatic-pm/internal/app/features/shared/params"
	"github.com/ag863k/Flowmatic-pm/internal/app/features/shared/views"
	userstore "github.com/ag863k/Flowmatic-pm/internal/app/store/users"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auth"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/limits"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's profile.
type Handler struct {
	Log    *zap.Logger
	Tokens *auth.TokenIssuer
	Users  *userstore.Store
	Views  *views.Loader
}

func NewHandler(db *mongo.Database, tokens *auth.TokenIssuer, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		Tokens: tokens,
		Users:  userstore.New(db),
		Views:  views.NewLoader(db),
	}
}

// ServeCurrent handles GET /api/user/current.
//
// The response carries a freshly issued token so clients that keep the token
// outside the cookie can refresh it:
//
//	{ "message":"User fetch successfully", "user":{...}, "token":"..." }
func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "Unauthorized. Please log in.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Views.Load(ctx, uid)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	tok, _, err := h.Tokens.Issue(uid)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message": "User fetch successfully",
		"user":    u,
		"token":   tok,
	})
}

type profileRequest struct {
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
}

// HandleUpdateProfile handles PUT /api/user/update. Empty fields are left
// unchanged; the picture must be an absolute http(s) URL.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "Unauthorized. Please log in.")
		return
	}

	var req profileRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if len(strings.TrimSpace(req.Name)) > limits.MaxNameLength {
		apierrors.BadRequest(w, "Name must be at most 255 characters")
		return
	}
	pic := strings.TrimSpace(req.ProfilePicture)
	if pic != "" {
		u, err := url.Parse(pic)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			apierrors.BadRequest(w, "Invalid profile picture URL")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, uid, req.Name, pic); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	u, err := h.Views.Load(ctx, uid)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    u,
	})
}
