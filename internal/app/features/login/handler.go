// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apierrors "github.com/ag863k/Flowmatic-pm/internal/app/features/errors"
	"github.com/ag863k/Flowmatic-pm/internal/app/features/shared/params"
	"github.com/ag863k/Flowmatic-pm/internal/app/features/shared/views"
	userstore "github.com/ag863k/Flowmatic-pm/internal/app/store/users"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auditlog"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auth"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authutil"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/limits"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/metrics"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/normalize"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/onboarding"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves password registration and sign-in.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Onboarding *onboarding.Service
	Users      *userstore.Store
	Views      *views.Loader
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, audit *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Onboarding: onboarding.New(db, logger),
		Users:      userstore.New(db),
		Views:      views.NewLoader(db),
		AuditLog:   audit,
		Metrics:    m,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const (
	invalidCredentials = "Invalid email or password"
	accountDisabled    = "This account has been disabled"
)

func (req registerRequest) validate() error {
	// Validate what will be stored: markup-only names normalize to "".
	name := normalize.Name(req.Name)
	if name == "" || len(name) > limits.MaxNameLength {
		return apperr.BadRequestf("Name is required and must be at most 255 characters")
	}
	if !authutil.IsValidEmail(strings.TrimSpace(req.Email)) {
		return apperr.BadRequestf("Invalid email address")
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		return apperr.Wrap(apperr.BadRequest, "Password must be between 4 and 72 characters", err)
	}
	return nil
}

// HandleRegister handles POST /api/auth/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if err := req.validate(); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	userID, wsID, err := h.Onboarding.RegisterWithPassword(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		h.Metrics.Auth(models.ProviderEmail, "register_failed")
		apierrors.Write(w, r, h.Log, err)
		return
	}
	h.Metrics.Auth(models.ProviderEmail, "registered")
	h.AuditLog.Registered(ctx, r, userID, wsID)

	user, ok := h.signIn(ctx, w, r, userID)
	if !ok {
		return
	}
	apierrors.JSON(w, http.StatusCreated, map[string]any{
		"message":     "User created and logged in successfully",
		"user":        user,
		"workspaceId": wsID,
	})
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := params.DecodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		apierrors.BadRequest(w, "Email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Onboarding.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		// Unknown email, dangling account and wrong password look the same
		// to the client. Only a disabled account, which needs the right
		// password to reach, gets its own message.
		msg := invalidCredentials
		switch apperr.KindOf(err) {
		case apperr.NotFound:
			h.AuditLog.LoginFailedUserNotFound(ctx, r, req.Email)
			h.Log.Debug("login failed", zap.String("reason", apperr.Message(err)))
		case apperr.Unauthorized:
			h.AuditLog.LoginFailedWrongPassword(ctx, r, req.Email)
			if apperr.Message(err) == accountDisabled {
				msg = accountDisabled
			}
		default:
			apierrors.Write(w, r, h.Log, err)
			return
		}
		h.Metrics.Auth(models.ProviderEmail, "failed")
		apierrors.Unauthorized(w, msg)
		return
	}

	h.Metrics.Auth(models.ProviderEmail, "success")
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.CurrentWorkspace, models.ProviderEmail)

	user, ok := h.signIn(ctx, w, r, u.ID)
	if !ok {
		return
	}
	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message": "Logged in successfully",
		"user":    user,
	})
}

// signIn sets the auth cookie, records the login time and loads the user
// view. On failure the error response is already written.
func (h *Handler) signIn(ctx context.Context, w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) (*views.User, bool) {
	if _, err := h.SessionMgr.SignIn(w, userID); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return nil, false
	}
	if err := h.Users.TouchLastLogin(ctx, userID); err != nil && !errors.Is(err, userstore.ErrNotFound) {
		h.Log.Warn("failed to record last login", zap.Error(err), zap.String("user_id", userID.Hex()))
	}
	user, err := h.Views.Load(ctx, userID)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return nil, false
	}
	return user, true
}
