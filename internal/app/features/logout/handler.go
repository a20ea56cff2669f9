// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	apierrors "github.com/ag863k/Flowmatic-pm/internal/app/features/errors"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auditlog"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// ServeLogout handles POST /api/auth/logout. It succeeds with or without a
// signed-in user.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if u, ok := auth.CurrentUser(r); ok {
		userID = u.ID
	}
	h.SessionMgr.SignOut(w)
	h.AuditLog.Logout(r.Context(), r, userID)

	apierrors.JSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
