// internal/app/features/workspaces/handler.go
package workspaces

import (
	membershipstore "github.com/ag863k/Flowmatic-pm/internal/app/store/memberships"
	rolestore "github.com/ag863k/Flowmatic-pm/internal/app/store/roles"
	userstore "github.com/ag863k/Flowmatic-pm/internal/app/store/users"
	workspacestore "github.com/ag863k/Flowmatic-pm/internal/app/store/workspaces"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auditlog"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/membership"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves workspace reads, member administration and workspace
// switching for the signed-in user.
type Handler struct {
	Log        *zap.Logger
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
	Membership *membership.Service
	Workspaces *workspacestore.Store
	Members    *membershipstore.Store
	Roles      *rolestore.Store
	Users      *userstore.Store
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		AuditLog:   audit,
		Metrics:    m,
		Membership: membership.New(db, logger),
		Workspaces: workspacestore.New(db),
		Members:    membershipstore.New(db),
		Roles:      rolestore.New(db),
		Users:      userstore.New(db),
	}
}
