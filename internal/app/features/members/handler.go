// internal/app/features/members/handler.go
package members

import (
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auditlog"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/membership"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves invite-code joins and member removal.
type Handler struct {
	Log        *zap.Logger
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
	Membership *membership.Service
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		AuditLog:   audit,
		Metrics:    m,
		Membership: membership.New(db, logger),
	}
}
