// internal/app/features/tasks/handler.go
package tasks

import (
	membershipstore "github.com/ag863k/Flowmatic-pm/internal/app/store/memberships"
	projectstore "github.com/ag863k/Flowmatic-pm/internal/app/store/projects"
	taskstore "github.com/ag863k/Flowmatic-pm/internal/app/store/tasks"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/membership"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves task CRUD and the filtered workspace task listing.
type Handler struct {
	Log        *zap.Logger
	Membership *membership.Service
	Members    *membershipstore.Store
	Projects   *projectstore.Store
	Tasks      *taskstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		Membership: membership.New(db, logger),
		Members:    membershipstore.New(db),
		Projects:   projectstore.New(db),
		Tasks:      taskstore.New(db),
	}
}
