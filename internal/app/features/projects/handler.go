// internal/app/features/projects/handler.go
package projects

import (
	projectstore "github.com/ag863k/Flowmatic-pm/internal/app/store/projects"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/membership"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves project CRUD and analytics inside a workspace.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	Membership *membership.Service
	Projects   *projectstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		Membership: membership.New(db, logger),
		Projects:   projectstore.New(db),
	}
}

const (
	msgNotInWorkspace     = "Project not found or does not belong to the specified workspace"
	msgNotInThisWorkspace = "Project not found or does not belong to this workspace"
)

type projectRequest struct {
	Emoji       string `json:"emoji"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
