// internal/app/features/shared/views/views.go
package views

import (
	"context"
	"errors"
	"fmt"
	"time"

	userstore "github.com/ag863k/Flowmatic-pm/internal/app/store/users"
	workspacestore "github.com/ag863k/Flowmatic-pm/internal/app/store/workspaces"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// User is the client-facing user with its current workspace expanded.
// The password hash is never included.
type User struct {
	ID               primitive.ObjectID `json:"_id"`
	Name             string             `json:"name"`
	Email            string             `json:"email"`
	ProfilePicture   *string            `json:"profilePicture"`
	IsActive         bool               `json:"isActive"`
	LastLogin        *time.Time         `json:"lastLogin"`
	CurrentWorkspace *models.Workspace  `json:"currentWorkspace"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// Loader builds User views.
type Loader struct {
	users      *userstore.Store
	workspaces *workspacestore.Store
}

func NewLoader(db *mongo.Database) *Loader {
	return &Loader{
		users:      userstore.New(db),
		workspaces: workspacestore.New(db),
	}
}

// Load fetches the user and expands current_workspace. A dangling workspace
// reference renders as null.
func (l *Loader) Load(ctx context.Context, userID primitive.ObjectID) (*User, error) {
	u, err := l.users.GetByID(ctx, userID)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, apperr.NotFoundf("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	v := &User{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		IsActive:       u.IsActive,
		LastLogin:      u.LastLogin,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if u.CurrentWorkspace != nil {
		ws, err := l.workspaces.GetByID(ctx, *u.CurrentWorkspace)
		switch {
		case err == nil:
			v.CurrentWorkspace = &ws
		case !errors.Is(err, workspacestore.ErrNotFound):
			return nil, fmt.Errorf("load current workspace: %w", err)
		}
	}
	return v, nil
}
