// internal/app/features/workspaces/types.go
package workspaces

import (
	membershipstore "github.com/ag863k/Flowmatic-pm/internal/app/store/memberships"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
)

// workspaceDetail is a workspace with its member list expanded.
type workspaceDetail struct {
	models.Workspace
	Members []membershipstore.MemberRow `json:"members"`
}

// changeRoleRequest names the target by user id and the new role by either
// its id or its name.
type changeRoleRequest struct {
	MemberID string `json:"memberId"`
	RoleID   string `json:"roleId"`
	Role     string `json:"role"`
}

type updateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
