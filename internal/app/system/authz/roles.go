// internal/app/system/authz/roles.go
package authz

// Role names.
const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Permission names.
const (
	CreateWorkspace         = "CREATE_WORKSPACE"
	DeleteWorkspace         = "DELETE_WORKSPACE"
	EditWorkspace           = "EDIT_WORKSPACE"
	ManageWorkspaceSettings = "MANAGE_WORKSPACE_SETTINGS"
	AddMember               = "ADD_MEMBER"
	ChangeMemberRole        = "CHANGE_MEMBER_ROLE"
	RemoveMember            = "REMOVE_MEMBER"
	CreateProject           = "CREATE_PROJECT"
	EditProject             = "EDIT_PROJECT"
	DeleteProject           = "DELETE_PROJECT"
	CreateTask              = "CREATE_TASK"
	EditTask                = "EDIT_TASK"
	DeleteTask              = "DELETE_TASK"
	ViewOnly                = "VIEW_ONLY"
)

// AllPermissions lists every permission in catalog order.
var AllPermissions = []string{
	CreateWorkspace,
	DeleteWorkspace,
	EditWorkspace,
	ManageWorkspaceSettings,
	AddMember,
	ChangeMemberRole,
	RemoveMember,
	CreateProject,
	EditProject,
	DeleteProject,
	CreateTask,
	EditTask,
	DeleteTask,
	ViewOnly,
}

// catalog is the authoritative role → permission mapping. The roles
// collection is seeded from it; access checks read only from here.
var catalog = map[string][]string{
	RoleOwner: AllPermissions,
	RoleAdmin: {
		AddMember,
		CreateProject,
		EditProject,
		DeleteProject,
		CreateTask,
		EditTask,
		DeleteTask,
		ManageWorkspaceSettings,
		ViewOnly,
	},
	RoleMember: {
		ViewOnly,
		CreateTask,
		EditTask,
	},
}

// RoleNames returns the catalog's roles, most privileged first.
func RoleNames() []string {
	return []string{RoleOwner, RoleAdmin, RoleMember}
}

// PermissionsFor returns a copy of role's permissions, or nil for an unknown
// role.
func PermissionsFor(role string) []string {
	perms, ok := catalog[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// IsKnownRole reports whether role is in the catalog.
func IsKnownRole(role string) bool {
	_, ok := catalog[role]
	return ok
}

// HasPermission is the boolean form of RequirePermission.
func HasPermission(role, permission string) bool {
	for _, p := range catalog[role] {
		if p == permission {
			return true
		}
	}
	return false
}
