// Package membership manages who belongs to a workspace and with which role.
package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/ag863k/Flowmatic-pm/internal/app/store/memberships"
	"github.com/ag863k/Flowmatic-pm/internal/app/store/roles"
	"github.com/ag863k/Flowmatic-pm/internal/app/store/users"
	"github.com/ag863k/Flowmatic-pm/internal/app/store/workspaces"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/normalize"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/txn"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RemovedMessage is returned by RemoveMember on success.
const RemovedMessage = "Member removed successfully"

// Service implements authz.RoleResolver.
type Service struct {
	db         *mongo.Database
	log        *zap.Logger
	users      *userstore.Store
	workspaces *workspacestore.Store
	roles      *rolestore.Store
	members    *membershipstore.Store
}

var _ authz.RoleResolver = (*Service)(nil)

func New(db *mongo.Database, logger *zap.Logger) *Service {
	return &Service{
		db:         db,
		log:        logger,
		users:      userstore.New(db),
		workspaces: workspacestore.New(db),
		roles:      rolestore.New(db),
		members:    membershipstore.New(db),
	}
}

// JoinByInviteCode adds userID to the workspace owning code with the MEMBER
// role. Joining a workspace twice is rejected.
func (s *Service) JoinByInviteCode(ctx context.Context, userID primitive.ObjectID, code string) (workspaceID primitive.ObjectID, role string, err error) {
	code = normalize.InviteCode(code)
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		ws, err := s.workspaces.GetByInviteCode(ctx, code)
		if errors.Is(err, workspacestore.ErrNotFound) {
			return apperr.NotFoundf("Invalid invite code or workspace not found")
		}
		if err != nil {
			return fmt.Errorf("lookup workspace: %w", err)
		}

		exists, err := s.members.Exists(ctx, userID, ws.ID)
		if err != nil {
			return fmt.Errorf("lookup membership: %w", err)
		}
		if exists {
			return apperr.BadRequestf("You are already a member of this workspace")
		}

		r, err := s.roles.GetByName(ctx, authz.RoleMember)
		if errors.Is(err, rolestore.ErrNotFound) {
			return apperr.NotFoundf("Role not found")
		}
		if err != nil {
			return fmt.Errorf("lookup member role: %w", err)
		}

		if _, err := s.members.Add(ctx, userID, ws.ID, r.ID); err != nil {
			if errors.Is(err, membershipstore.ErrDuplicateMembership) {
				return apperr.BadRequestf("You are already a member of this workspace")
			}
			return fmt.Errorf("add membership: %w", err)
		}
		workspaceID, role = ws.ID, r.Name
		return nil
	})
	if txn.IsWriteConflict(err) {
		// A concurrent join for the same user and workspace committed first.
		return primitive.NilObjectID, "", apperr.BadRequestf("You are already a member of this workspace")
	}
	if err != nil {
		return primitive.NilObjectID, "", err
	}
	return workspaceID, role, nil
}

// GetMemberRole returns the name of userID's role in workspaceID. A
// membership whose role reference no longer resolves is reported as
// NotFound rather than assumed to be MEMBER.
func (s *Service) GetMemberRole(ctx context.Context, userID, workspaceID primitive.ObjectID) (string, error) {
	if err := s.requireWorkspace(ctx, workspaceID); err != nil {
		return "", err
	}

	m, err := s.members.Get(ctx, userID, workspaceID)
	if errors.Is(err, membershipstore.ErrNotFound) {
		return "", apperr.Unauthorizedf("You are not a member of this workspace")
	}
	if err != nil {
		return "", fmt.Errorf("lookup membership: %w", err)
	}
	return s.roleName(ctx, m)
}

// RemoveMember deletes memberUserID's membership of workspaceID. The owner
// cannot be removed. When the removed user was working in workspaceID their
// current workspace moves to another membership, or is cleared.
func (s *Service) RemoveMember(ctx context.Context, workspaceID, memberUserID primitive.ObjectID) (string, error) {
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if err := s.requireWorkspace(ctx, workspaceID); err != nil {
			return err
		}

		m, err := s.members.Get(ctx, memberUserID, workspaceID)
		if errors.Is(err, membershipstore.ErrNotFound) {
			return apperr.NotFoundf("Member not found in this workspace")
		}
		if err != nil {
			return fmt.Errorf("lookup membership: %w", err)
		}

		role, err := s.roleName(ctx, m)
		if err != nil {
			return err
		}
		if role == authz.RoleOwner {
			return apperr.BadRequestf("Cannot remove the workspace owner")
		}

		if err := s.members.Remove(ctx, memberUserID, workspaceID); err != nil {
			if errors.Is(err, membershipstore.ErrNotFound) {
				return apperr.NotFoundf("Member not found in this workspace")
			}
			return fmt.Errorf("remove membership: %w", err)
		}

		return s.reassignCurrentWorkspace(ctx, memberUserID, workspaceID)
	})
	if err != nil {
		return "", err
	}
	return RemovedMessage, nil
}

// ListMembers returns the workspace's members with their user and role.
func (s *Service) ListMembers(ctx context.Context, workspaceID primitive.ObjectID) ([]membershipstore.MemberRow, error) {
	if err := s.requireWorkspace(ctx, workspaceID); err != nil {
		return nil, err
	}
	rows, err := s.members.ListWithUsers(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return rows, nil
}

// Roles returns the seeded catalog.
func (s *Service) Roles(ctx context.Context) ([]models.Role, error) {
	return s.roles.List(ctx)
}

// ChangeMemberRole gives memberUserID the role roleName in workspaceID.
// Ownership cannot be granted or taken away here.
func (s *Service) ChangeMemberRole(ctx context.Context, workspaceID, memberUserID primitive.ObjectID, roleName string) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if err := s.requireWorkspace(ctx, workspaceID); err != nil {
			return err
		}
		if roleName == authz.RoleOwner {
			return apperr.BadRequestf("Cannot assign the OWNER role")
		}

		target, err := s.roles.GetByName(ctx, roleName)
		if errors.Is(err, rolestore.ErrNotFound) {
			return apperr.NotFoundf("Role not found")
		}
		if err != nil {
			return fmt.Errorf("lookup role: %w", err)
		}

		m, err := s.members.Get(ctx, memberUserID, workspaceID)
		if errors.Is(err, membershipstore.ErrNotFound) {
			return apperr.NotFoundf("Member not found in this workspace")
		}
		if err != nil {
			return fmt.Errorf("lookup membership: %w", err)
		}

		current, err := s.roleName(ctx, m)
		if err != nil {
			return err
		}
		if current == authz.RoleOwner {
			return apperr.BadRequestf("Cannot change the workspace owner's role")
		}

		if err := s.members.SetRole(ctx, memberUserID, workspaceID, target.ID); err != nil {
			return fmt.Errorf("set role: %w", err)
		}
		return nil
	})
}

func (s *Service) requireWorkspace(ctx context.Context, workspaceID primitive.ObjectID) error {
	ok, err := s.workspaces.Exists(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("lookup workspace: %w", err)
	}
	if !ok {
		return apperr.NotFoundf("Workspace not found")
	}
	return nil
}

// roleName dereferences the membership's role.
func (s *Service) roleName(ctx context.Context, m models.Member) (string, error) {
	r, err := s.roles.GetByID(ctx, m.Role)
	if errors.Is(err, rolestore.ErrNotFound) {
		return "", apperr.NotFoundf("Role not found for this membership")
	}
	if err != nil {
		return "", fmt.Errorf("lookup role: %w", err)
	}
	return r.Name, nil
}

func (s *Service) reassignCurrentWorkspace(ctx context.Context, userID, removedWorkspaceID primitive.ObjectID) error {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if u.CurrentWorkspace == nil || *u.CurrentWorkspace != removedWorkspaceID {
		return nil
	}

	var next *primitive.ObjectID
	other, err := s.members.FirstForUser(ctx, userID, removedWorkspaceID)
	switch {
	case err == nil:
		next = &other.WorkspaceID
	case !errors.Is(err, membershipstore.ErrNotFound):
		return fmt.Errorf("lookup other membership: %w", err)
	}
	if err := s.users.SetCurrentWorkspace(ctx, userID, next); err != nil {
		return fmt.Errorf("set current workspace: %w", err)
	}
	return nil
}
