// Package onboarding creates users together with their first workspace and
// resolves sign-ins to users.
//
// Every new user ends up with exactly one owned workspace, one OWNER
// membership and current_workspace pointing at it. The writes that produce
// that state commit together or not at all.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ag863k/Flowmatic-pm/internal/app/store/accounts"
	"github.com/ag863k/Flowmatic-pm/internal/app/store/memberships"
	"github.com/ag863k/Flowmatic-pm/internal/app/store/roles"
	"github.com/ag863k/Flowmatic-pm/internal/app/store/users"
	"github.com/ag863k/Flowmatic-pm/internal/app/store/workspaces"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authutil"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/normalize"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/txn"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultWorkspaceName is the name given to every bootstrapped workspace.
const DefaultWorkspaceName = "My Workspace"

// bootstrapAttempts bounds reruns of the bootstrap transaction after a
// generated invite code collides.
const bootstrapAttempts = 3

// Identity is a verified external login, already translated from the
// provider's profile.
type Identity struct {
	Provider    string
	ProviderID  string
	DisplayName string
	Email       string
	Picture     string // optional
}

// Service runs the bootstrap flows.
type Service struct {
	db         *mongo.Database
	log        *zap.Logger
	users      *userstore.Store
	accounts   *accountstore.Store
	workspaces *workspacestore.Store
	roles      *rolestore.Store
	members    *membershipstore.Store
}

func New(db *mongo.Database, logger *zap.Logger) *Service {
	return &Service{
		db:         db,
		log:        logger,
		users:      userstore.New(db),
		accounts:   accountstore.New(db),
		workspaces: workspacestore.New(db),
		roles:      rolestore.New(db),
		members:    membershipstore.New(db),
	}
}

// RegisterWithPassword creates a password user and bootstraps their workspace.
func (s *Service) RegisterWithPassword(ctx context.Context, name, email, password string) (userID, workspaceID primitive.ObjectID, err error) {
	email = normalize.Email(email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return primitive.NilObjectID, primitive.NilObjectID, apperr.Conflictf("User with this email already exists")
	} else if !errors.Is(err, userstore.ErrNotFound) {
		return primitive.NilObjectID, primitive.NilObjectID, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, fmt.Errorf("hash password: %w", err)
	}

	err = s.runBootstrap(ctx, func(ctx context.Context) error {
		u, err := s.createUserWithWorkspace(ctx, models.User{
			Name:         name,
			Email:        email,
			PasswordHash: &hash,
		}, models.ProviderEmail, email)
		if err != nil {
			return err
		}
		userID, workspaceID = u.ID, *u.CurrentWorkspace
		return nil
	})
	if txn.IsWriteConflict(err) {
		// Lost a race with a concurrent registration for the same email.
		return primitive.NilObjectID, primitive.NilObjectID, apperr.Conflictf("User with this email already exists")
	}
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	return userID, workspaceID, nil
}

// LoginOrCreateFromIdentity returns the user for id.Email, creating the user
// and their workspace on first sign-in. For an existing user the provider
// account is linked if missing and a lost current workspace is restored from
// any membership.
func (s *Service) LoginOrCreateFromIdentity(ctx context.Context, id Identity) (*models.User, error) {
	provider := normalize.Provider(id.Provider)
	email := normalize.Email(id.Email)
	if provider == "" || id.ProviderID == "" || email == "" {
		return nil, apperr.BadRequestf("provider, provider id and email are required")
	}

	var out *models.User
	err := s.runBootstrap(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByEmail(ctx, email)
		switch {
		case errors.Is(err, userstore.ErrNotFound):
			nu := models.User{Name: id.DisplayName, Email: email}
			if id.Picture != "" {
				pic := id.Picture
				nu.ProfilePicture = &pic
			}
			created, err := s.createUserWithWorkspace(ctx, nu, provider, id.ProviderID)
			if err != nil {
				return err
			}
			out = &created
			return nil
		case err != nil:
			return fmt.Errorf("lookup user: %w", err)
		}

		linked, err := s.accounts.ExistsForUser(ctx, u.ID, provider)
		if err != nil {
			return fmt.Errorf("lookup account: %w", err)
		}
		if !linked {
			if _, err := s.accounts.Create(ctx, u.ID, provider, id.ProviderID); err != nil {
				if errors.Is(err, accountstore.ErrDuplicate) {
					return apperr.Conflictf("This %s account is already linked to another user", provider)
				}
				return fmt.Errorf("create account: %w", err)
			}
		}

		if err := s.restoreCurrentWorkspace(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if txn.IsWriteConflict(err) {
		return nil, apperr.Conflictf("Sign-in conflicted with a concurrent request for this account, please retry")
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyCredentials checks an email/password pair against the EMAIL account.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	email = normalize.Email(email)

	acct, err := s.accounts.GetByProvider(ctx, models.ProviderEmail, email)
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil, apperr.NotFoundf("Invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	u, err := s.users.GetByID(ctx, acct.UserID)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, apperr.NotFoundf("User not found for the given account")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !u.HasPassword() || !authutil.CheckPassword(*u.PasswordHash, password) {
		return nil, apperr.Unauthorizedf("Invalid email or password")
	}
	if !u.IsActive {
		return nil, apperr.Unauthorizedf("This account has been disabled")
	}

	if err := s.restoreCurrentWorkspace(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// createUserWithWorkspace inserts the user, their login account, a workspace
// they own and the OWNER membership, then points current_workspace at it.
// Must run inside a transaction.
func (s *Service) createUserWithWorkspace(ctx context.Context, u models.User, provider, providerID string) (models.User, error) {
	u.Name = displayName(u.Name, u.Email)
	u, err := s.users.Create(ctx, u)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return models.User{}, apperr.Conflictf("User with this email already exists")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	if _, err := s.accounts.Create(ctx, u.ID, provider, providerID); err != nil {
		if errors.Is(err, accountstore.ErrDuplicate) {
			return models.User{}, apperr.Conflictf("This %s account is already linked to another user", provider)
		}
		return models.User{}, fmt.Errorf("create account: %w", err)
	}

	ws, err := s.workspaces.Create(ctx, models.Workspace{
		Name:        DefaultWorkspaceName,
		Description: "Workspace created for " + u.Name,
		Owner:       u.ID,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("create workspace: %w", err)
	}

	owner, err := s.roles.GetByName(ctx, authz.RoleOwner)
	if errors.Is(err, rolestore.ErrNotFound) {
		return models.User{}, apperr.NotFoundf("Owner role not found")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("lookup owner role: %w", err)
	}

	if _, err := s.members.Add(ctx, u.ID, ws.ID, owner.ID); err != nil {
		return models.User{}, fmt.Errorf("add owner membership: %w", err)
	}

	if err := s.users.SetCurrentWorkspace(ctx, u.ID, &ws.ID); err != nil {
		return models.User{}, fmt.Errorf("set current workspace: %w", err)
	}
	u.CurrentWorkspace = &ws.ID
	return u, nil
}

// runBootstrap runs fn in a transaction, rerunning it when the generated
// invite code collided. The collision aborts the transaction, so the
// workspace store cannot retry on its own.
func (s *Service) runBootstrap(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < bootstrapAttempts; attempt++ {
		err = txn.Run(ctx, s.db, s.log, fn)
		if !errors.Is(err, workspacestore.ErrDuplicateInviteCode) {
			return err
		}
		s.log.Debug("invite code collided, rerunning bootstrap", zap.Int("attempt", attempt+1))
	}
	return err
}

// displayName returns the normalized name, falling back to the local part of
// email when nothing printable is left.
func displayName(name, email string) string {
	if n := normalize.Name(name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(normalize.Email(email), "@")
	if local == "" {
		return "User"
	}
	return local
}

// restoreCurrentWorkspace adopts the user's earliest membership when
// current_workspace is unset. Users with no memberships are left as they are.
func (s *Service) restoreCurrentWorkspace(ctx context.Context, u *models.User) error {
	if u.CurrentWorkspace != nil {
		return nil
	}
	m, err := s.members.FirstForUser(ctx, u.ID, primitive.NilObjectID)
	if errors.Is(err, membershipstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup membership: %w", err)
	}
	if err := s.users.SetCurrentWorkspace(ctx, u.ID, &m.WorkspaceID); err != nil {
		return fmt.Errorf("set current workspace: %w", err)
	}
	wsID := m.WorkspaceID
	u.CurrentWorkspace = &wsID
	return nil
}
