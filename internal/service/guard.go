package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

type guardUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Guard resolves the acting user and enforces role, ownership and class checks.
type Guard struct {
	users guardUserRepository
}

// NewGuard constructs a Guard.
func NewGuard(users guardUserRepository) *Guard {
	return &Guard{users: users}
}

// Authenticate loads the acting user. Anonymous or unknown actors are unauthorized.
func (g *Guard) Authenticate(ctx context.Context, actorID string) (*models.User, error) {
	if actorID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	user, err := g.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Require loads the actor and checks that it holds role.
func (g *Guard) Require(ctx context.Context, actorID string, role models.UserRole) (*models.User, error) {
	user, err := g.Authenticate(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if user.Role != role {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "only "+string(role)+"s can perform this action")
	}
	return user, nil
}

// RequireTeacherWithClass loads a teacher that has a registered class.
func (g *Guard) RequireTeacherWithClass(ctx context.Context, actorID string) (*models.User, error) {
	user, err := g.Require(ctx, actorID, models.RoleTeacher)
	if err != nil {
		return nil, err
	}
	if !user.HasClass() {
		return nil, appErrors.Clone(appErrors.ErrClassRequired, "complete your profile with a class first")
	}
	return user, nil
}

// RequireOwner fails with Forbidden when ownerID is not the user's.
func RequireOwner(user *models.User, ownerID string) error {
	if user == nil || user.ID != ownerID {
		return appErrors.Clone(appErrors.ErrForbidden, "you do not own this resource")
	}
	return nil
}

func notFoundOr(err error, message, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
