package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

type profileRepository interface {
	SetupRole(ctx context.Context, id string, role models.UserRole, name, rank string) error
	UpdateExtendedProfile(ctx context.Context, id, registrationID string, dob *time.Time, gender string, class models.ClassLabel) error
}

// ProfileService drives account onboarding.
type ProfileService struct {
	guard     *Guard
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(guard *Guard, repo profileRepository, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{guard: guard, repo: repo, validator: validate, logger: logger}
}

// Me returns the acting user.
func (s *ProfileService) Me(ctx context.Context, actorID string) (*models.User, error) {
	return s.guard.Authenticate(ctx, actorID)
}

// SetupRole assigns the account role once. Repeating the same role is a no-op.
func (s *ProfileService) SetupRole(ctx context.Context, actorID string, req dto.SetupRoleRequest) (*models.User, error) {
	user, err := s.guard.Authenticate(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid role payload")
	}
	if user.Role != "" {
		if user.Role == req.Role {
			return user, nil
		}
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "role already set")
	}

	rank := ComputeRank(0)
	if err := s.repo.SetupRole(ctx, user.ID, req.Role, req.Name, rank); err != nil {
		return nil, internalError(err, "failed to set up role")
	}
	user.Role = req.Role
	user.Name = req.Name
	user.Rank = rank
	user.Credits = 0
	user.TotalTestsCompleted = 0
	user.TotalCoursesCreated = 0
	user.TotalStudentsEnrolled = 0
	s.logger.Info("role assigned", zap.String("user_id", user.ID), zap.String("role", string(req.Role)))
	return user, nil
}

// SetupExtendedProfile stores registration details and the class. A class, once set,
// can only be changed through the teacher-facing student edit.
func (s *ProfileService) SetupExtendedProfile(ctx context.Context, actorID string, req dto.ExtendedProfileRequest) (*models.User, error) {
	user, err := s.guard.Authenticate(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	class, _ := models.ParseClassLabel(req.UserClass)
	if user.HasClass() && user.UserClass != class {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "class is already assigned")
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, validationError(err, "dateOfBirth must use YYYY-MM-DD")
		}
		dob = &parsed
	}

	if err := s.repo.UpdateExtendedProfile(ctx, user.ID, req.RegistrationID, dob, req.Gender, class); err != nil {
		return nil, internalError(err, "failed to update profile")
	}
	user.RegistrationID = req.RegistrationID
	user.DateOfBirth = dob
	user.Gender = req.Gender
	user.UserClass = class
	return user, nil
}
