package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementService handles class-scoped announcement workflows. Announcements always
// target the author's class and are never global.
type AnnouncementService struct {
	guard     *Guard
	repo      announcementRepository
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(guard *Guard, repo announcementRepository, courses courseReader, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{guard: guard, repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns announcements with pagination. Students see their class, teachers see
// their own, classless students see nothing.
func (s *AnnouncementService) List(ctx context.Context, actorID string, page, pageSize int) ([]models.Announcement, *models.Pagination, error) {
	user, err := s.guard.Authenticate(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	filter := models.AnnouncementFilter{Page: page, PageSize: pageSize}
	switch {
	case user.IsTeacher():
		filter.AuthorID = user.ID
	case user.IsStudent() && user.HasClass():
		filter.TargetClass = user.UserClass
	default:
		return []models.Announcement{}, &models.Pagination{Page: page, PageSize: pageSize}, nil
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	if rows == nil {
		rows = []models.Announcement{}
	}
	return rows, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Create registers a new announcement for the author's class. Any requested target
// class or global flag is ignored.
func (s *AnnouncementService) Create(ctx context.Context, actorID string, req dto.AnnouncementRequest) (*models.Announcement, error) {
	author, err := s.guard.RequireTeacherWithClass(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.ensureCourse(ctx, author, req.CourseID); err != nil {
		return nil, err
	}
	if req.TargetClass != "" || req.IsGlobal {
		s.logger.Debug("announcement audience overridden",
			zap.String("author_id", author.ID),
			zap.String("requested_class", req.TargetClass),
			zap.Bool("requested_global", req.IsGlobal),
		)
	}
	announcement := &models.Announcement{
		AuthorID:    author.ID,
		Title:       req.Title,
		Content:     req.Content,
		TargetClass: author.UserClass,
		CourseID:    req.CourseID,
		Priority:    priorityOrDefault(req.Priority),
		IsGlobal:    false,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	return announcement, nil
}

// Update modifies an announcement owned by the actor. Audience fields are immutable.
func (s *AnnouncementService) Update(ctx context.Context, actorID, id string, req dto.AnnouncementRequest) (*models.Announcement, error) {
	author, existing, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.ensureCourse(ctx, author, req.CourseID); err != nil {
		return nil, err
	}
	existing.Title = req.Title
	existing.Content = req.Content
	existing.CourseID = req.CourseID
	existing.Priority = priorityOrDefault(req.Priority)
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	return existing, nil
}

// Delete removes an announcement owned by the actor.
func (s *AnnouncementService) Delete(ctx context.Context, actorID, id string) error {
	_, existing, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	return nil
}

func (s *AnnouncementService) loadOwned(ctx context.Context, actorID, id string) (*models.User, *models.Announcement, error) {
	author, err := s.guard.Require(ctx, actorID, models.RoleTeacher)
	if err != nil {
		return nil, nil, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	if err := RequireOwner(author, existing.AuthorID); err != nil {
		return nil, nil, err
	}
	return author, existing, nil
}

func (s *AnnouncementService) ensureCourse(ctx context.Context, author *models.User, courseID *string) error {
	if courseID == nil || *courseID == "" {
		return nil
	}
	course, err := s.courses.FindByID(ctx, *courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return RequireOwner(author, course.TeacherID)
}

func priorityOrDefault(p models.AnnouncementPriority) models.AnnouncementPriority {
	if p == "" {
		return models.AnnouncementPriorityMedium
	}
	return p
}
