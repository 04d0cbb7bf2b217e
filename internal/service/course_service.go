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

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type teacherCounterRepository interface {
	AdjustTeacherCounters(ctx context.Context, id string, coursesDelta, studentsDelta int) error
}

type courseChapterCleaner interface {
	DeleteByCourse(ctx context.Context, courseID string) error
}

type courseCompletionCleaner interface {
	DeleteByCourse(ctx context.Context, courseID string) error
}

type courseEnrollmentCleaner interface {
	DeleteByCourse(ctx context.Context, courseID string) (int, error)
}

// CourseServiceParams groups constructor dependencies.
type CourseServiceParams struct {
	Guard       *Guard
	Tx          txRunner
	Courses     courseRepository
	Teachers    teacherCounterRepository
	Chapters    courseChapterCleaner
	Completions courseCompletionCleaner
	Enrollments courseEnrollmentCleaner
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// CourseService manages teacher-owned courses and their class-scoped visibility.
type CourseService struct {
	guard       *Guard
	tx          txRunner
	courses     courseRepository
	teachers    teacherCounterRepository
	chapters    courseChapterCleaner
	completions courseCompletionCleaner
	enrollments courseEnrollmentCleaner
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(params CourseServiceParams) *CourseService {
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		guard:       params.Guard,
		tx:          params.Tx,
		courses:     params.Courses,
		teachers:    params.Teachers,
		chapters:    params.Chapters,
		completions: params.Completions,
		enrollments: params.Enrollments,
		validator:   validate,
		logger:      logger,
	}
}

// List returns the teacher's own courses, or the published courses of a student's class.
func (s *CourseService) List(ctx context.Context, actorID string) ([]models.Course, error) {
	user, err := s.guard.Authenticate(ctx, actorID)
	if err != nil {
		return nil, err
	}
	var filter models.CourseFilter
	switch {
	case user.IsTeacher():
		filter.TeacherID = user.ID
	case user.IsStudent() && user.HasClass():
		filter.TargetClass = user.UserClass
		filter.PublishedOnly = true
	default:
		return []models.Course{}, nil
	}
	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

// Get returns a course to its owner or to a student who can see it.
func (s *CourseService) Get(ctx context.Context, actorID, id string) (*models.Course, error) {
	user, err := s.guard.Authenticate(ctx, actorID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if user.IsTeacher() {
		if err := RequireOwner(user, course.TeacherID); err != nil {
			return nil, err
		}
		return course, nil
	}
	if !course.VisibleTo(user.UserClass) {
		return nil, appErrors.Clone(appErrors.ErrNotFoundOrUnpublished, "course not found or not published")
	}
	return course, nil
}

// Create adds a course owned by the acting teacher.
func (s *CourseService) Create(ctx context.Context, actorID string, req dto.CourseRequest) (*models.Course, error) {
	teacher, err := s.guard.Require(ctx, actorID, models.RoleTeacher)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	class, _ := models.ParseClassLabel(req.TargetClass)

	course := &models.Course{
		TeacherID:   teacher.ID,
		Title:       req.Title,
		Description: req.Description,
		TargetClass: class,
		IsPublished: req.IsPublished,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.courses.Create(ctx, course); err != nil {
			return err
		}
		return s.teachers.AdjustTeacherCounters(ctx, teacher.ID, 1, 0)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("teacher_id", teacher.ID))
	return course, nil
}

// Update modifies a course owned by the acting teacher.
func (s *CourseService) Update(ctx context.Context, actorID, id string, req dto.CourseRequest) (*models.Course, error) {
	teacher, course, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	class, _ := models.ParseClassLabel(req.TargetClass)

	course.Title = req.Title
	course.Description = req.Description
	course.TargetClass = class
	course.IsPublished = req.IsPublished
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.logger.Debug("course updated", zap.String("course_id", course.ID), zap.String("teacher_id", teacher.ID))
	return course, nil
}

// Delete removes a course with its chapters, completions and enrollments and adjusts
// the owner's counters in the same transaction.
func (s *CourseService) Delete(ctx context.Context, actorID, id string) error {
	teacher, course, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.completions.DeleteByCourse(ctx, course.ID); err != nil {
			return err
		}
		removed, err := s.enrollments.DeleteByCourse(ctx, course.ID)
		if err != nil {
			return err
		}
		if err := s.chapters.DeleteByCourse(ctx, course.ID); err != nil {
			return err
		}
		if err := s.courses.Delete(ctx, course.ID); err != nil {
			return err
		}
		return s.teachers.AdjustTeacherCounters(ctx, teacher.ID, -1, -removed)
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.logger.Info("course deleted", zap.String("course_id", course.ID), zap.String("teacher_id", teacher.ID))
	return nil
}

func (s *CourseService) loadOwned(ctx context.Context, actorID, id string) (*models.User, *models.Course, error) {
	teacher, err := s.guard.Require(ctx, actorID, models.RoleTeacher)
	if err != nil {
		return nil, nil, err
	}
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := RequireOwner(teacher, course.TeacherID); err != nil {
		return nil, nil, err
	}
	return teacher, course, nil
}
