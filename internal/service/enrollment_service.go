package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/classquest-api/internal/models"
	"github.com/noah-isme/classquest-api/internal/repository"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

type enrollmentRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

type enrollmentCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	AppendEnrolledStudent(ctx context.Context, courseID, studentID string) error
}

// EnrollmentService enrolls students into published courses of their class.
type EnrollmentService struct {
	guard    *Guard
	tx       txRunner
	repo     enrollmentRepository
	courses  enrollmentCourseRepository
	teachers teacherCounterRepository
	logger   *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(guard *Guard, tx txRunner, repo enrollmentRepository, courses enrollmentCourseRepository, teachers teacherCounterRepository, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		guard:    guard,
		tx:       tx,
		repo:     repo,
		courses:  courses,
		teachers: teachers,
		logger:   logger,
	}
}

// Enroll registers the acting student in a course. The enrollment row, the course's
// student list and the owner's counter change together.
func (s *EnrollmentService) Enroll(ctx context.Context, actorID, courseID string) (*models.Enrollment, error) {
	student, err := s.guard.Require(ctx, actorID, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.IsPublished {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is not published")
	}
	if !student.HasClass() || course.TargetClass != student.UserClass {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is not available for your class")
	}

	enrollment := &models.Enrollment{CourseID: course.ID, StudentID: student.ID}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, enrollment); err != nil {
			return err
		}
		if err := s.courses.AppendEnrolledStudent(ctx, course.ID, student.ID); err != nil {
			return err
		}
		return s.teachers.AdjustTeacherCounters(ctx, course.TeacherID, 0, 1)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "already enrolled in this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}
	s.logger.Info("student enrolled", zap.String("student_id", student.ID), zap.String("course_id", course.ID))
	return enrollment, nil
}

// ListMine returns the acting student's enrollments with course titles and progress.
func (s *EnrollmentService) ListMine(ctx context.Context, actorID string) ([]models.EnrollmentDetail, error) {
	student, err := s.guard.Require(ctx, actorID, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if rows == nil {
		rows = []models.EnrollmentDetail{}
	}
	return rows, nil
}
