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

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.User, int, error)
	PatchProfile(ctx context.Context, id string, patch models.ProfilePatch) error
	AdjustTeacherCounters(ctx context.Context, id string, coursesDelta, studentsDelta int) error
	Delete(ctx context.Context, id string) error
}

type studentCourseCleaner interface {
	RemoveStudentEverywhere(ctx context.Context, studentID string) ([]string, error)
}

type studentRecordCleaner interface {
	DeleteByStudent(ctx context.Context, studentID string) error
}

// StudentServiceParams groups constructor dependencies.
type StudentServiceParams struct {
	Guard       *Guard
	Tx          txRunner
	Users       studentRepository
	Courses     studentCourseCleaner
	Completions studentRecordCleaner
	Results     studentRecordCleaner
	Enrollments studentRecordCleaner
	Leaderboard leaderboardInvalidator
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// StudentService handles teacher-facing student administration.
type StudentService struct {
	guard       *Guard
	tx          txRunner
	users       studentRepository
	courses     studentCourseCleaner
	completions studentRecordCleaner
	results     studentRecordCleaner
	enrollments studentRecordCleaner
	leaderboard leaderboardInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(params StudentServiceParams) *StudentService {
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		guard:       params.Guard,
		tx:          params.Tx,
		users:       params.Users,
		courses:     params.Courses,
		completions: params.Completions,
		results:     params.Results,
		enrollments: params.Enrollments,
		leaderboard: params.Leaderboard,
		validator:   validate,
		logger:      logger,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, actorID string, filter models.StudentFilter) ([]models.User, *models.Pagination, error) {
	if _, err := s.guard.Require(ctx, actorID, models.RoleTeacher); err != nil {
		return nil, nil, err
	}
	students, total, err := s.users.ListStudents(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	if students == nil {
		students = []models.User{}
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// UpdateProfile changes a student's name, class or registration id.
func (s *StudentService) UpdateProfile(ctx context.Context, actorID, studentID string, req dto.StudentPatchRequest) (*models.User, error) {
	if _, err := s.guard.Require(ctx, actorID, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if _, err := s.loadStudent(ctx, studentID); err != nil {
		return nil, err
	}

	patch := models.ProfilePatch{Name: req.Name, RegistrationID: req.RegistrationID}
	if req.UserClass != nil {
		class, _ := models.ParseClassLabel(*req.UserClass)
		patch.UserClass = &class
	}
	if err := s.users.PatchProfile(ctx, studentID, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	updated, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
	return updated, nil
}

// Delete removes a student account together with its learning records and
// decrements the enrolled-student counters of affected teachers.
func (s *StudentService) Delete(ctx context.Context, actorID, studentID string) error {
	teacher, err := s.guard.Require(ctx, actorID, models.RoleTeacher)
	if err != nil {
		return err
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.completions.DeleteByStudent(ctx, student.ID); err != nil {
			return err
		}
		if err := s.results.DeleteByStudent(ctx, student.ID); err != nil {
			return err
		}
		if err := s.enrollments.DeleteByStudent(ctx, student.ID); err != nil {
			return err
		}
		teacherIDs, err := s.courses.RemoveStudentEverywhere(ctx, student.ID)
		if err != nil {
			return err
		}
		for _, id := range teacherIDs {
			if err := s.users.AdjustTeacherCounters(ctx, id, 0, -1); err != nil {
				return err
			}
		}
		return s.users.Delete(ctx, student.ID)
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}

	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
	s.logger.Info("student deleted", zap.String("student_id", student.ID), zap.String("deleted_by", teacher.ID))
	return nil
}

func (s *StudentService) loadStudent(ctx context.Context, id string) (*models.User, error) {
	student, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.IsStudent() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}
