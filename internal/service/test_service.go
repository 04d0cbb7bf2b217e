package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

type testRepository interface {
	List(ctx context.Context, filter models.TestFilter) ([]models.Test, error)
	FindByID(ctx context.Context, id string) (*models.Test, error)
	Create(ctx context.Context, test *models.Test) error
	Update(ctx context.Context, test *models.Test) error
	Delete(ctx context.Context, id string) error
}

// TestService manages multiple-choice tests. Students never receive correct answers.
type TestService struct {
	guard     *Guard
	repo      testRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTestService constructs a TestService.
func NewTestService(guard *Guard, repo testRepository, validate *validator.Validate, logger *zap.Logger) *TestService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestService{guard: guard, repo: repo, validator: validate, logger: logger}
}

// List returns the teacher's tests with answers, or the published tests of a student's class without.
func (s *TestService) List(ctx context.Context, actorID string) ([]models.TestView, error) {
	user, err := s.guard.Authenticate(ctx, actorID)
	if err != nil {
		return nil, err
	}
	var filter models.TestFilter
	switch {
	case user.IsTeacher():
		filter.TeacherID = user.ID
	case user.IsStudent() && user.HasClass():
		filter.TargetClass = user.UserClass
		filter.PublishedOnly = true
	default:
		return []models.TestView{}, nil
	}
	tests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list tests")
	}
	views := make([]models.TestView, 0, len(tests))
	for i := range tests {
		views = append(views, tests[i].View(user.IsTeacher()))
	}
	return views, nil
}

// Get returns one test. Only the owner sees correct answers.
func (s *TestService) Get(ctx context.Context, actorID, id string) (*models.TestView, error) {
	user, err := s.guard.Authenticate(ctx, actorID)
	if err != nil {
		return nil, err
	}
	test, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "test not found", "failed to load test")
	}
	if user.IsTeacher() {
		if err := RequireOwner(user, test.TeacherID); err != nil {
			return nil, err
		}
		view := test.View(true)
		return &view, nil
	}
	if !test.IsPublished || !user.HasClass() || test.TargetClass != user.UserClass {
		return nil, appErrors.Clone(appErrors.ErrNotFoundOrUnpublished, "test not found or not published")
	}
	view := test.View(false)
	return &view, nil
}

// Create stores a test tagged with the teacher's own class.
func (s *TestService) Create(ctx context.Context, actorID string, req dto.TestRequest) (*models.TestView, error) {
	teacher, err := s.guard.RequireTeacherWithClass(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	test := &models.Test{
		TeacherID:       teacher.ID,
		TargetClass:     teacher.UserClass,
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		IsPublished:     req.IsPublished,
		Questions:       models.Questions(req.Questions),
	}
	test.TotalPoints = test.Questions.TotalPoints()
	if err := s.repo.Create(ctx, test); err != nil {
		return nil, internalError(err, "failed to create test")
	}
	s.logger.Info("test created",
		zap.String("test_id", test.ID),
		zap.String("teacher_id", teacher.ID),
		zap.Int("questions", len(test.Questions)),
	)
	view := test.View(true)
	return &view, nil
}

// Update fully replaces a test's editable fields. The class tag is not editable.
func (s *TestService) Update(ctx context.Context, actorID, id string, req dto.TestRequest) (*models.TestView, error) {
	test, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	test.Title = req.Title
	test.Description = req.Description
	test.DurationMinutes = req.DurationMinutes
	test.IsPublished = req.IsPublished
	test.Questions = models.Questions(req.Questions)
	return s.save(ctx, test)
}

// UpdateQuestion replaces the question at a 0-based index.
func (s *TestService) UpdateQuestion(ctx context.Context, actorID, id string, index int, question models.Question) (*models.TestView, error) {
	test, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := checkQuestionIndex(test, index); err != nil {
		return nil, err
	}
	questions := make(models.Questions, len(test.Questions))
	copy(questions, test.Questions)
	questions[index] = question
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}
	test.Questions = questions
	return s.save(ctx, test)
}

// DeleteQuestion removes the question at a 0-based index.
func (s *TestService) DeleteQuestion(ctx context.Context, actorID, id string, index int) (*models.TestView, error) {
	test, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := checkQuestionIndex(test, index); err != nil {
		return nil, err
	}
	questions := make(models.Questions, 0, len(test.Questions)-1)
	questions = append(questions, test.Questions[:index]...)
	questions = append(questions, test.Questions[index+1:]...)
	test.Questions = questions
	return s.save(ctx, test)
}

// Delete removes a test. Results and export jobs go with it.
func (s *TestService) Delete(ctx context.Context, actorID, id string) error {
	test, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, test.ID); err != nil {
		return internalError(err, "failed to delete test")
	}
	s.logger.Info("test deleted", zap.String("test_id", test.ID))
	return nil
}

func (s *TestService) save(ctx context.Context, test *models.Test) (*models.TestView, error) {
	test.TotalPoints = test.Questions.TotalPoints()
	if err := s.repo.Update(ctx, test); err != nil {
		return nil, internalError(err, "failed to update test")
	}
	view := test.View(true)
	return &view, nil
}

func (s *TestService) validateRequest(req dto.TestRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid test payload")
	}
	return ValidateQuestions(req.Questions)
}

func (s *TestService) loadOwned(ctx context.Context, actorID, id string) (*models.Test, error) {
	teacher, err := s.guard.Require(ctx, actorID, models.RoleTeacher)
	if err != nil {
		return nil, err
	}
	test, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "test not found", "failed to load test")
	}
	if err := RequireOwner(teacher, test.TeacherID); err != nil {
		return nil, err
	}
	return test, nil
}

func checkQuestionIndex(test *models.Test, index int) error {
	if index < 0 || index >= len(test.Questions) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d does not exist", index+1))
	}
	return nil
}
