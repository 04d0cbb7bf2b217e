package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

// chapterCompletionReward is the credit granted for finishing a chapter.
const chapterCompletionReward = 1

type txRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type leaderboardInvalidator interface {
	Invalidate(ctx context.Context)
}

type progressUserRepository interface {
	ApplyStudentProgress(ctx context.Context, id string, creditsDelta, testsDelta int) (*models.User, error)
	SetRank(ctx context.Context, id, rank string) error
}

type chapterReader interface {
	FindByID(ctx context.Context, id string) (*models.Chapter, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type completionStore interface {
	Insert(ctx context.Context, completion *models.ChapterCompletion) (bool, error)
	CountByStudentAndCourse(ctx context.Context, studentID, courseID string) (int, error)
}

type enrollmentProgressStore interface {
	FindByCourseAndStudent(ctx context.Context, courseID, studentID string) (*models.Enrollment, error)
	UpdateProgress(ctx context.Context, id string, progress int) error
}

type testReader interface {
	FindByID(ctx context.Context, id string) (*models.Test, error)
}

type testResultStore interface {
	Create(ctx context.Context, result *models.TestResult) error
	CountByTestAndStudent(ctx context.Context, testID, studentID string) (int, error)
}

// ScoringConfig holds credit award policy.
type ScoringConfig struct {
	AllowResubmission bool
	MaxManualAward    int
}

// ScoringServiceParams groups constructor dependencies.
type ScoringServiceParams struct {
	Guard       *Guard
	Tx          txRunner
	Users       progressUserRepository
	Chapters    chapterReader
	Courses     courseReader
	Completions completionStore
	Enrollments enrollmentProgressStore
	Tests       testReader
	Results     testResultStore
	Leaderboard leaderboardInvalidator
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Config      ScoringConfig
}

// ScoringService applies learning events to student progression.
type ScoringService struct {
	guard       *Guard
	tx          txRunner
	users       progressUserRepository
	chapters    chapterReader
	courses     courseReader
	completions completionStore
	enrollments enrollmentProgressStore
	tests       testReader
	results     testResultStore
	leaderboard leaderboardInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ScoringConfig
}

// NewScoringService constructs a ScoringService.
func NewScoringService(params ScoringServiceParams) *ScoringService {
	cfg := params.Config
	if cfg.MaxManualAward <= 0 {
		cfg.MaxManualAward = 100
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	return &ScoringService{
		guard:       params.Guard,
		tx:          params.Tx,
		users:       params.Users,
		chapters:    params.Chapters,
		courses:     params.Courses,
		completions: params.Completions,
		enrollments: params.Enrollments,
		tests:       params.Tests,
		results:     params.Results,
		leaderboard: params.Leaderboard,
		metrics:     params.Metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// CompleteChapter records the first completion of a chapter by a student. Repeated
// calls succeed with status already_completed and change nothing.
func (s *ScoringService) CompleteChapter(ctx context.Context, actorID, chapterID string) (*dto.ChapterCompletionResponse, error) {
	student, err := s.guard.Require(ctx, actorID, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	chapter, err := s.chapters.FindByID(ctx, chapterID)
	if err != nil {
		return nil, notFoundOr(err, "chapter not found", "failed to load chapter")
	}
	course, err := s.courses.FindByID(ctx, chapter.CourseID)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	if !course.IsPublished {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is not published")
	}
	if !course.VisibleTo(student.UserClass) {
		return nil, appErrors.Clone(appErrors.ErrNotFoundOrUnpublished, "course not found or not published")
	}

	resp := &dto.ChapterCompletionResponse{
		Status:    dto.CompletionStatusCompleted,
		ChapterID: chapter.ID,
		CourseID:  course.ID,
		Credits:   student.Credits,
		Rank:      student.Rank,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		inserted, err := s.completions.Insert(ctx, &models.ChapterCompletion{
			StudentID: student.ID,
			ChapterID: chapter.ID,
			CourseID:  course.ID,
		})
		if err != nil {
			return err
		}
		if !inserted {
			resp.Status = dto.CompletionStatusAlreadyCompleted
			return nil
		}

		updated, err := s.applyCredits(ctx, student.ID, chapterCompletionReward, 0)
		if err != nil {
			return err
		}
		resp.Credits = updated.Credits
		resp.Rank = updated.Rank

		enrollment, err := s.enrollments.FindByCourseAndStudent(ctx, course.ID, student.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		completed, err := s.completions.CountByStudentAndCourse(ctx, student.ID, course.ID)
		if err != nil {
			return err
		}
		progress := ComputeProgress(completed, course.TotalLessons)
		if err := s.enrollments.UpdateProgress(ctx, enrollment.ID, progress); err != nil {
			return err
		}
		resp.Progress = &progress
		return nil
	})
	if err != nil {
		return nil, internalError(err, "failed to record chapter completion")
	}

	s.metrics.RecordChapterCompletion(string(resp.Status))
	if resp.Status == dto.CompletionStatusCompleted {
		s.metrics.RecordCreditsAwarded(CreditSourceChapter, chapterCompletionReward)
		s.invalidateLeaderboard(ctx)
		s.logger.Info("chapter completed",
			zap.String("student_id", student.ID),
			zap.String("chapter_id", chapter.ID),
			zap.Int("credits", resp.Credits),
			zap.String("rank", resp.Rank),
		)
	}
	return resp, nil
}

// SubmitTest scores a submission and awards one credit per correct answer.
func (s *ScoringService) SubmitTest(ctx context.Context, actorID, testID string, answers []int) (*dto.TestSubmissionResponse, error) {
	student, err := s.guard.Require(ctx, actorID, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(dto.SubmitTestRequest{Answers: answers}); err != nil {
		return nil, validationError(err, "answers are required and must be between -1 and 3")
	}
	test, err := s.tests.FindByID(ctx, testID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFoundOrUnpublished, "test not found or not published")
		}
		return nil, internalError(err, "failed to load test")
	}
	if !test.IsPublished || !student.HasClass() || test.TargetClass != student.UserClass {
		return nil, appErrors.Clone(appErrors.ErrNotFoundOrUnpublished, "test not found or not published")
	}
	if len(answers) > len(test.Questions) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("expected at most %d answers", len(test.Questions)))
	}

	score, correct := ScoreAnswers(test.Questions, answers)
	result := &models.TestResult{
		TestID:        test.ID,
		StudentID:     student.ID,
		Score:         score,
		TotalPoints:   test.Questions.TotalPoints(),
		CorrectCount:  correct,
		CreditsEarned: correct,
		Answers:       toInt64Array(answers),
	}

	var updated *models.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if !s.cfg.AllowResubmission {
			count, err := s.results.CountByTestAndStudent(ctx, test.ID, student.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return appErrors.Clone(appErrors.ErrPreconditionFailed, "test already submitted")
			}
		}
		if err := s.results.Create(ctx, result); err != nil {
			return err
		}
		var err error
		updated, err = s.applyCredits(ctx, student.ID, result.CreditsEarned, 1)
		return err
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, internalError(err, "failed to record test submission")
	}

	s.metrics.RecordTestSubmission()
	s.metrics.RecordCreditsAwarded(CreditSourceTest, result.CreditsEarned)
	s.invalidateLeaderboard(ctx)
	s.logger.Info("test submitted",
		zap.String("student_id", student.ID),
		zap.String("test_id", test.ID),
		zap.Int("score", score),
		zap.Int("credits_earned", result.CreditsEarned),
	)

	return &dto.TestSubmissionResponse{
		ResultID:      result.ID,
		Score:         result.Score,
		TotalPoints:   result.TotalPoints,
		CorrectCount:  result.CorrectCount,
		CreditsEarned: result.CreditsEarned,
		Credits:       updated.Credits,
		Rank:          updated.Rank,
	}, nil
}

// AddCredits is the manual award path. It counts as one completed test.
func (s *ScoringService) AddCredits(ctx context.Context, actorID string, amount int) (*dto.CreditAwardResponse, error) {
	student, err := s.guard.Require(ctx, actorID, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(dto.AddCreditsRequest{Amount: amount}); err != nil {
		return nil, validationError(err, "amount is required")
	}
	if amount < 1 || amount > s.cfg.MaxManualAward {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("amount must be between 1 and %d", s.cfg.MaxManualAward))
	}

	var updated *models.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.applyCredits(ctx, student.ID, amount, 1)
		return err
	})
	if err != nil {
		return nil, internalError(err, "failed to award credits")
	}

	s.metrics.RecordCreditsAwarded(CreditSourceManual, amount)
	s.invalidateLeaderboard(ctx)

	return &dto.CreditAwardResponse{
		Credits:             updated.Credits,
		TotalTestsCompleted: updated.TotalTestsCompleted,
		Rank:                updated.Rank,
	}, nil
}

func (s *ScoringService) invalidateLeaderboard(ctx context.Context) {
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
}

// applyCredits increments the counters atomically and stores the recomputed rank.
func (s *ScoringService) applyCredits(ctx context.Context, studentID string, credits, tests int) (*models.User, error) {
	updated, err := s.users.ApplyStudentProgress(ctx, studentID, credits, tests)
	if err != nil {
		return nil, err
	}
	rank := ComputeRank(updated.Credits)
	if rank != updated.Rank {
		if err := s.users.SetRank(ctx, studentID, rank); err != nil {
			return nil, err
		}
		updated.Rank = rank
	}
	return updated, nil
}

// ScoreAnswers returns the points scored and the number of correct answers. Missing
// answers count as wrong.
func ScoreAnswers(questions models.Questions, answers []int) (score, correct int) {
	for i, question := range questions {
		if i >= len(answers) {
			break
		}
		if answers[i] == question.CorrectAnswer {
			score += question.Points
			correct++
		}
	}
	return score, correct
}

func toInt64Array(values []int) pq.Int64Array {
	out := make(pq.Int64Array, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
