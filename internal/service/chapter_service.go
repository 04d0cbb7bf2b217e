package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

type chapterRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Chapter, error)
	FindByID(ctx context.Context, id string) (*models.Chapter, error)
	NextOrder(ctx context.Context, courseID string) (int, error)
	Create(ctx context.Context, chapter *models.Chapter) error
	Update(ctx context.Context, chapter *models.Chapter) error
	Delete(ctx context.Context, id string) error
}

type chapterCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	RefreshTotalLessons(ctx context.Context, courseID string) (int, error)
}

type chapterCompletionRepository interface {
	DeleteByChapter(ctx context.Context, chapterID string) error
	CountByCourse(ctx context.Context, courseID string) (map[string]int, error)
}

type courseEnrollmentRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	UpdateProgress(ctx context.Context, id string, progress int) error
}

// ChapterServiceParams groups constructor dependencies.
type ChapterServiceParams struct {
	Guard       *Guard
	Tx          txRunner
	Chapters    chapterRepository
	Courses     chapterCourseRepository
	Completions chapterCompletionRepository
	Enrollments courseEnrollmentRepository
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// ChapterService manages the ordered chapters of a course.
type ChapterService struct {
	guard       *Guard
	tx          txRunner
	chapters    chapterRepository
	courses     chapterCourseRepository
	completions chapterCompletionRepository
	enrollments courseEnrollmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewChapterService constructs a ChapterService.
func NewChapterService(params ChapterServiceParams) *ChapterService {
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChapterService{
		guard:       params.Guard,
		tx:          params.Tx,
		chapters:    params.Chapters,
		courses:     params.Courses,
		completions: params.Completions,
		enrollments: params.Enrollments,
		validator:   validate,
		logger:      logger,
	}
}

// List returns chapters in display order to the course owner or a student who can see the course.
func (s *ChapterService) List(ctx context.Context, actorID, courseID string) ([]models.Chapter, error) {
	user, err := s.guard.Authenticate(ctx, actorID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	if user.IsTeacher() {
		if err := RequireOwner(user, course.TeacherID); err != nil {
			return nil, err
		}
	} else if !course.VisibleTo(user.UserClass) {
		return nil, appErrors.Clone(appErrors.ErrNotFoundOrUnpublished, "course not found or not published")
	}
	chapters, err := s.chapters.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, internalError(err, "failed to list chapters")
	}
	if chapters == nil {
		chapters = []models.Chapter{}
	}
	return chapters, nil
}

// Create appends a chapter to a course owned by the acting teacher. Without an explicit
// order the chapter goes after the current last one.
func (s *ChapterService) Create(ctx context.Context, actorID, courseID string, req dto.ChapterRequest) (*models.Chapter, error) {
	teacher, err := s.guard.Require(ctx, actorID, models.RoleTeacher)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	if err := RequireOwner(teacher, course.TeacherID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid chapter payload")
	}

	chapter := &models.Chapter{
		CourseID: course.ID,
		Title:    req.Title,
		Content:  req.Content,
		VideoURL: req.VideoURL,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if req.Order != nil {
			chapter.Order = *req.Order
		} else {
			next, err := s.chapters.NextOrder(ctx, course.ID)
			if err != nil {
				return err
			}
			chapter.Order = next
		}
		if err := s.chapters.Create(ctx, chapter); err != nil {
			return err
		}
		return s.refreshCourse(ctx, course.ID)
	})
	if err != nil {
		return nil, internalError(err, "failed to create chapter")
	}
	return chapter, nil
}

// Update replaces a chapter's content. A nil order keeps the current value.
func (s *ChapterService) Update(ctx context.Context, actorID, chapterID string, req dto.ChapterRequest) (*models.Chapter, error) {
	chapter, err := s.loadOwned(ctx, actorID, chapterID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid chapter payload")
	}
	chapter.Title = req.Title
	chapter.Content = req.Content
	chapter.VideoURL = req.VideoURL
	if req.Order != nil {
		chapter.Order = *req.Order
	}
	if err := s.chapters.Update(ctx, chapter); err != nil {
		return nil, internalError(err, "failed to update chapter")
	}
	return chapter, nil
}

// SetOrder stores the order value verbatim. Collisions are allowed.
func (s *ChapterService) SetOrder(ctx context.Context, actorID, chapterID string, req dto.ChapterOrderRequest) (*models.Chapter, error) {
	chapter, err := s.loadOwned(ctx, actorID, chapterID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid order payload")
	}
	chapter.Order = *req.Order
	if err := s.chapters.Update(ctx, chapter); err != nil {
		return nil, internalError(err, "failed to update chapter order")
	}
	return chapter, nil
}

// Delete removes a chapter and its completions, then refreshes lesson totals and progress.
func (s *ChapterService) Delete(ctx context.Context, actorID, chapterID string) error {
	chapter, err := s.loadOwned(ctx, actorID, chapterID)
	if err != nil {
		return err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.completions.DeleteByChapter(ctx, chapter.ID); err != nil {
			return err
		}
		if err := s.chapters.Delete(ctx, chapter.ID); err != nil {
			return err
		}
		return s.refreshCourse(ctx, chapter.CourseID)
	})
	if err != nil {
		return internalError(err, "failed to delete chapter")
	}
	return nil
}

func (s *ChapterService) refreshCourse(ctx context.Context, courseID string) error {
	total, err := s.courses.RefreshTotalLessons(ctx, courseID)
	if err != nil {
		return err
	}
	_, err = recomputeCourseProgress(ctx, s.enrollments, s.completions, courseID, total)
	return err
}

func (s *ChapterService) loadOwned(ctx context.Context, actorID, chapterID string) (*models.Chapter, error) {
	teacher, err := s.guard.Require(ctx, actorID, models.RoleTeacher)
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
	if err := RequireOwner(teacher, course.TeacherID); err != nil {
		return nil, err
	}
	return chapter, nil
}

type completionCounter interface {
	CountByCourse(ctx context.Context, courseID string) (map[string]int, error)
}

// recomputeCourseProgress rewrites the progress of every enrollment in a course and
// returns how many rows changed.
func recomputeCourseProgress(ctx context.Context, enrollments courseEnrollmentRepository, completions completionCounter, courseID string, totalLessons int) (int, error) {
	rows, err := enrollments.ListByCourse(ctx, courseID)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	counts, err := completions.CountByCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, enrollment := range rows {
		progress := ComputeProgress(counts[enrollment.StudentID], totalLessons)
		if progress == enrollment.Progress {
			continue
		}
		if err := enrollments.UpdateProgress(ctx, enrollment.ID, progress); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
