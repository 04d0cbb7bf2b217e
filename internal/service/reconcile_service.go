package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

type reconcileUserRepository interface {
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	SetRank(ctx context.Context, id, rank string) error
	RecountTeacherCounters(ctx context.Context) (int64, error)
}

type reconcileCourseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	RecountAll(ctx context.Context) (int64, error)
}

// ReconcileService rebuilds denormalized counters from the underlying facts.
type ReconcileService struct {
	tx          txRunner
	users       reconcileUserRepository
	courses     reconcileCourseRepository
	enrollments courseEnrollmentRepository
	completions completionCounter
	leaderboard leaderboardInvalidator
	logger      *zap.Logger
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(tx txRunner, users reconcileUserRepository, courses reconcileCourseRepository, enrollments courseEnrollmentRepository, completions completionCounter, leaderboard leaderboardInvalidator, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{
		tx:          tx,
		users:       users,
		courses:     courses,
		enrollments: enrollments,
		completions: completions,
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// Reconcile recomputes student ranks, course rosters and lesson totals, enrollment
// progress and teacher counters in one transaction.
func (s *ReconcileService) Reconcile(ctx context.Context) (*dto.ReconcileReport, error) {
	started := time.Now()
	report := &dto.ReconcileReport{}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		students, err := s.users.ListByRole(ctx, models.RoleStudent)
		if err != nil {
			return err
		}
		for _, student := range students {
			rank := ComputeRank(student.Credits)
			if rank == student.Rank {
				continue
			}
			if err := s.users.SetRank(ctx, student.ID, rank); err != nil {
				return err
			}
			report.StudentsRanked++
		}

		courseRows, err := s.courses.RecountAll(ctx)
		if err != nil {
			return err
		}
		report.CoursesUpdated = int(courseRows)

		courses, err := s.courses.List(ctx, models.CourseFilter{})
		if err != nil {
			return err
		}
		for _, course := range courses {
			updated, err := recomputeCourseProgress(ctx, s.enrollments, s.completions, course.ID, course.TotalLessons)
			if err != nil {
				return err
			}
			report.EnrollmentsUpdated += updated
		}

		teacherRows, err := s.users.RecountTeacherCounters(ctx)
		if err != nil {
			return err
		}
		report.TeachersUpdated = int(teacherRows)
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "reconciliation failed")
	}

	if s.leaderboard != nil && report.StudentsRanked > 0 {
		s.leaderboard.Invalidate(ctx)
	}
	report.Duration = time.Since(started)
	s.logger.Info("reconciliation finished",
		zap.Int("students_ranked", report.StudentsRanked),
		zap.Int("courses_updated", report.CoursesUpdated),
		zap.Int("enrollments_updated", report.EnrollmentsUpdated),
		zap.Int("teachers_updated", report.TeachersUpdated),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}
