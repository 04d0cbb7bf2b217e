package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classquest-api/internal/models"
)

const enrollmentColumns = `id, course_id, student_id, progress, enrolled_at, updated_at`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListByStudent returns a student's enrollments joined with course details.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.course_id, e.student_id, e.progress, e.enrolled_at, e.updated_at,
c.title AS course_title, c.target_class, c.total_lessons
FROM enrollments e
JOIN courses c ON c.id = e.course_id
WHERE e.student_id = $1
ORDER BY e.enrolled_at DESC, e.id ASC`
	var enrollments []models.EnrollmentDetail
	if err := conn(ctx, r.db).SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments by student: %w", err)
	}
	return enrollments, nil
}

// ListByCourse returns the enrollments of one course.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE course_id = $1 ORDER BY enrolled_at ASC, id ASC`
	var enrollments []models.Enrollment
	if err := conn(ctx, r.db).SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrollments by course: %w", err)
	}
	return enrollments, nil
}

// FindByCourseAndStudent returns the enrollment for the pair.
func (r *EnrollmentRepository) FindByCourseAndStudent(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE course_id = $1 AND student_id = $2`
	var enrollment models.Enrollment
	if err := conn(ctx, r.db).GetContext(ctx, &enrollment, query, courseID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return &enrollment, nil
}

// Create inserts an enrollment. A second enrollment for the same pair yields ErrDuplicate.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (id, course_id, student_id, progress, enrolled_at, updated_at)
VALUES (:id, :course_id, :student_id, :progress, :enrolled_at, :updated_at)`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, enrollment); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateProgress stores a recomputed completion percentage.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	const query = `UPDATE enrollments SET progress = $2, updated_at = $3 WHERE id = $1`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, id, progress, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment progress: %w", err)
	}
	return nil
}

// DeleteByCourse removes every enrollment of a course and returns how many were removed.
func (r *EnrollmentRepository) DeleteByCourse(ctx context.Context, courseID string) (int, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM enrollments WHERE course_id = $1", courseID)
	if err != nil {
		return 0, fmt.Errorf("delete enrollments by course: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

// DeleteByStudent removes every enrollment of a student.
func (r *EnrollmentRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM enrollments WHERE student_id = $1", studentID); err != nil {
		return fmt.Errorf("delete enrollments by student: %w", err)
	}
	return nil
}
