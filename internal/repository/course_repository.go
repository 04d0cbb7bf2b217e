package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/classquest-api/internal/models"
)

const courseColumns = `id, teacher_id, title, description, target_class, is_published, enrolled_students, total_lessons, created_at, updated_at`

// CourseRepository persists courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching filter ordered by creation time.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if filter.TargetClass != "" {
		args = append(args, filter.TargetClass)
		conditions = append(conditions, fmt.Sprintf("target_class = $%d", len(args)))
	}
	if filter.PublishedOnly {
		conditions = append(conditions, "is_published = TRUE")
	}
	query := fmt.Sprintf("SELECT %s FROM courses WHERE %s ORDER BY created_at DESC, id ASC", courseColumns, strings.Join(conditions, " AND "))
	var courses []models.Course
	if err := conn(ctx, r.db).SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var course models.Course
	if err := conn(ctx, r.db).GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &course, nil
}

// Create inserts a course row.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	if course.EnrolledStudents == nil {
		course.EnrolledStudents = pq.StringArray{}
	}
	const query = `INSERT INTO courses (id, teacher_id, title, description, target_class, is_published, enrolled_students, total_lessons, created_at, updated_at)
VALUES (:id, :teacher_id, :title, :description, :target_class, :is_published, :enrolled_students, :total_lessons, :created_at, :updated_at)`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update persists the editable course fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, target_class = :target_class,
is_published = :is_published, updated_at = :updated_at WHERE id = :id`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course row.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// AppendEnrolledStudent adds studentID to the denormalized enrollment list.
func (r *CourseRepository) AppendEnrolledStudent(ctx context.Context, courseID, studentID string) error {
	const query = `UPDATE courses SET enrolled_students = array_append(enrolled_students, $2), updated_at = $3
WHERE id = $1 AND NOT ($2 = ANY(enrolled_students))`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, courseID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("append enrolled student: %w", err)
	}
	return nil
}

// RemoveStudentEverywhere drops studentID from every course list and returns the
// owning teacher of each course that changed.
func (r *CourseRepository) RemoveStudentEverywhere(ctx context.Context, studentID string) ([]string, error) {
	const query = `UPDATE courses SET enrolled_students = array_remove(enrolled_students, $1)
WHERE $1 = ANY(enrolled_students) RETURNING teacher_id`
	var teacherIDs []string
	if err := conn(ctx, r.db).SelectContext(ctx, &teacherIDs, query, studentID); err != nil {
		return nil, fmt.Errorf("remove student from courses: %w", err)
	}
	return teacherIDs, nil
}

// RefreshTotalLessons recounts the chapters of a course and returns the new total.
func (r *CourseRepository) RefreshTotalLessons(ctx context.Context, courseID string) (int, error) {
	const query = `UPDATE courses SET total_lessons = (SELECT COUNT(*) FROM chapters WHERE course_id = $1), updated_at = $2
WHERE id = $1 RETURNING total_lessons`
	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, query, courseID, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("refresh total lessons: %w", err)
	}
	return total, nil
}

// RecountAll rebuilds enrolled_students and total_lessons for every course.
func (r *CourseRepository) RecountAll(ctx context.Context) (int64, error) {
	const query = `UPDATE courses c SET
enrolled_students = COALESCE((SELECT array_agg(e.student_id ORDER BY e.enrolled_at, e.id) FROM enrollments e WHERE e.course_id = c.id), '{}'),
total_lessons = (SELECT COUNT(*) FROM chapters ch WHERE ch.course_id = c.id)`
	res, err := conn(ctx, r.db).ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("recount courses: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
