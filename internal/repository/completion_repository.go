package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classquest-api/internal/models"
)

// CompletionRepository persists chapter completion facts.
type CompletionRepository struct {
	db *sqlx.DB
}

// NewCompletionRepository constructs the repository.
func NewCompletionRepository(db *sqlx.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// Insert records a completion and reports whether a new row was written. A repeated
// (student, chapter) pair is ignored.
func (r *CompletionRepository) Insert(ctx context.Context, completion *models.ChapterCompletion) (bool, error) {
	if completion.ID == "" {
		completion.ID = uuid.NewString()
	}
	if completion.CompletedAt.IsZero() {
		completion.CompletedAt = time.Now().UTC()
	}
	const query = `INSERT INTO chapter_completions (id, student_id, chapter_id, course_id, completed_at)
VALUES (:id, :student_id, :chapter_id, :course_id, :completed_at)
ON CONFLICT (student_id, chapter_id) DO NOTHING`
	res, err := conn(ctx, r.db).NamedExecContext(ctx, query, completion)
	if err != nil {
		return false, fmt.Errorf("insert chapter completion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert chapter completion: %w", err)
	}
	return affected > 0, nil
}

// CountByStudentAndCourse counts the chapters of a course a student has completed.
func (r *CompletionRepository) CountByStudentAndCourse(ctx context.Context, studentID, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM chapter_completions WHERE student_id = $1 AND course_id = $2`
	var count int
	if err := conn(ctx, r.db).GetContext(ctx, &count, query, studentID, courseID); err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return count, nil
}

type completionCount struct {
	StudentID string `db:"student_id"`
	Count     int    `db:"count"`
}

// CountByCourse returns completed chapter counts keyed by student for one course.
func (r *CompletionRepository) CountByCourse(ctx context.Context, courseID string) (map[string]int, error) {
	const query = `SELECT student_id, COUNT(*) AS count FROM chapter_completions WHERE course_id = $1 GROUP BY student_id`
	var rows []completionCount
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("count completions by course: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.StudentID] = row.Count
	}
	return counts, nil
}

// DeleteByChapter removes completions of one chapter.
func (r *CompletionRepository) DeleteByChapter(ctx context.Context, chapterID string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM chapter_completions WHERE chapter_id = $1", chapterID); err != nil {
		return fmt.Errorf("delete completions by chapter: %w", err)
	}
	return nil
}

// DeleteByCourse removes completions of every chapter in a course.
func (r *CompletionRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM chapter_completions WHERE course_id = $1", courseID); err != nil {
		return fmt.Errorf("delete completions by course: %w", err)
	}
	return nil
}

// DeleteByStudent removes every completion of a student.
func (r *CompletionRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM chapter_completions WHERE student_id = $1", studentID); err != nil {
		return fmt.Errorf("delete completions by student: %w", err)
	}
	return nil
}
