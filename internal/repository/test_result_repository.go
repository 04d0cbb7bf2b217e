package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classquest-api/internal/models"
)

// TestResultRepository persists test submissions.
type TestResultRepository struct {
	db *sqlx.DB
}

// NewTestResultRepository constructs the repository.
func NewTestResultRepository(db *sqlx.DB) *TestResultRepository {
	return &TestResultRepository{db: db}
}

// Create inserts a submission row.
func (r *TestResultRepository) Create(ctx context.Context, result *models.TestResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.SubmittedAt.IsZero() {
		result.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO test_results (id, test_id, student_id, score, total_points, correct_count, credits_earned, answers, submitted_at)
VALUES (:id, :test_id, :student_id, :score, :total_points, :correct_count, :credits_earned, :answers, :submitted_at)`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create test result: %w", err)
	}
	return nil
}

// CountByTestAndStudent counts earlier submissions of a test by a student.
func (r *TestResultRepository) CountByTestAndStudent(ctx context.Context, testID, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM test_results WHERE test_id = $1 AND student_id = $2`
	var count int
	if err := conn(ctx, r.db).GetContext(ctx, &count, query, testID, studentID); err != nil {
		return 0, fmt.Errorf("count test results: %w", err)
	}
	return count, nil
}

// ListDetailsByTest returns every submission of a test with student details.
func (r *TestResultRepository) ListDetailsByTest(ctx context.Context, testID string) ([]models.TestResultDetail, error) {
	const query = `SELECT r.id, r.test_id, r.student_id, r.score, r.total_points, r.correct_count, r.credits_earned, r.answers, r.submitted_at,
u.name AS student_name, u.email AS student_email, u.registration_id, u.user_class AS student_class
FROM test_results r
JOIN users u ON u.id = r.student_id
WHERE r.test_id = $1
ORDER BY r.submitted_at ASC, r.id ASC`
	var results []models.TestResultDetail
	if err := conn(ctx, r.db).SelectContext(ctx, &results, query, testID); err != nil {
		return nil, fmt.Errorf("list test results: %w", err)
	}
	return results, nil
}

// DeleteByStudent removes every submission of a student.
func (r *TestResultRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM test_results WHERE student_id = $1", studentID); err != nil {
		return fmt.Errorf("delete test results by student: %w", err)
	}
	return nil
}
