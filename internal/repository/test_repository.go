package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classquest-api/internal/models"
)

const testColumns = `id, teacher_id, title, description, target_class, is_published, duration_minutes, questions, total_points, created_at, updated_at`

// TestRepository persists tests and their JSONB question sets.
type TestRepository struct {
	db *sqlx.DB
}

// NewTestRepository constructs the repository.
func NewTestRepository(db *sqlx.DB) *TestRepository {
	return &TestRepository{db: db}
}

// List returns tests matching filter, newest first.
func (r *TestRepository) List(ctx context.Context, filter models.TestFilter) ([]models.Test, error) {
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
	query := fmt.Sprintf("SELECT %s FROM tests WHERE %s ORDER BY created_at DESC, id ASC", testColumns, strings.Join(conditions, " AND "))
	var tests []models.Test
	if err := conn(ctx, r.db).SelectContext(ctx, &tests, query, args...); err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return tests, nil
}

// FindByID returns a test by id.
func (r *TestRepository) FindByID(ctx context.Context, id string) (*models.Test, error) {
	query := `SELECT ` + testColumns + ` FROM tests WHERE id = $1`
	var test models.Test
	if err := conn(ctx, r.db).GetContext(ctx, &test, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	return &test, nil
}

// Create inserts a test row.
func (r *TestRepository) Create(ctx context.Context, test *models.Test) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if test.CreatedAt.IsZero() {
		test.CreatedAt = now
	}
	test.UpdatedAt = now
	const query = `INSERT INTO tests (id, teacher_id, title, description, target_class, is_published, duration_minutes, questions, total_points, created_at, updated_at)
VALUES (:id, :teacher_id, :title, :description, :target_class, :is_published, :duration_minutes, :questions, :total_points, :created_at, :updated_at)`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, test); err != nil {
		return fmt.Errorf("create test: %w", err)
	}
	return nil
}

// Update persists every editable field including the question set.
func (r *TestRepository) Update(ctx context.Context, test *models.Test) error {
	test.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tests SET title = :title, description = :description, is_published = :is_published,
duration_minutes = :duration_minutes, questions = :questions, total_points = :total_points, updated_at = :updated_at
WHERE id = :id`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, test); err != nil {
		return fmt.Errorf("update test: %w", err)
	}
	return nil
}

// Delete removes a test. Results and export jobs cascade in the schema.
func (r *TestRepository) Delete(ctx context.Context, id string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM tests WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	return nil
}
