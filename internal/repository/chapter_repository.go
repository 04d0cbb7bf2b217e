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

const chapterColumns = `id, course_id, title, content, video_url, order_index, created_at, updated_at`

// ChapterRepository persists course chapters.
type ChapterRepository struct {
	db *sqlx.DB
}

// NewChapterRepository constructs the repository.
func NewChapterRepository(db *sqlx.DB) *ChapterRepository {
	return &ChapterRepository{db: db}
}

// ListByCourse returns chapters in display order. Equal orders fall back to creation
// time and then id so the order is total.
func (r *ChapterRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE course_id = $1 ORDER BY order_index ASC, created_at ASC, id ASC`
	var chapters []models.Chapter
	if err := conn(ctx, r.db).SelectContext(ctx, &chapters, query, courseID); err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return chapters, nil
}

// FindByID returns a chapter by id.
func (r *ChapterRepository) FindByID(ctx context.Context, id string) (*models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE id = $1`
	var chapter models.Chapter
	if err := conn(ctx, r.db).GetContext(ctx, &chapter, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get chapter: %w", err)
	}
	return &chapter, nil
}

// NextOrder returns max(order)+1 for the course, or 0 when it has no chapters.
func (r *ChapterRepository) NextOrder(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COALESCE(MAX(order_index) + 1, 0) FROM chapters WHERE course_id = $1`
	var next int
	if err := conn(ctx, r.db).GetContext(ctx, &next, query, courseID); err != nil {
		return 0, fmt.Errorf("next chapter order: %w", err)
	}
	return next, nil
}

// Create inserts a chapter row.
func (r *ChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	if chapter.ID == "" {
		chapter.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if chapter.CreatedAt.IsZero() {
		chapter.CreatedAt = now
	}
	chapter.UpdatedAt = now
	const query = `INSERT INTO chapters (id, course_id, title, content, video_url, order_index, created_at, updated_at)
VALUES (:id, :course_id, :title, :content, :video_url, :order_index, :created_at, :updated_at)`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, chapter); err != nil {
		return fmt.Errorf("create chapter: %w", err)
	}
	return nil
}

// Update persists title, content, video and order.
func (r *ChapterRepository) Update(ctx context.Context, chapter *models.Chapter) error {
	chapter.UpdatedAt = time.Now().UTC()
	const query = `UPDATE chapters SET title = :title, content = :content, video_url = :video_url, order_index = :order_index,
updated_at = :updated_at WHERE id = :id`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, chapter); err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}
	return nil
}

// Delete removes a chapter row.
func (r *ChapterRepository) Delete(ctx context.Context, id string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM chapters WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	return nil
}

// DeleteByCourse removes every chapter of a course.
func (r *ChapterRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM chapters WHERE course_id = $1", courseID); err != nil {
		return fmt.Errorf("delete chapters by course: %w", err)
	}
	return nil
}
