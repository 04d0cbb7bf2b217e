package models

import "time"

// Chapter is an ordered lesson inside a course.
type Chapter struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"courseId"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	VideoURL  string    `db:"video_url" json:"videoUrl,omitempty"`
	Order     int       `db:"order_index" json:"order"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ChapterCompletion is the append-only fact that a student finished a chapter.
type ChapterCompletion struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"studentId"`
	ChapterID   string    `db:"chapter_id" json:"chapterId"`
	CourseID    string    `db:"course_id" json:"courseId"`
	CompletedAt time.Time `db:"completed_at" json:"completedAt"`
}
