package models

import (
	"time"

	"github.com/lib/pq"
)

// Course is teacher-owned content tagged with a single target class.
type Course struct {
	ID               string         `db:"id" json:"id"`
	TeacherID        string         `db:"teacher_id" json:"teacherId"`
	Title            string         `db:"title" json:"title"`
	Description      string         `db:"description" json:"description"`
	TargetClass      ClassLabel     `db:"target_class" json:"targetClass"`
	IsPublished      bool           `db:"is_published" json:"isPublished"`
	EnrolledStudents pq.StringArray `db:"enrolled_students" json:"enrolledStudents"`
	TotalLessons     int            `db:"total_lessons" json:"totalLessons"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// VisibleTo reports whether a student in the given class may see the course.
func (c *Course) VisibleTo(class ClassLabel) bool {
	return c != nil && c.IsPublished && class.Valid() && c.TargetClass == class
}

// CourseFilter restricts course listings.
type CourseFilter struct {
	TeacherID     string
	TargetClass   ClassLabel
	PublishedOnly bool
}
