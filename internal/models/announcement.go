package models

import "time"

// AnnouncementPriority defines ordering for announcements.
type AnnouncementPriority string

const (
	AnnouncementPriorityLow    AnnouncementPriority = "low"
	AnnouncementPriorityMedium AnnouncementPriority = "medium"
	AnnouncementPriorityHigh   AnnouncementPriority = "high"
)

// Valid reports whether the priority is supported.
func (p AnnouncementPriority) Valid() bool {
	switch p {
	case AnnouncementPriorityLow, AnnouncementPriorityMedium, AnnouncementPriorityHigh:
		return true
	default:
		return false
	}
}

// Announcement represents a persisted announcement row. IsGlobal is kept for schema
// compatibility and is always false.
type Announcement struct {
	ID          string               `db:"id" json:"id"`
	AuthorID    string               `db:"author_id" json:"authorId"`
	Title       string               `db:"title" json:"title"`
	Content     string               `db:"content" json:"content"`
	TargetClass ClassLabel           `db:"target_class" json:"targetClass"`
	CourseID    *string              `db:"course_id" json:"courseId,omitempty"`
	Priority    AnnouncementPriority `db:"priority" json:"priority"`
	IsGlobal    bool                 `db:"is_global" json:"isGlobal"`
	CreatedAt   time.Time            `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updatedAt"`
}

// AnnouncementFilter selects announcements for a viewer.
type AnnouncementFilter struct {
	TargetClass ClassLabel
	AuthorID    string
	Page        int
	PageSize    int
}
