package models

import "time"

// Enrollment links a student to a course and caches their completion percentage.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"courseId"`
	StudentID  string    `db:"student_id" json:"studentId"`
	Progress   int       `db:"progress" json:"progress"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolledAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// EnrollmentDetail enriches Enrollment with course info.
type EnrollmentDetail struct {
	Enrollment
	CourseTitle  string     `db:"course_title" json:"courseTitle"`
	TargetClass  ClassLabel `db:"target_class" json:"targetClass"`
	TotalLessons int        `db:"total_lessons" json:"totalLessons"`
}
