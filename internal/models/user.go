package models

import "time"

// UserRole represents the two roles a classroom account can hold.
type UserRole string

const (
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// Valid reports whether the role is one of the supported roles.
func (r UserRole) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// User represents an account stored in the users table. Role and UserClass are empty
// until the account finishes profile setup.
type User struct {
	ID             string     `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	Name           string     `db:"name" json:"name"`
	Role           UserRole   `db:"role" json:"role,omitempty"`
	UserClass      ClassLabel `db:"user_class" json:"userClass,omitempty"`
	RegistrationID string     `db:"registration_id" json:"registrationId,omitempty"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	Gender         string     `db:"gender" json:"gender,omitempty"`

	Credits             int    `db:"credits" json:"credits"`
	Rank                string `db:"rank" json:"rank,omitempty"`
	TotalTestsCompleted int    `db:"total_tests_completed" json:"totalTestsCompleted"`

	TotalCoursesCreated   int `db:"total_courses_created" json:"totalCoursesCreated"`
	TotalStudentsEnrolled int `db:"total_students_enrolled" json:"totalStudentsEnrolled"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsTeacher reports whether the user completed setup as a teacher.
func (u *User) IsTeacher() bool {
	return u != nil && u.Role == RoleTeacher
}

// IsStudent reports whether the user completed setup as a student.
func (u *User) IsStudent() bool {
	return u != nil && u.Role == RoleStudent
}

// HasClass reports whether the user has a registered class.
func (u *User) HasClass() bool {
	return u != nil && u.UserClass.Valid()
}

// StudentFilter captures filtering criteria for the teacher-facing student list.
type StudentFilter struct {
	Class    ClassLabel
	Search   string
	Page     int
	PageSize int
}

// ProfilePatch lists profile fields a teacher may change on a student account.
type ProfilePatch struct {
	Name           *string
	UserClass      *ClassLabel
	RegistrationID *string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
