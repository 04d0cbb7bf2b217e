package dto

import "github.com/noah-isme/classquest-api/internal/models"

// CourseRequest creates or updates a course.
type CourseRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	TargetClass string `json:"targetClass" validate:"required,class_label"`
	IsPublished bool   `json:"isPublished"`
}

// ChapterRequest creates or updates a chapter. A nil Order appends the chapter.
type ChapterRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content"`
	VideoURL string `json:"videoUrl" validate:"omitempty,url"`
	Order    *int   `json:"order" validate:"omitempty,min=0"`
}

// ChapterOrderRequest sets a chapter's order value verbatim.
type ChapterOrderRequest struct {
	Order *int `json:"order" validate:"required,min=0"`
}

// TestRequest creates or fully replaces a test.
type TestRequest struct {
	Title           string            `json:"title" validate:"required,max=200"`
	Description     string            `json:"description" validate:"max=5000"`
	DurationMinutes int               `json:"durationMinutes" validate:"min=0,max=600"`
	IsPublished     bool              `json:"isPublished"`
	Questions       []models.Question `json:"questions"`
}

// SubmitTestRequest carries the chosen option index per question. Use -1 for unanswered.
type SubmitTestRequest struct {
	Answers []int `json:"answers" validate:"required,dive,min=-1,max=3"`
}

// AnnouncementRequest creates or updates an announcement. TargetClass and IsGlobal are
// accepted for compatibility and ignored.
type AnnouncementRequest struct {
	Title       string                      `json:"title" validate:"required,max=200"`
	Content     string                      `json:"content" validate:"required"`
	CourseID    *string                     `json:"courseId" validate:"omitempty,uuid"`
	Priority    models.AnnouncementPriority `json:"priority" validate:"omitempty,priority"`
	TargetClass string                      `json:"targetClass"`
	IsGlobal    bool                        `json:"isGlobal"`
}

// SetupRoleRequest chooses the account role during onboarding.
type SetupRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=teacher student"`
	Name string          `json:"name" validate:"required,max=120"`
}

// ExtendedProfileRequest completes onboarding. DateOfBirth uses YYYY-MM-DD.
type ExtendedProfileRequest struct {
	RegistrationID string `json:"registrationId" validate:"required,max=64"`
	DateOfBirth    string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Gender         string `json:"gender" validate:"omitempty,oneof=male female other"`
	UserClass      string `json:"userClass" validate:"required,class_label"`
}

// StudentPatchRequest is the subset of a student profile a teacher may edit.
type StudentPatchRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=120"`
	UserClass      *string `json:"userClass" validate:"omitempty,class_label"`
	RegistrationID *string `json:"registrationId" validate:"omitempty,max=64"`
}

// AddCreditsRequest is the manual credit award payload.
type AddCreditsRequest struct {
	Amount int `json:"amount" validate:"required"`
}
