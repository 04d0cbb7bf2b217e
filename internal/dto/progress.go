package dto

import "time"

// CompletionStatus reports the outcome of a chapter completion request.
type CompletionStatus string

const (
	CompletionStatusCompleted        CompletionStatus = "completed"
	CompletionStatusAlreadyCompleted CompletionStatus = "already_completed"
)

// ChapterCompletionResponse is returned by the complete-chapter endpoint.
type ChapterCompletionResponse struct {
	Status    CompletionStatus `json:"status"`
	ChapterID string           `json:"chapterId"`
	CourseID  string           `json:"courseId"`
	Credits   int              `json:"credits"`
	Rank      string           `json:"rank"`
	Progress  *int             `json:"progress,omitempty"`
}

// TestSubmissionResponse is returned after scoring a test submission.
type TestSubmissionResponse struct {
	ResultID      string `json:"resultId"`
	Score         int    `json:"score"`
	TotalPoints   int    `json:"totalPoints"`
	CorrectCount  int    `json:"correctCount"`
	CreditsEarned int    `json:"creditsEarned"`
	Credits       int    `json:"credits"`
	Rank          string `json:"rank"`
}

// CreditAwardResponse is returned by the manual credit award path.
type CreditAwardResponse struct {
	Credits             int    `json:"credits"`
	TotalTestsCompleted int    `json:"totalTestsCompleted"`
	Rank                string `json:"rank"`
}

// ReconcileReport summarises a reconciliation run.
type ReconcileReport struct {
	StudentsRanked     int           `json:"studentsRanked"`
	EnrollmentsUpdated int           `json:"enrollmentsUpdated"`
	CoursesUpdated     int           `json:"coursesUpdated"`
	TeachersUpdated    int           `json:"teachersUpdated"`
	Duration           time.Duration `json:"duration"`
}
