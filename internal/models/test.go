package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// MaxQuestionsPerTest caps the size of a question set.
const MaxQuestionsPerTest = 10

// OptionsPerQuestion is the exact number of options every question carries.
const OptionsPerQuestion = 4

// Question is a single multiple-choice item.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Points        int      `json:"points"`
}

// Questions is persisted as a JSONB column.
type Questions []Question

// TotalPoints sums the points of every question.
func (q Questions) TotalPoints() int {
	total := 0
	for _, question := range q {
		total += question.Points
	}
	return total
}

// Value marshals the question set to JSON for persistence.
func (q Questions) Value() (driver.Value, error) {
	if q == nil {
		q = Questions{}
	}
	data, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON payload into the question set.
func (q *Questions) Scan(value interface{}) error {
	if value == nil {
		*q = Questions{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Questions", value)
	}
	if len(data) == 0 {
		*q = Questions{}
		return nil
	}
	if err := json.Unmarshal(data, q); err != nil {
		return fmt.Errorf("unmarshal questions: %w", err)
	}
	return nil
}

// Test is a teacher-owned multiple-choice quiz tagged with the teacher's class.
type Test struct {
	ID              string     `db:"id" json:"id"`
	TeacherID       string     `db:"teacher_id" json:"teacherId"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	TargetClass     ClassLabel `db:"target_class" json:"targetClass"`
	IsPublished     bool       `db:"is_published" json:"isPublished"`
	DurationMinutes int        `db:"duration_minutes" json:"durationMinutes"`
	Questions       Questions  `db:"questions" json:"questions"`
	TotalPoints     int        `db:"total_points" json:"totalPoints"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// QuestionView is a question as served to clients. CorrectAnswer is only set for the owner.
type QuestionView struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	Points        int      `json:"points"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
}

// TestView is the API representation of a test.
type TestView struct {
	ID              string         `json:"id"`
	TeacherID       string         `json:"teacherId"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	TargetClass     ClassLabel     `json:"targetClass"`
	IsPublished     bool           `json:"isPublished"`
	DurationMinutes int            `json:"durationMinutes"`
	Questions       []QuestionView `json:"questions"`
	TotalPoints     int            `json:"totalPoints"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// View converts the test for output. Correct answers are dropped unless includeAnswers is set.
func (t *Test) View(includeAnswers bool) TestView {
	view := TestView{
		ID:              t.ID,
		TeacherID:       t.TeacherID,
		Title:           t.Title,
		Description:     t.Description,
		TargetClass:     t.TargetClass,
		IsPublished:     t.IsPublished,
		DurationMinutes: t.DurationMinutes,
		TotalPoints:     t.TotalPoints,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		Questions:       make([]QuestionView, 0, len(t.Questions)),
	}
	for _, q := range t.Questions {
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		qv := QuestionView{Text: q.Text, Options: options, Points: q.Points}
		if includeAnswers {
			answer := q.CorrectAnswer
			qv.CorrectAnswer = &answer
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

// TestResult records one submission of a test by a student.
type TestResult struct {
	ID            string        `db:"id" json:"id"`
	TestID        string        `db:"test_id" json:"testId"`
	StudentID     string        `db:"student_id" json:"studentId"`
	Score         int           `db:"score" json:"score"`
	TotalPoints   int           `db:"total_points" json:"totalPoints"`
	CorrectCount  int           `db:"correct_count" json:"correctCount"`
	CreditsEarned int           `db:"credits_earned" json:"creditsEarned"`
	Answers       pq.Int64Array `db:"answers" json:"answers"`
	SubmittedAt   time.Time     `db:"submitted_at" json:"submittedAt"`
}

// TestResultDetail enriches a result with the student's display data for exports.
type TestResultDetail struct {
	TestResult
	StudentName    string     `db:"student_name" json:"studentName"`
	StudentEmail   string     `db:"student_email" json:"studentEmail"`
	RegistrationID string     `db:"registration_id" json:"registrationId"`
	StudentClass   ClassLabel `db:"student_class" json:"studentClass"`
}

// TestFilter restricts test listings.
type TestFilter struct {
	TeacherID     string
	TargetClass   ClassLabel
	PublishedOnly bool
}
