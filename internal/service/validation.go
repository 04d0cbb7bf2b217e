package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

// NewValidator returns a validator with the class_label and priority tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("class_label", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseClassLabel(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return models.AnnouncementPriority(fl.Field().String()).Valid()
	})
	return v
}

// ValidateQuestions checks a question set. Messages use 1-based question numbers.
func ValidateQuestions(questions []models.Question) error {
	if len(questions) > models.MaxQuestionsPerTest {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("a test can have at most %d questions", models.MaxQuestionsPerTest))
	}
	for i, q := range questions {
		if err := validateQuestion(i, q); err != nil {
			return err
		}
	}
	return nil
}

func validateQuestion(index int, q models.Question) error {
	n := index + 1
	if q.Text == "" {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d: text is required", n))
	}
	if len(q.Options) != models.OptionsPerQuestion {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d: must have exactly %d options", n, models.OptionsPerQuestion))
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= models.OptionsPerQuestion {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d: correct answer must be between 0 and %d", n, models.OptionsPerQuestion-1))
	}
	if q.Points <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d: points must be greater than 0", n))
	}
	return nil
}
