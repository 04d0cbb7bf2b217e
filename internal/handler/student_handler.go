package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
	"github.com/noah-isme/classquest-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, actorID string, filter models.StudentFilter) ([]models.User, *models.Pagination, error)
	UpdateProfile(ctx context.Context, actorID, studentID string, req dto.StudentPatchRequest) (*models.User, error)
	Delete(ctx context.Context, actorID, studentID string) error
}

// StudentHandler serves teacher-facing student administration.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(svc studentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param class query string false "Class label"
// @Param search query string false "Name or email fragment"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	filter := models.StudentFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     page,
		PageSize: size,
	}
	if raw := c.Query("class"); raw != "" {
		class, valid := models.ParseClassLabel(raw)
		if !valid {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown class label"))
			return
		}
		filter.Class = class
	}
	students, pagination, err := h.service.List(c.Request.Context(), actorID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Patch godoc
// @Summary Update a student's name, class or registration id
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.StudentPatchRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [patch]
func (h *StudentHandler) Patch(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.StudentPatchRequest
	if !bindJSON(c, &req, "student") {
		return
	}
	student, err := h.service.UpdateProfile(c.Request.Context(), actorID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// Delete godoc
// @Summary Delete a student and all progress
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actorID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
