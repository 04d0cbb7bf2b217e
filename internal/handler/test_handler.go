package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	"github.com/noah-isme/classquest-api/pkg/response"
)

type testService interface {
	List(ctx context.Context, actorID string) ([]models.TestView, error)
	Get(ctx context.Context, actorID, id string) (*models.TestView, error)
	Create(ctx context.Context, actorID string, req dto.TestRequest) (*models.TestView, error)
	Update(ctx context.Context, actorID, id string, req dto.TestRequest) (*models.TestView, error)
	UpdateQuestion(ctx context.Context, actorID, id string, index int, question models.Question) (*models.TestView, error)
	DeleteQuestion(ctx context.Context, actorID, id string, index int) (*models.TestView, error)
	Delete(ctx context.Context, actorID, id string) error
}

type testSubmitter interface {
	SubmitTest(ctx context.Context, actorID, testID string, answers []int) (*dto.TestSubmissionResponse, error)
}

// TestHandler manages tests, their questions and submissions.
type TestHandler struct {
	service testService
	scoring testSubmitter
}

// NewTestHandler constructs the handler.
func NewTestHandler(svc testService, scoring testSubmitter) *TestHandler {
	return &TestHandler{service: svc, scoring: scoring}
}

// List godoc
// @Summary List tests visible to the caller
// @Description Students never receive correct answers.
// @Tags Tests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tests [get]
func (h *TestHandler) List(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	tests, err := h.service.List(c.Request.Context(), actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tests)
}

// Get godoc
// @Summary Get test
// @Tags Tests
// @Produce json
// @Param id path string true "Test ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tests/{id} [get]
func (h *TestHandler) Get(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	test, err := h.service.Get(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, test)
}

// Create godoc
// @Summary Create test for the teacher's class
// @Tags Tests
// @Accept json
// @Produce json
// @Param payload body dto.TestRequest true "Test payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tests [post]
func (h *TestHandler) Create(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.TestRequest
	if !bindJSON(c, &req, "test") {
		return
	}
	test, err := h.service.Create(c.Request.Context(), actorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, test)
}

// Update godoc
// @Summary Replace test content
// @Tags Tests
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param payload body dto.TestRequest true "Test payload"
// @Success 200 {object} response.Envelope
// @Router /tests/{id} [put]
func (h *TestHandler) Update(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.TestRequest
	if !bindJSON(c, &req, "test") {
		return
	}
	test, err := h.service.Update(c.Request.Context(), actorID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, test)
}

// UpdateQuestion godoc
// @Summary Replace one question
// @Tags Tests
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param index path int true "0-based question index"
// @Param payload body models.Question true "Question"
// @Success 200 {object} response.Envelope
// @Router /tests/{id}/questions/{index} [put]
func (h *TestHandler) UpdateQuestion(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	index, ok := questionIndex(c)
	if !ok {
		return
	}
	var question models.Question
	if !bindJSON(c, &question, "question") {
		return
	}
	test, err := h.service.UpdateQuestion(c.Request.Context(), actorID, c.Param("id"), index, question)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, test)
}

// DeleteQuestion godoc
// @Summary Remove one question
// @Tags Tests
// @Produce json
// @Param id path string true "Test ID"
// @Param index path int true "0-based question index"
// @Success 200 {object} response.Envelope
// @Router /tests/{id}/questions/{index} [delete]
func (h *TestHandler) DeleteQuestion(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	index, ok := questionIndex(c)
	if !ok {
		return
	}
	test, err := h.service.DeleteQuestion(c.Request.Context(), actorID, c.Param("id"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, test)
}

// Delete godoc
// @Summary Delete test and its results
// @Tags Tests
// @Param id path string true "Test ID"
// @Success 204
// @Router /tests/{id} [delete]
func (h *TestHandler) Delete(c *gin.Context) {
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

// Submit godoc
// @Summary Submit answers for scoring
// @Tags Tests
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param payload body dto.SubmitTestRequest true "Answers"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /tests/{id}/submit [post]
func (h *TestHandler) Submit(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.SubmitTestRequest
	if !bindJSON(c, &req, "submission") {
		return
	}
	res, err := h.scoring.SubmitTest(c.Request.Context(), actorID, c.Param("id"), req.Answers)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}
