package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	"github.com/noah-isme/classquest-api/pkg/response"
)

type chapterService interface {
	List(ctx context.Context, actorID, courseID string) ([]models.Chapter, error)
	Create(ctx context.Context, actorID, courseID string, req dto.ChapterRequest) (*models.Chapter, error)
	Update(ctx context.Context, actorID, chapterID string, req dto.ChapterRequest) (*models.Chapter, error)
	SetOrder(ctx context.Context, actorID, chapterID string, req dto.ChapterOrderRequest) (*models.Chapter, error)
	Delete(ctx context.Context, actorID, chapterID string) error
}

type chapterCompleter interface {
	CompleteChapter(ctx context.Context, actorID, chapterID string) (*dto.ChapterCompletionResponse, error)
}

// ChapterHandler manages chapter endpoints, including completion.
type ChapterHandler struct {
	service chapterService
	scoring chapterCompleter
}

// NewChapterHandler constructs the handler.
func NewChapterHandler(svc chapterService, scoring chapterCompleter) *ChapterHandler {
	return &ChapterHandler{service: svc, scoring: scoring}
}

// List godoc
// @Summary List chapters of a course
// @Tags Chapters
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/chapters [get]
func (h *ChapterHandler) List(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	chapters, err := h.service.List(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, chapters)
}

// Create godoc
// @Summary Add a chapter to a course
// @Tags Chapters
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.ChapterRequest true "Chapter payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id}/chapters [post]
func (h *ChapterHandler) Create(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ChapterRequest
	if !bindJSON(c, &req, "chapter") {
		return
	}
	chapter, err := h.service.Create(c.Request.Context(), actorID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, chapter)
}

// Update godoc
// @Summary Update chapter
// @Tags Chapters
// @Accept json
// @Produce json
// @Param id path string true "Chapter ID"
// @Param payload body dto.ChapterRequest true "Chapter payload"
// @Success 200 {object} response.Envelope
// @Router /chapters/{id} [put]
func (h *ChapterHandler) Update(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ChapterRequest
	if !bindJSON(c, &req, "chapter") {
		return
	}
	chapter, err := h.service.Update(c.Request.Context(), actorID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, chapter)
}

// SetOrder godoc
// @Summary Set chapter order value
// @Tags Chapters
// @Accept json
// @Produce json
// @Param id path string true "Chapter ID"
// @Param payload body dto.ChapterOrderRequest true "Order payload"
// @Success 200 {object} response.Envelope
// @Router /chapters/{id}/order [put]
func (h *ChapterHandler) SetOrder(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ChapterOrderRequest
	if !bindJSON(c, &req, "order") {
		return
	}
	chapter, err := h.service.SetOrder(c.Request.Context(), actorID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, chapter)
}

// Delete godoc
// @Summary Delete chapter
// @Tags Chapters
// @Param id path string true "Chapter ID"
// @Success 204
// @Router /chapters/{id} [delete]
func (h *ChapterHandler) Delete(c *gin.Context) {
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

// Complete godoc
// @Summary Mark a chapter completed
// @Description Awards credits once. Repeats answer with status already_completed.
// @Tags Chapters
// @Produce json
// @Param id path string true "Chapter ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /chapters/{id}/complete [post]
func (h *ChapterHandler) Complete(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	res, err := h.scoring.CompleteChapter(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
