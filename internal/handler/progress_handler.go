package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/pkg/response"
)

type creditAwarder interface {
	AddCredits(ctx context.Context, actorID string, amount int) (*dto.CreditAwardResponse, error)
}

// ProgressHandler exposes the manual credit award.
type ProgressHandler struct {
	scoring creditAwarder
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(scoring creditAwarder) *ProgressHandler {
	return &ProgressHandler{scoring: scoring}
}

// AddCredits godoc
// @Summary Award credits to the calling student
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body dto.AddCreditsRequest true "Amount"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /progress/credits [post]
func (h *ProgressHandler) AddCredits(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.AddCreditsRequest
	if !bindJSON(c, &req, "credits") {
		return
	}
	res, err := h.scoring.AddCredits(c.Request.Context(), actorID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
