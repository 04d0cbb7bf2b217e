package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	"github.com/noah-isme/classquest-api/pkg/response"
)

type profileService interface {
	Me(ctx context.Context, actorID string) (*models.User, error)
	SetupRole(ctx context.Context, actorID string, req dto.SetupRoleRequest) (*models.User, error)
	SetupExtendedProfile(ctx context.Context, actorID string, req dto.ExtendedProfileRequest) (*models.User, error)
}

// ProfileHandler serves onboarding and the caller's own profile.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Me godoc
// @Summary Current user profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Me(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	user, err := h.service.Me(c.Request.Context(), actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// SetupRole godoc
// @Summary Choose account role
// @Description One-time onboarding step. A second call fails with 412.
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body dto.SetupRoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /profile/role [post]
func (h *ProfileHandler) SetupRole(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.SetupRoleRequest
	if !bindJSON(c, &req, "role") {
		return
	}
	user, err := h.service.SetupRole(c.Request.Context(), actorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// SetupExtendedProfile godoc
// @Summary Complete onboarding profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body dto.ExtendedProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /profile/extended [post]
func (h *ProfileHandler) SetupExtendedProfile(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ExtendedProfileRequest
	if !bindJSON(c, &req, "profile") {
		return
	}
	user, err := h.service.SetupExtendedProfile(c.Request.Context(), actorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}
