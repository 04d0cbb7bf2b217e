package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classquest-api/internal/middleware"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
	"github.com/noah-isme/classquest-api/pkg/response"
)

const defaultPageSize = 20

// requireActor returns the authenticated user id, writing a 401 when absent.
func requireActor(c *gin.Context) (string, bool) {
	actorID := middleware.ActorID(c)
	if actorID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return actorID, true
}

// bindJSON decodes the body into dst, writing a 400 on malformed input.
func bindJSON(c *gin.Context, dst interface{}, what string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+what+" payload"))
		return false
	}
	return true
}

// pageParams reads page/limit query values, falling back to 1 and defaultPageSize.
func pageParams(c *gin.Context) (int, int) {
	page := 1
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	size := defaultPageSize
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		size = v
	}
	return page, size
}

// questionIndex parses the :index path segment.
func questionIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(strings.TrimSpace(c.Param("index")))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "question index must be an integer"))
		return 0, false
	}
	return index, true
}
