package http

import (
	"net/http"
	"strconv"

	catalogservice "github.com/idlecampus/progress-engine/internal/modules/catalog/service"
	"github.com/idlecampus/progress-engine/internal/modules/progress/dto"
	progressservice "github.com/idlecampus/progress-engine/internal/modules/progress/service"
	"github.com/gin-gonic/gin"
	"github.com/idlecampus/progress-engine/pkg/apperror"
	"github.com/idlecampus/progress-engine/pkg/response"
	"github.com/idlecampus/progress-engine/pkg/validator"
)

type ProgressHandler struct {
	service progressservice.Service
	catalog catalogservice.Service
}

func NewProgressHandler(service progressservice.Service, catalog catalogservice.Service) *ProgressHandler {
	return &ProgressHandler{service: service, catalog: catalog}
}

// CompleteLevel accepts the challenge by id or slug.
func (h *ProgressHandler) CompleteLevel(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	challenge, err := h.catalog.GetChallenge(c.Request.Context(), c.Param("challenge_id"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	levelNumber, err := strconv.Atoi(c.Param("level"))
	if err != nil || levelNumber < 1 {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	var req dto.CompleteLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.service.CompleteLevel(c.Request.Context(), userID, challenge.ID, levelNumber, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *ProgressHandler) GetMyProgress(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	progress, err := h.service.GetUserProgress(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": progress})
}
