package http

import (
	"net/http"

	skillservice "github.com/idlecampus/progress-engine/internal/modules/skill/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/pkg/apperror"
	"github.com/idlecampus/progress-engine/pkg/response"
)

type SkillHandler struct {
	service skillservice.Service
}

func NewSkillHandler(service skillservice.Service) *SkillHandler {
	return &SkillHandler{service: service}
}

func (h *SkillHandler) ListSkills(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	skills, available, err := h.service.ListSkills(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"skills":           skills,
		"points_available": available,
	}})
}

func (h *SkillHandler) AllocatePoint(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	skillID, err := uuid.Parse(c.Param("skill_id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	result, err := h.service.AllocatePoint(c.Request.Context(), userID, skillID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
