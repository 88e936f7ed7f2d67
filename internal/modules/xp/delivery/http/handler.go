package http

import (
	"net/http"
	"strconv"

	streakservice "github.com/idlecampus/progress-engine/internal/modules/streak/service"
	xpservice "github.com/idlecampus/progress-engine/internal/modules/xp/service"
	"github.com/gin-gonic/gin"
	"github.com/idlecampus/progress-engine/pkg/response"
)

type XPHandler struct {
	xpService     xpservice.Service
	streakService streakservice.Service
}

func NewXPHandler(xpService xpservice.Service, streakService streakservice.Service) *XPHandler {
	return &XPHandler{xpService: xpService, streakService: streakService}
}

func (h *XPHandler) GetLevel(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	status, err := h.xpService.GetUserLevel(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (h *XPHandler) GetStreak(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	streak, err := h.streakService.GetStreak(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": streak})
}

func (h *XPHandler) GetHistory(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	history, err := h.xpService.GetHistory(c.Request.Context(), userID, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": history})
}
