package http

import (
	"net/http"

	achievementservice "github.com/idlecampus/progress-engine/internal/modules/achievement/service"
	"github.com/gin-gonic/gin"
	"github.com/idlecampus/progress-engine/pkg/response"
)

type AchievementHandler struct {
	service achievementservice.Service
}

func NewAchievementHandler(service achievementservice.Service) *AchievementHandler {
	return &AchievementHandler{service: service}
}

func (h *AchievementHandler) ListCatalog(c *gin.Context) {
	achievements, err := h.service.ListCatalog(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": achievements})
}

func (h *AchievementHandler) ListMine(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	unlocked, err := h.service.ListUserAchievements(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": unlocked})
}
