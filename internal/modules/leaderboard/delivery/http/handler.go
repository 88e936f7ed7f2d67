package http

import (
	"net/http"
	"strconv"

	leaderboardservice "github.com/idlecampus/progress-engine/internal/modules/leaderboard/service"
	"github.com/gin-gonic/gin"
	"github.com/idlecampus/progress-engine/pkg/response"
)

type LeaderboardHandler struct {
	service leaderboardservice.Service
}

func NewLeaderboardHandler(service leaderboardservice.Service) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	period := c.DefaultQuery("period", "all")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	leaderboard, err := h.service.GetLeaderboard(c.Request.Context(), period, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": leaderboard})
}

func (h *LeaderboardHandler) GetMyRank(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	period := c.DefaultQuery("period", "all")
	rank, err := h.service.GetUserRank(c.Request.Context(), userID, period)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rank})
}
