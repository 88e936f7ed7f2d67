package http

import (
	"net/http"
	"strconv"

	catalogservice "github.com/idlecampus/progress-engine/internal/modules/catalog/service"
	"github.com/gin-gonic/gin"
	"github.com/idlecampus/progress-engine/pkg/response"
)

type CatalogHandler struct {
	service catalogservice.Service
}

func NewCatalogHandler(service catalogservice.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) ListChallenges(c *gin.Context) {
	challenges, err := h.service.ListChallenges(c.Request.Context(), c.Query("category"), c.Query("track"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": challenges})
}

func (h *CatalogHandler) SearchChallenges(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	challenges, err := h.service.SearchChallenges(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": challenges})
}

func (h *CatalogHandler) GetDailyChallenge(c *gin.Context) {
	daily, err := h.service.GetDailyChallenge(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if daily == nil {
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": daily})
}

func (h *CatalogHandler) GetChallenge(c *gin.Context) {
	challenge, err := h.service.GetChallenge(c.Request.Context(), c.Param("challenge_id"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": challenge})
}

func (h *CatalogHandler) CheckUnlocked(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	status, err := h.service.CheckUnlocked(c.Request.Context(), userID, c.Param("challenge_id"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}
