package handlers

import (
	"net/http"

	"github.com/Solomon-TC/The-Habit-Hero/internal/api/dto"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/progression"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProgressionHandler struct {
	service progression.Service
	log     *zap.Logger
}

func NewProgressionHandler(service progression.Service, log *zap.Logger) *ProgressionHandler {
	return &ProgressionHandler{service: service, log: log}
}

// GetUserLevel godoc
// @Summary Current level and progress toward the next one
// @Tags progression
// @Produce json
// @Security BearerAuth
// @Success 200 {object} progression.LevelSummary
// @Router /api/progression/level [get]
func (h *ProgressionHandler) GetUserLevel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.service.GetUserLevel(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// ListHistory godoc
// @Summary XP ledger entries, newest first
// @Tags progression
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max entries (default 50)"
// @Success 200 {object} dto.XPHistoryResponse
// @Router /api/progression/history [get]
func (h *ProgressionHandler) ListHistory(c *gin.Context) {
	query, ok := boundQuery[dto.XPHistoryQuery](c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	entries, err := h.service.ListHistory(c.Request.Context(), userID, query.Limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.XPHistoryResponse{
		Entries: entries,
		Count:   len(entries),
	}})
}

// LevelTable godoc
// @Summary XP thresholds of the first n levels
// @Tags progression
// @Produce json
// @Param levels query int false "Number of levels (default 20, max 100)"
// @Success 200 {object} dto.LevelTableResponse
// @Router /api/progression/levels [get]
func (h *ProgressionHandler) LevelTable(c *gin.Context) {
	query, ok := boundQuery[dto.LevelTableQuery](c)
	if !ok {
		return
	}

	n := query.Levels
	if n <= 0 {
		n = dto.DefaultLevelTableSize
	}
	if n > dto.MaxLevelTableSize {
		n = dto.MaxLevelTableSize
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.LevelTableResponse{
		Levels: progression.LevelTable(n),
	}})
}
