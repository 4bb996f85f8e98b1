package routes

import (
	"github.com/Solomon-TC/The-Habit-Hero/internal/api/dto"
	"github.com/Solomon-TC/The-Habit-Hero/internal/api/handlers"
	"github.com/gin-gonic/gin"
)

type ProgressionRoutes struct {
	handler *handlers.ProgressionHandler
	guards  Guards
}

func NewProgressionRoutes(handler *handlers.ProgressionHandler, guards Guards) *ProgressionRoutes {
	return &ProgressionRoutes{handler: handler, guards: guards}
}

// RegisterRoutes registers level and XP ledger routes
func (p *ProgressionRoutes) RegisterRoutes(router *gin.Engine) {
	validation := p.guards.Validation

	// The level curve is public.
	router.GET("/api/progression/levels", validation.ValidateQuery(&dto.LevelTableQuery{}), p.handler.LevelTable)

	progression := router.Group("/api/progression")
	p.guards.apply(progression)

	progression.GET("/level", p.guards.Cache.CacheResponse(), p.handler.GetUserLevel)
	progression.GET("/history", validation.ValidateQuery(&dto.XPHistoryQuery{}), p.handler.ListHistory)
}
