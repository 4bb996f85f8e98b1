package routes

import (
	"github.com/Solomon-TC/The-Habit-Hero/internal/api/dto"
	"github.com/Solomon-TC/The-Habit-Hero/internal/api/handlers"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

type GoalsRoutes struct {
	handler *handlers.GoalsHandler
	guards  Guards
}

func NewGoalsRoutes(handler *handlers.GoalsHandler, guards Guards) *GoalsRoutes {
	return &GoalsRoutes{handler: handler, guards: guards}
}

// RegisterRoutes registers goal and milestone routes
func (g *GoalsRoutes) RegisterRoutes(router *gin.Engine) {
	validation := g.guards.Validation
	cache := g.guards.Cache

	goals := router.Group("/api/goals")
	g.guards.apply(goals)

	goals.GET("", cache.CacheResponse(), gzip.Gzip(gzip.DefaultCompression), g.handler.ListGoals)
	goals.POST("", validation.ValidateRequest(&dto.CreateGoalRequest{}), g.handler.CreateGoal)
	goals.GET("/:id", cache.CacheResponse(), g.handler.GetGoal)
	goals.PUT("/:id", validation.ValidateRequest(&dto.UpdateGoalRequest{}), g.handler.UpdateGoal)
	goals.DELETE("/:id", g.handler.DeleteGoal)
	goals.POST("/:id/milestones", validation.ValidateRequest(&dto.CreateMilestoneRequest{}), g.handler.CreateMilestone)

	milestones := router.Group("/api/milestones")
	g.guards.apply(milestones)

	milestones.PATCH("/:id", validation.ValidateRequest(&dto.UpdateMilestoneRequest{}), g.handler.UpdateMilestone)
	milestones.DELETE("/:id", g.handler.DeleteMilestone)
}
