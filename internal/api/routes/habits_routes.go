package routes

import (
	"github.com/Solomon-TC/The-Habit-Hero/internal/api/dto"
	"github.com/Solomon-TC/The-Habit-Hero/internal/api/handlers"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

type HabitsRoutes struct {
	handler *handlers.HabitsHandler
	guards  Guards
}

func NewHabitsRoutes(handler *handlers.HabitsHandler, guards Guards) *HabitsRoutes {
	return &HabitsRoutes{handler: handler, guards: guards}
}

// RegisterRoutes registers all habit-related routes
func (h *HabitsRoutes) RegisterRoutes(router *gin.Engine) {
	validation := h.guards.Validation
	cache := h.guards.Cache

	habits := router.Group("/api/habits")
	h.guards.apply(habits)

	habits.GET("", cache.CacheResponse(), gzip.Gzip(gzip.DefaultCompression), h.handler.ListHabits)
	habits.POST("", validation.ValidateRequest(&dto.CreateHabitRequest{}), h.handler.CreateHabit)

	habits.GET("/:id", cache.CacheResponse(), h.handler.GetHabit)
	habits.PUT("/:id", validation.ValidateRequest(&dto.UpdateHabitRequest{}), h.handler.UpdateHabit)
	habits.DELETE("/:id", h.handler.DeleteHabit)

	habits.POST("/:id/check-in", validation.ValidateRequest(&dto.CheckInRequest{}), h.handler.CheckIn)
	habits.GET("/:id/completions", cache.CacheResponse(), gzip.Gzip(gzip.DefaultCompression), h.handler.ListCompletions)
	habits.GET("/:id/stats", cache.CacheResponse(), h.handler.GetHabitStats)
	habits.GET("/:id/activity", validation.ValidateQuery(&dto.HabitActivityQuery{}), h.handler.ListActivity)
}
