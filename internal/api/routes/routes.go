package routes

import (
	"github.com/Solomon-TC/The-Habit-Hero/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

// Guards bundles the middleware shared by every authenticated route group.
type Guards struct {
	Auth       gin.HandlerFunc
	RateLimit  gin.HandlerFunc
	Cache      *middleware.CacheMiddleware
	Validation *middleware.ValidationMiddleware
}

func (g Guards) apply(group *gin.RouterGroup) {
	group.Use(g.Auth)
	if g.RateLimit != nil {
		group.Use(g.RateLimit)
	}
	// Writes clear the caller's cached reads.
	group.Use(g.Cache.CacheInvalidate())
}
