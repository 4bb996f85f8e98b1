package handlers

import (
	"errors"
	"net/http"

	"github.com/Solomon-TC/The-Habit-Hero/internal/api/middleware"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/goals"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/habits"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/progression"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// boundModel returns the body the validation middleware stored, or binds it directly.
func boundModel[T any](c *gin.Context) (*T, bool) {
	if validated, exists := c.Get("validated_model"); exists {
		if req, ok := validated.(*T); ok {
			return req, true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid model type from validation"})
		return nil, false
	}

	req := new(T)
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return req, true
}

// boundQuery mirrors boundModel for query strings.
func boundQuery[T any](c *gin.Context) (*T, bool) {
	if validated, exists := c.Get("validated_query"); exists {
		if q, ok := validated.(*T); ok {
			return q, true
		}
	}
	q := new(T)
	if err := c.ShouldBindQuery(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return nil, false
	}
	return q, true
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return uuid.Nil, false
	}
	return userID, true
}

func pathID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + label + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, habits.ErrHabitNotFound),
		errors.Is(err, goals.ErrGoalNotFound),
		errors.Is(err, goals.ErrMilestoneNotFound):
		return http.StatusNotFound
	case errors.Is(err, habits.ErrAlreadyCompleted):
		return http.StatusConflict
	case errors.Is(err, habits.ErrInvalidInput),
		errors.Is(err, goals.ErrInvalidInput),
		errors.Is(err, progression.ErrInvalidAmount),
		errors.Is(err, progression.ErrInvalidSource):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps domain errors to status codes. Internal details stay in the log.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed",
			zap.Error(err),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
