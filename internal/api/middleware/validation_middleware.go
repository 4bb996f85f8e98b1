package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/goals"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/habits"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Layouts accepted by the datetime tags on request bodies.
const (
	ClockTimeLayout = "15:04"
	DateLayout      = "2006-01-02"
)

// ValidationMiddleware handles request validation
type ValidationMiddleware struct {
	validator *validator.Validate
	log       *zap.Logger
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(log *zap.Logger) *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: NewValidator(),
		log:       log,
	}
}

// NewValidator returns a validator with the habit tracker's custom tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("not_empty", validateNotEmpty)
	v.RegisterValidation("frequency", validateFrequency)
	v.RegisterValidation("goal_status", validateGoalStatus)
	return v
}

// ValidateRequest validates the request body against the provided struct
func (m *ValidationMiddleware) ValidateRequest(model interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		modelType := reflect.TypeOf(model)
		if modelType.Kind() == reflect.Ptr {
			modelType = modelType.Elem()
		}
		modelValue := reflect.New(modelType).Interface()

		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
		}

		m.log.Debug("Request details",
			zap.String("path", c.Request.URL.Path),
			zap.String("content_type", c.GetHeader("Content-Type")),
			zap.Int64("content_length", c.Request.ContentLength),
			zap.String("body", string(bodyBytes)))

		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		// Check-in bodies are optional.
		if len(bytes.TrimSpace(bodyBytes)) > 0 {
			if err := json.Unmarshal(bodyBytes, modelValue); err != nil {
				m.log.Warn("JSON unmarshal failed", zap.Error(err))
				c.JSON(http.StatusBadRequest, gin.H{
					"error": fmt.Sprintf("Invalid JSON format: %v", err.Error()),
				})
				c.Abort()
				return
			}
		}

		if !m.validate(c, modelValue) {
			return
		}

		c.Set("validated_model", modelValue)
		c.Next()
	}
}

// ValidateQuery validates query parameters against the provided struct
func (m *ValidationMiddleware) ValidateQuery(model interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		modelType := reflect.TypeOf(model)
		if modelType.Kind() == reflect.Ptr {
			modelType = modelType.Elem()
		}
		modelValue := reflect.New(modelType).Interface()

		if err := c.ShouldBindQuery(modelValue); err != nil {
			m.log.Warn("Failed to bind query parameters",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid query parameters",
			})
			c.Abort()
			return
		}

		if !m.validate(c, modelValue) {
			return
		}

		c.Set("validated_query", modelValue)
		c.Next()
	}
}

func (m *ValidationMiddleware) validate(c *gin.Context, modelValue interface{}) bool {
	err := m.validator.Struct(modelValue)
	if err == nil {
		return true
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return false
	}

	details := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		details[strings.ToLower(fe.Field())] = formatValidationError(fe)
	}

	m.log.Warn("Validation failed",
		zap.Any("errors", details),
		zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation failed",
		"details": details,
	})
	c.Abort()
	return false
}

func validateNotEmpty(fl validator.FieldLevel) bool {
	return len(strings.TrimSpace(fl.Field().String())) > 0
}

func validateFrequency(fl validator.FieldLevel) bool {
	return habits.Frequency(fl.Field().String()).Valid()
}

func validateGoalStatus(fl validator.FieldLevel) bool {
	return goals.Status(fl.Field().String()).Valid()
}

func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "value is too short"
	case "max":
		return "value is too long"
	case "not_empty":
		return "this field cannot be empty"
	case "frequency":
		return "must be one of daily, weekdays, weekends, weekly"
	case "goal_status":
		return "must be one of not_started, in_progress, completed"
	case "datetime":
		switch err.Param() {
		case ClockTimeLayout:
			return "must be a time in HH:MM format"
		case DateLayout:
			return "must be a date in YYYY-MM-DD format"
		}
		return "must match " + err.Param()
	case "uuid":
		return "invalid UUID format"
	default:
		return "invalid value"
	}
}
