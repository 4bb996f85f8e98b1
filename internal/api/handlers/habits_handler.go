package handlers

import (
	"net/http"

	"github.com/Solomon-TC/The-Habit-Hero/internal/api/dto"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/habits"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HabitsHandler handles HTTP requests for habits operations
type HabitsHandler struct {
	service habits.Service
	log     *zap.Logger
}

// NewHabitsHandler creates a new HabitsHandler instance
func NewHabitsHandler(service habits.Service, log *zap.Logger) *HabitsHandler {
	return &HabitsHandler{service: service, log: log}
}

// CreateHabit godoc
// @Summary Create a new habit
// @Tags habits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param habit body dto.CreateHabitRequest true "Habit creation request"
// @Success 201 {object} habits.Habit
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/habits [post]
func (h *HabitsHandler) CreateHabit(c *gin.Context) {
	req, ok := boundModel[dto.CreateHabitRequest](c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	habit, err := h.service.CreateHabit(c.Request.Context(), req.ToInput(userID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": habit})
}

// GetHabit godoc
// @Summary Get a habit by ID
// @Tags habits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID" format(uuid)
// @Success 200 {object} habits.Habit
// @Failure 404 {object} map[string]string "Habit not found"
// @Router /api/habits/{id} [get]
func (h *HabitsHandler) GetHabit(c *gin.Context) {
	id, ok := pathID(c, "id", "habit")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	habit, err := h.service.GetHabit(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": habit})
}

// ListHabits godoc
// @Summary List the caller's habits with streak and today's status
// @Tags habits
// @Produce json
// @Security BearerAuth
// @Success 200 {array} habits.HabitSummary
// @Router /api/habits [get]
func (h *HabitsHandler) ListHabits(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	summaries, err := h.service.ListHabits(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

// UpdateHabit godoc
// @Summary Update a habit
// @Tags habits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID" format(uuid)
// @Param habit body dto.UpdateHabitRequest true "Fields to change"
// @Success 200 {object} habits.Habit
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Habit not found"
// @Router /api/habits/{id} [put]
func (h *HabitsHandler) UpdateHabit(c *gin.Context) {
	id, ok := pathID(c, "id", "habit")
	if !ok {
		return
	}
	req, ok := boundModel[dto.UpdateHabitRequest](c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	habit, err := h.service.UpdateHabit(c.Request.Context(), id, userID, req.ToInput())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": habit})
}

// DeleteHabit godoc
// @Summary Delete a habit with its completions and streak
// @Tags habits
// @Security BearerAuth
// @Param id path string true "Habit ID" format(uuid)
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Habit not found"
// @Router /api/habits/{id} [delete]
func (h *HabitsHandler) DeleteHabit(c *gin.Context) {
	id, ok := pathID(c, "id", "habit")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.DeleteHabit(c.Request.Context(), id, userID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CheckIn godoc
// @Summary Mark a habit complete for a day
// @Description Records the completion, recomputes the streak and awards XP.
// @Tags habits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID" format(uuid)
// @Param checkin body dto.CheckInRequest false "Optional date and notes"
// @Success 201 {object} dto.CheckInResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Habit not found"
// @Failure 409 {object} map[string]string "Already completed for this date"
// @Router /api/habits/{id}/check-in [post]
func (h *HabitsHandler) CheckIn(c *gin.Context) {
	id, ok := pathID(c, "id", "habit")
	if !ok {
		return
	}
	req, ok := boundModel[dto.CheckInRequest](c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	input, err := req.ToInput(id, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be in YYYY-MM-DD format"})
		return
	}

	result, err := h.service.CheckIn(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": dto.CheckInToResponse(result)})
}

// ListCompletions godoc
// @Summary List a habit's completions, newest first
// @Tags habits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID" format(uuid)
// @Success 200 {array} habits.Completion
// @Router /api/habits/{id}/completions [get]
func (h *HabitsHandler) ListCompletions(c *gin.Context) {
	id, ok := pathID(c, "id", "habit")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	completions, err := h.service.ListCompletions(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": completions})
}

// GetHabitStats godoc
// @Summary Streak and completion-rate statistics for a habit
// @Tags habits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID" format(uuid)
// @Success 200 {object} habits.HabitStats
// @Router /api/habits/{id}/stats [get]
func (h *HabitsHandler) GetHabitStats(c *gin.Context) {
	id, ok := pathID(c, "id", "habit")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.service.GetHabitStats(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// ListActivity godoc
// @Summary Paged activity log of a habit
// @Tags habits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID" format(uuid)
// @Param page query int false "Page number (0-based)"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.HabitActivityListResponse
// @Router /api/habits/{id}/activity [get]
func (h *HabitsHandler) ListActivity(c *gin.Context) {
	id, ok := pathID(c, "id", "habit")
	if !ok {
		return
	}
	query, ok := boundQuery[dto.HabitActivityQuery](c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	pageSize := query.PageSize
	if pageSize == 0 {
		pageSize = 20
	}

	activity, total, err := h.service.ListActivity(c.Request.Context(), id, userID, query.Page, pageSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.HabitActivityListResponse{
		Activity:   activity,
		TotalCount: total,
		Page:       query.Page,
		PageSize:   pageSize,
	}})
}
