package handlers

import (
	"net/http"

	"github.com/Solomon-TC/The-Habit-Hero/internal/api/dto"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/goals"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const invalidDateMessage = "target_date must be in YYYY-MM-DD format"

// GoalsHandler serves goals and their milestones.
type GoalsHandler struct {
	service goals.Service
	log     *zap.Logger
}

func NewGoalsHandler(service goals.Service, log *zap.Logger) *GoalsHandler {
	return &GoalsHandler{service: service, log: log}
}

// CreateGoal godoc
// @Summary Create a goal
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param goal body dto.CreateGoalRequest true "Goal creation request"
// @Success 201 {object} goals.Goal
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/goals [post]
func (h *GoalsHandler) CreateGoal(c *gin.Context) {
	req, ok := boundModel[dto.CreateGoalRequest](c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	input, err := req.ToInput(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidDateMessage})
		return
	}

	goal, err := h.service.CreateGoal(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": goal})
}

// GetGoal godoc
// @Summary Get a goal with milestones and linked habits
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID" format(uuid)
// @Success 200 {object} goals.Goal
// @Failure 404 {object} map[string]string "Goal not found"
// @Router /api/goals/{id} [get]
func (h *GoalsHandler) GetGoal(c *gin.Context) {
	id, ok := pathID(c, "id", "goal")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	goal, err := h.service.GetGoal(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": goal})
}

// ListGoals godoc
// @Summary List the caller's goals
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} goals.Goal
// @Router /api/goals [get]
func (h *GoalsHandler) ListGoals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.service.ListGoals(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": list})
}

// UpdateGoal godoc
// @Summary Update a goal
// @Description Setting status to completed by hand awards no XP.
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID" format(uuid)
// @Param goal body dto.UpdateGoalRequest true "Fields to change"
// @Success 200 {object} goals.Goal
// @Router /api/goals/{id} [put]
func (h *GoalsHandler) UpdateGoal(c *gin.Context) {
	id, ok := pathID(c, "id", "goal")
	if !ok {
		return
	}
	req, ok := boundModel[dto.UpdateGoalRequest](c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidDateMessage})
		return
	}

	goal, err := h.service.UpdateGoal(c.Request.Context(), id, userID, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": goal})
}

// DeleteGoal godoc
// @Summary Delete a goal with its milestones
// @Tags goals
// @Security BearerAuth
// @Param id path string true "Goal ID" format(uuid)
// @Success 204 "No Content"
// @Router /api/goals/{id} [delete]
func (h *GoalsHandler) DeleteGoal(c *gin.Context) {
	id, ok := pathID(c, "id", "goal")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.DeleteGoal(c.Request.Context(), id, userID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateMilestone godoc
// @Summary Add a milestone to a goal
// @Tags milestones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID" format(uuid)
// @Param milestone body dto.CreateMilestoneRequest true "Milestone creation request"
// @Success 201 {object} goals.Milestone
// @Router /api/goals/{id}/milestones [post]
func (h *GoalsHandler) CreateMilestone(c *gin.Context) {
	goalID, ok := pathID(c, "id", "goal")
	if !ok {
		return
	}
	req, ok := boundModel[dto.CreateMilestoneRequest](c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	input, err := req.ToInput(goalID, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidDateMessage})
		return
	}

	milestone, err := h.service.CreateMilestone(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": milestone})
}

// UpdateMilestone godoc
// @Summary Edit or toggle a milestone
// @Description Completing a milestone awards its XP and may complete the goal.
// @Tags milestones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Milestone ID" format(uuid)
// @Param milestone body dto.UpdateMilestoneRequest true "Fields to change"
// @Success 200 {object} goals.MilestoneUpdateResult
// @Router /api/milestones/{id} [patch]
func (h *GoalsHandler) UpdateMilestone(c *gin.Context) {
	id, ok := pathID(c, "id", "milestone")
	if !ok {
		return
	}
	req, ok := boundModel[dto.UpdateMilestoneRequest](c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidDateMessage})
		return
	}

	result, err := h.service.UpdateMilestone(c.Request.Context(), id, userID, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// DeleteMilestone godoc
// @Summary Delete a milestone
// @Tags milestones
// @Security BearerAuth
// @Param id path string true "Milestone ID" format(uuid)
// @Success 204 "No Content"
// @Router /api/milestones/{id} [delete]
func (h *GoalsHandler) DeleteMilestone(c *gin.Context) {
	id, ok := pathID(c, "id", "milestone")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.DeleteMilestone(c.Request.Context(), id, userID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}
