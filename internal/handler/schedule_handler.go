package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learn-coach-api/internal/dto"
	"github.com/noah-isme/learn-coach-api/internal/service"
	appErrors "github.com/noah-isme/learn-coach-api/pkg/errors"
	"github.com/noah-isme/learn-coach-api/pkg/response"
)

// ScheduleHandler exposes schedule endpoints.
type ScheduleHandler struct {
	coach *service.CoachService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(coach *service.CoachService) *ScheduleHandler {
	return &ScheduleHandler{coach: coach}
}

// Current godoc
// @Summary Get the current schedule
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Current(c *gin.Context) {
	res, err := h.coach.Schedule(c.Request.Context(), studentIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// UpdatePreferences godoc
// @Summary Update schedule preferences
// @Description Save availability and rebuild the schedule
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.UpdatePreferencesRequest true "Preferences payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule/preferences [put]
func (h *ScheduleHandler) UpdatePreferences(c *gin.Context) {
	var req dto.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preferences payload"))
		return
	}

	res, err := h.coach.UpdatePreferences(c.Request.Context(), studentIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
