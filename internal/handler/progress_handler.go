package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learn-coach-api/internal/service"
	"github.com/noah-isme/learn-coach-api/pkg/response"
)

// ProgressHandler exposes ledger endpoints.
type ProgressHandler struct {
	coach *service.CoachService
}

// NewProgressHandler constructs handler.
func NewProgressHandler(coach *service.CoachService) *ProgressHandler {
	return &ProgressHandler{coach: coach}
}

// View godoc
// @Summary Get progress for all topics
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /progress [get]
func (h *ProgressHandler) View(c *gin.Context) {
	res, err := h.coach.Progress(c.Request.Context(), studentIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Complete godoc
// @Summary Mark a topic completed
// @Description Manual override: completes a topic regardless of evidence
// @Tags Progress
// @Produce json
// @Param topicId path string true "Topic ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /progress/{topicId}/complete [post]
func (h *ProgressHandler) Complete(c *gin.Context) {
	record, err := h.coach.ManualComplete(c.Request.Context(), studentIDFromContext(c), c.Param("topicId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}

// Reset godoc
// @Summary Reset a topic to not started
// @Description Manual override: discards prior evidence for the topic
// @Tags Progress
// @Produce json
// @Param topicId path string true "Topic ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /progress/{topicId}/reset [post]
func (h *ProgressHandler) Reset(c *gin.Context) {
	record, err := h.coach.ManualReset(c.Request.Context(), studentIDFromContext(c), c.Param("topicId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}
