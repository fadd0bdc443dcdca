package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learn-coach-api/internal/dto"
	"github.com/noah-isme/learn-coach-api/internal/service"
	appErrors "github.com/noah-isme/learn-coach-api/pkg/errors"
	"github.com/noah-isme/learn-coach-api/pkg/response"
)

// SessionHandler exposes study-session and assessment endpoints.
type SessionHandler struct {
	coach *service.CoachService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(coach *service.CoachService) *SessionHandler {
	return &SessionHandler{coach: coach}
}

// Log godoc
// @Summary Log a study session
// @Description Record a session and run the full coaching workflow
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.LogSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Log(c *gin.Context) {
	var req dto.LogSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}

	res, err := h.coach.LogSession(c.Request.Context(), studentIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// List godoc
// @Summary List study sessions
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.coach.Sessions(c.Request.Context(), studentIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sessions, nil)
}

// LogAssessment godoc
// @Summary Log an assessment result
// @Description Record a quiz/exam result against a topic
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.LogAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assessments [post]
func (h *SessionHandler) LogAssessment(c *gin.Context) {
	var req dto.LogAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assessment payload"))
		return
	}

	res, err := h.coach.LogAssessment(c.Request.Context(), studentIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}
