package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learn-coach-api/internal/dto"
	"github.com/noah-isme/learn-coach-api/internal/service"
	appErrors "github.com/noah-isme/learn-coach-api/pkg/errors"
	"github.com/noah-isme/learn-coach-api/pkg/response"
)

// PathHandler exposes learning-path endpoints.
type PathHandler struct {
	coach *service.CoachService
}

// NewPathHandler constructs handler.
func NewPathHandler(coach *service.CoachService) *PathHandler {
	return &PathHandler{coach: coach}
}

// Create godoc
// @Summary Create learning path
// @Description Generate a fresh learning path for the student's goal
// @Tags Paths
// @Accept json
// @Produce json
// @Param payload body dto.CreatePathRequest true "Path payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /paths [post]
func (h *PathHandler) Create(c *gin.Context) {
	var req dto.CreatePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid path payload"))
		return
	}

	res, err := h.coach.CreatePath(c.Request.Context(), studentIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// Regenerate godoc
// @Summary Regenerate learning path
// @Description Replace the active path, carrying progress over by topic name
// @Tags Paths
// @Accept json
// @Produce json
// @Param payload body dto.CreatePathRequest true "Path payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /paths/regenerate [post]
func (h *PathHandler) Regenerate(c *gin.Context) {
	var req dto.CreatePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid path payload"))
		return
	}

	res, err := h.coach.RegeneratePath(c.Request.Context(), studentIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Active godoc
// @Summary Get active learning path
// @Tags Paths
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /paths [get]
func (h *PathHandler) Active(c *gin.Context) {
	res, err := h.coach.ActivePath(c.Request.Context(), studentIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
