package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learn-coach-api/internal/service"
	"github.com/noah-isme/learn-coach-api/pkg/response"
)

// RecommendationHandler exposes the adaptive recommendation endpoint.
type RecommendationHandler struct {
	coach *service.CoachService
}

// NewRecommendationHandler constructs handler.
func NewRecommendationHandler(coach *service.CoachService) *RecommendationHandler {
	return &RecommendationHandler{coach: coach}
}

// Get godoc
// @Summary Get study recommendations
// @Description Derive next topics and pacing; ai=true adds an advisory rationale
// @Tags Recommendations
// @Produce json
// @Param ai query bool false "Request AI rationale"
// @Success 200 {object} response.Envelope
// @Router /recommendations [get]
func (h *RecommendationHandler) Get(c *gin.Context) {
	useAI, _ := strconv.ParseBool(c.Query("ai"))
	res, err := h.coach.Recommendations(c.Request.Context(), studentIDFromContext(c), useAI)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
