package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learn-coach-api/internal/middleware"
	"github.com/noah-isme/learn-coach-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextStudentKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// studentIDFromContext returns the authenticated student's ID, or "" when the
// request carries no valid claims.
func studentIDFromContext(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	return claims.StudentID
}
