package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/studyboost/tutor-market-api/internal/middleware"
	"github.com/studyboost/tutor-market-api/internal/models"
)

// claimsFromContext pulls the verified token claims the JWT middleware
// stored, or nil when the request is unauthenticated.
func claimsFromContext(c *gin.Context) *models.TokenClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}

	claims, ok := value.(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
