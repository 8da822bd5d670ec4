package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/youthlaunch/microintern-api/internal/middleware"
	"github.com/youthlaunch/microintern-api/internal/models"
)

// claimsFromContext returns the authenticated caller's claims, or nil for
// anonymous requests on OptionalJWT routes.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}
