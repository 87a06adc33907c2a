package middleware

import (
	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireAdmin must run after ValidateToken.
func RequireAdmin(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.CallerID(c) == "" {
			apperr.Respond(c, log, "auth.admin", apperr.Unauthenticated())
			return
		}
		if !auth.IsAdmin(c) {
			apperr.Respond(c, log, "auth.admin", apperr.Forbidden("admin access required"))
			return
		}
		c.Next()
	}
}
