package middleware

import (
	"strings"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ValidateToken resolves the caller from the bearer token and stores user id
// and role in the context. Requests without a valid token never reach the
// handler.
func ValidateToken(secret string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			apperr.Respond(c, log, "auth.validate", apperr.Unauthenticated())
			return
		}

		claims, err := auth.ParseToken(secret, tokenString)
		if err != nil {
			e := apperr.Unauthenticated()
			e.Message = "invalid or expired token"
			apperr.Respond(c, log, "auth.validate", e)
			return
		}

		c.Set(auth.ContextUserID, claims.UserID)
		c.Set(auth.ContextRole, claims.Role)
		c.Next()
	}
}

// bearerToken reads "Authorization: Bearer <t>", a raw Authorization value,
// or the access_token query parameter used by websocket clients.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return header
	}
	return c.Query("access_token")
}
