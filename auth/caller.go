package auth

import "github.com/gin-gonic/gin"

// Context keys set by middleware.ValidateToken.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// CallerID returns the authenticated user id, or "" when there is none.
func CallerID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(ContextRole) == RoleAdmin
}
