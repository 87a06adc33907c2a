package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PePeVeraz-ux/barcoda/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func router() *gin.Engine {
	log := zap.NewNop()
	r := gin.New()
	r.Use(RequestLogger(log))
	authed := r.Group("/", ValidateToken(secret, log))
	authed.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": auth.CallerID(c), "admin": auth.IsAdmin(c)})
	})
	authed.GET("/admin", RequireAdmin(log), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(t *testing.T, path, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router().ServeHTTP(w, req)
	return w
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.IssueToken(secret, "user-42", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestValidateToken(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, get(t, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, "/me", "Bearer garbage").Code)

	w := get(t, "/me", "Bearer "+token(t, auth.RoleCustomer))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-42"`)

	// Raw tokens without the scheme are accepted, as are websocket query tokens.
	assert.Equal(t, http.StatusOK, get(t, "/me", token(t, auth.RoleCustomer)).Code)
	assert.Equal(t, http.StatusOK, get(t, "/me?access_token="+token(t, auth.RoleCustomer), "").Code)
}

func TestRequireAdmin(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, get(t, "/admin", "Bearer "+token(t, auth.RoleCustomer)).Code)
	assert.Equal(t, http.StatusNoContent, get(t, "/admin", "Bearer "+token(t, auth.RoleAdmin)).Code)
}
