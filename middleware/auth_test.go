package middleware

import (
	"consultant-agent-backend/config"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Cfg = &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret"},
	}

	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		grant := GetGrant(c)
		c.JSON(http.StatusOK, grant)
	})
	return r
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	r := setupAuthTest(t)

	token, err := GenerateToken(Grant{
		Email:       "user@example.com",
		TenantID:    "tenant-1",
		AccessLevel: 5,
		Tags:        []string{"内科"},
	}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tenant-1")
	assert.Contains(t, w.Body.String(), "user@example.com")
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	r := setupAuthTest(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	r := setupAuthTest(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	r := setupAuthTest(t)

	token, err := GenerateToken(Grant{Email: "user@example.com"}, -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGrantPolicy(t *testing.T) {
	g := Grant{AccessLevel: 3, Tags: []string{"营养"}}
	p := g.Policy()

	assert.Equal(t, 3, p.Level)
	assert.Equal(t, []string{"营养"}, p.Tags)
}
