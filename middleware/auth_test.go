package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"emmie-backend/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestJWT(t *testing.T) {
	t.Helper()
	prevSecret := config.Cfg.JWT.SecretKey
	prevTTL := config.Cfg.JWT.TTLHours
	prevOrg := config.Cfg.Org.ID
	config.Cfg.JWT.SecretKey = "test-secret"
	config.Cfg.JWT.TTLHours = 2
	config.Cfg.Org.ID = "org-test"
	t.Cleanup(func() {
		config.Cfg.JWT.SecretKey = prevSecret
		config.Cfg.JWT.TTLHours = prevTTL
		config.Cfg.Org.ID = prevOrg
	})
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	setTestJWT(t)

	token, err := GenerateToken("user@example.com")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "org-test", claims.OrgID)

	// 有效期来自配置而非固定值
	ttl := time.Until(claims.ExpiresAt.Time)
	assert.InDelta(t, (2 * time.Hour).Seconds(), ttl.Seconds(), 60)
}

func TestParseTokenRejectsBadSignature(t *testing.T) {
	setTestJWT(t)

	token, err := GenerateToken("user@example.com")
	require.NoError(t, err)

	config.Cfg.JWT.SecretKey = "another-secret"
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setTestJWT(t)

	router := gin.New()
	router.GET("/ping", AuthMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("email")+"|"+c.GetString("org_id"))
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Token abc")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := GenerateToken("user@example.com")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user@example.com|org-test", w.Body.String())
	})
}
