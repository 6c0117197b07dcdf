package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleardesk/cleardesk/api/handlers"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret, email string, admin bool, expiry time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"admin": admin,
		"exp":   time.Now().Add(expiry).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	protected := r.Group("/", handlers.AuthMiddleware(testSecret))
	protected.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": c.GetString("employee_email")})
	})
	admin := protected.Group("/admin", handlers.RequireAdmin())
	admin.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doRequest(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	r := authTestRouter()

	w := doRequest(r, "/me", signedToken(t, testSecret, "alice@example.com", false, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com")
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	r := authTestRouter()

	w := doRequest(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	r := authTestRouter()

	w := doRequest(r, "/me", signedToken(t, "other-secret", "alice@example.com", false, time.Hour))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	r := authTestRouter()

	w := doRequest(r, "/me", signedToken(t, testSecret, "alice@example.com", false, -time.Minute))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	r := authTestRouter()

	w := doRequest(r, "/admin/status", signedToken(t, testSecret, "alice@example.com", false, time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, "/admin/status", signedToken(t, testSecret, "admin@example.com", true, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
}
