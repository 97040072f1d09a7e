package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-super-hub/hub-api/internal/models"
	"github.com/ai-super-hub/hub-api/internal/service"
)

func testRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/protected", chain...)
	return r
}

func setClaims(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1", Role: role})
	}
}

func TestRequireRolesAllowsAdmin(t *testing.T) {
	r := testRouter(setClaims(models.RoleAdmin), RequireRoles(models.RoleAdmin))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesRejectsUser(t *testing.T) {
	r := testRouter(setClaims(models.RoleUser), RequireRoles(models.RoleAdmin))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesRejectsAnonymous(t *testing.T) {
	r := testRouter(RequireRoles(models.RoleAdmin))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func testAuthService() *service.AuthService {
	return service.NewAuthService(nil, nil, validator.New(), zap.NewNop(), service.AuthConfig{
		AccessTokenSecret: "test-secret",
	})
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	r := testRouter(JWT(testAuthService()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc123")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	r := testRouter(OptionalJWT(testAuthService()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
