package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legalistas/brixar-sub002/internal/auth"
	"github.com/Legalistas/brixar-sub002/internal/models"
)

const testSecret = "test-secret"

func setupAuthEngine(roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://brixar.test"}))
	group := r.Group("/", AuthMiddleware(testSecret))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/me", func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": p.UserID, "role": p.Role})
	})
	return r
}

func call(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, id uint, role models.Role) string {
	t.Helper()
	tok, err := auth.GenerateJWT(id, role, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAuthMiddleware(t *testing.T) {
	r := setupAuthEngine()

	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer not-a-jwt").Code)

	other, err := auth.GenerateJWT(1, models.RoleAdmin, "other-secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer "+other).Code)

	w := call(r, token(t, 7, models.RoleCustomer))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"role":"CUSTOMER"}`, w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := setupAuthEngine(models.RoleAdmin, models.RoleSeller)

	assert.Equal(t, http.StatusForbidden, call(r, token(t, 7, models.RoleCustomer)).Code)
	assert.Equal(t, http.StatusOK, call(r, token(t, 1, models.RoleAdmin)).Code)
	assert.Equal(t, http.StatusOK, call(r, token(t, 2, models.RoleSeller)).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	r := setupAuthEngine()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/me", nil)
	req.Header.Set("Origin", "https://brixar.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://brixar.test", w.Header().Get("Access-Control-Allow-Origin"))
}
