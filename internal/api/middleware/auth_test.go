package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/fluxdns/fluxdns/internal/api/authsvc"
	"github.com/fluxdns/fluxdns/internal/api/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(svc *authsvc.Service) *gin.Engine {
	r := gin.New()
	r.GET("/protected", middleware.RequireBearerToken(svc), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": middleware.Subject(c)})
	})
	return r
}

func TestRequireBearerTokenRejectsMissingHeader(t *testing.T) {
	svc := authsvc.New("admin", "pw", []byte("secret"))
	r := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireBearerTokenRejectsMalformedHeader(t *testing.T) {
	svc := authsvc.New("admin", "pw", []byte("secret"))
	r := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "not-bearer-scheme")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireBearerTokenAcceptsValidToken(t *testing.T) {
	svc := authsvc.New("admin", "pw", []byte("secret"))
	token, _, err := svc.Login("admin", "pw")
	require.NoError(t, err)

	r := newRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin")
}
