package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolib/folio/internal/config"
)

func newAuthTestRouter(m *Middleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(m.Handler())
	router.GET("/api/books", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	router.GET("/opds", func(c *gin.Context) {
		c.String(http.StatusOK, "feed")
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestMiddlewareDisabledInjectsDefaultUser(t *testing.T) {
	db, cleanup := setupAuthDB(t, "mw_none")
	defer cleanup()
	cfg := config.Auth{Mode: config.AuthModeNone}
	m := NewMiddleware(NewService(db, cfg), nil, cfg)
	router := newAuthTestRouter(m)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id": 0}`, w.Body.String())
}

func TestMiddlewareLocalRejectsAnonymousAPI(t *testing.T) {
	db, cleanup := setupAuthDB(t, "mw_local")
	defer cleanup()
	cfg := testAuthConfig()
	m := NewMiddleware(NewService(db, cfg), nil, cfg)
	router := newAuthTestRouter(m)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewarePublicPathsBypassAuth(t *testing.T) {
	db, cleanup := setupAuthDB(t, "mw_public")
	defer cleanup()
	cfg := testAuthConfig()
	m := NewMiddleware(NewService(db, cfg), nil, cfg)
	router := newAuthTestRouter(m)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddlewareOPDSBasicAuth(t *testing.T) {
	db, cleanup := setupAuthDB(t, "mw_opds")
	defer cleanup()
	cfg := testAuthConfig()
	service := NewService(db, cfg)
	_, err := service.CreateUser("reader", "correct horse battery")
	require.NoError(t, err)

	m := NewMiddleware(service, nil, cfg)
	router := newAuthTestRouter(m)

	// Without credentials the feed challenges for Basic auth.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/opds", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")

	// With valid credentials the feed is served.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/opds", nil)
	req.SetBasicAuth("reader", "correct horse battery")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Wrong password is rejected.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/opds", nil)
	req.SetBasicAuth("reader", "wrong")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
