package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/citadelbuy/returns/internal/interfaces/http/handler"
	"github.com/citadelbuy/returns/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestEngine(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine, err := New(Handlers{
		Returns:     handler.NewReturnHandler(nil, nil),
		Refunds:     handler.NewRefundHandler(nil),
		StoreCredit: handler.NewStoreCreditHandler(nil),
		Health:      handler.NewHealthHandler(okPinger{}),
	}, opts)
	require.NoError(t, err)
	return engine
}

func TestNew_Routes(t *testing.T) {
	engine := newTestEngine(t, Options{})

	registered := make(map[string]bool)
	for _, r := range engine.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	expected := []string{
		"GET /health",
		"POST /api/v1/returns",
		"GET /api/v1/returns",
		"GET /api/v1/returns/analytics",
		"GET /api/v1/returns/rma/:rma",
		"GET /api/v1/returns/:id",
		"POST /api/v1/returns/:id/review",
		"POST /api/v1/returns/:id/approve",
		"POST /api/v1/returns/:id/label",
		"POST /api/v1/returns/:id/receive",
		"POST /api/v1/returns/:id/inspect",
		"POST /api/v1/returns/:id/cancel",
		"POST /api/v1/returns/:id/restock",
		"POST /api/v1/returns/:id/photos",
		"POST /api/v1/returns/:id/refund",
		"GET /api/v1/returns/:id/refund",
		"POST /api/v1/returns/:id/store-credit",
		"GET /api/v1/refunds/:id",
		"POST /api/v1/refunds/:id/process",
		"POST /api/v1/refunds/:id/cancel",
		"POST /api/v1/refunds/:id/fail",
		"GET /api/v1/store-credit/:userId",
		"GET /api/v1/store-credit/:userId/transactions",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.Len(t, registered, len(expected))
}

func TestNew_HealthIsPublic(t *testing.T) {
	engine := newTestEngine(t, Options{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestNew_APIRequiresActor(t *testing.T) {
	engine := newTestEngine(t, Options{})

	for _, path := range []string{
		"/api/v1/returns",
		"/api/v1/refunds/" + uuid.NewString(),
		"/api/v1/store-credit/" + uuid.NewString(),
	} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestNew_BodyLimit(t *testing.T) {
	engine := newTestEngine(t, Options{MaxBodyBytes: 32})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/returns", strings.NewReader(strings.Repeat("x", 64)))
	req.Header.Set(middleware.UserIDHeader, uuid.NewString())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestDomainGroup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	var hits []string
	group := NewDomainGroup("widgets", "/widgets").
		Use(func(c *gin.Context) { hits = append(hits, "mw"); c.Next() }).
		GET("", func(c *gin.Context) { hits = append(hits, "list"); c.Status(http.StatusOK) }).
		POST("/:id", func(c *gin.Context) { c.Status(http.StatusCreated) })

	NewRouter(engine, WithAPIVersion("v2")).Register(group).Setup()

	assert.Equal(t, "widgets", group.Name())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/widgets", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"mw", "list"}, hits)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v2/widgets/1", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}
