package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRouterSetup_VersionPrefix(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	lots := NewDomainGroup("lots", "/lots")
	lots.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "lots")
	})

	r.Register(lots).Setup()

	assert.Equal(t, http.StatusOK, serve(engine, "GET", "/api/v2/lots").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, "GET", "/api/v1/lots").Code)
}

func TestRouterUse_ScopedToAPIGroup(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.Header("X-Api-Middleware", "applied")
		c.Next()
	})

	lots := NewDomainGroup("lots", "/lots")
	lots.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "lots")
	})
	r.Register(lots).Setup()

	// API routes pass through the middleware.
	w := serve(engine, "GET", "/api/v1/lots")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "applied", w.Header().Get("X-Api-Middleware"))

	// The health probe stays outside it.
	w = serve(engine, "GET", "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Api-Middleware"))
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()

	lots := NewDomainGroup("lots", "/lots")
	lots.GET("/:id", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("id"))
	}).POST("/:id/hold", func(c *gin.Context) {
		c.String(http.StatusCreated, "held")
	}).DELETE("/:id/hold", func(c *gin.Context) {
		c.String(http.StatusNoContent, "")
	})

	lots.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, "GET", "/api/v1/lots/7f2a")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7f2a", w.Body.String())

	assert.Equal(t, http.StatusCreated, serve(engine, "POST", "/api/v1/lots/7f2a/hold").Code)
	assert.Equal(t, http.StatusNoContent, serve(engine, "DELETE", "/api/v1/lots/7f2a/hold").Code)
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()

	admissions := NewDomainGroup("preadmissions", "/preadmissions")
	admissions.Use(func(c *gin.Context) {
		c.Header("X-Zone", "FTZ-77")
		c.Next()
	})
	admissions.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "filings")
	})

	admissions.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, "GET", "/api/v1/preadmissions")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FTZ-77", w.Header().Get("X-Zone"))
}

func TestDomainGroup_Subgroups(t *testing.T) {
	engine := gin.New()

	lots := NewDomainGroup("lots", "/lots")
	transactions := lots.Group("transactions", "/transactions")
	transactions.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "ledger")
	})
	documents := lots.Group("documents", "/documents")
	documents.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "documents")
	})

	lots.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, "GET", "/api/v1/lots/transactions")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ledger", w.Body.String())

	w = serve(engine, "GET", "/api/v1/lots/documents")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "documents", w.Body.String())
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	lots := NewDomainGroup("lots", "/lots")
	lots.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "lots")
	})
	recon := NewDomainGroup("reconciliation", "/reconciliation")
	recon.GET("/runs", func(c *gin.Context) {
		c.String(http.StatusOK, "runs")
	})

	r.Register(lots).Register(recon).Setup()

	assert.Equal(t, "lots", serve(engine, "GET", "/api/v1/lots").Body.String())
	assert.Equal(t, "runs", serve(engine, "GET", "/api/v1/reconciliation/runs").Body.String())
}
