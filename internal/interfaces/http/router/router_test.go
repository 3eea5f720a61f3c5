package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingRegistrar struct {
	path string
}

func (p *pingRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET(p.path, func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
}

func get(engine *gin.Engine, path string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder.Code
}

func TestRouter_VersionedRegistrars(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	NewRouter(engine).
		Register(&pingRegistrar{path: "/ping"}).
		Setup()

	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/ping"))
	assert.Equal(t, http.StatusNotFound, get(engine, "/ping"))
}

func TestRouter_CustomVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	NewRouter(engine, WithAPIVersion("v2")).
		Register(&pingRegistrar{path: "/ping"}).
		Setup()

	assert.Equal(t, http.StatusOK, get(engine, "/api/v2/ping"))
	assert.Equal(t, http.StatusNotFound, get(engine, "/api/v1/ping"))
}

func TestRouter_SystemRoutesAtRoot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	NewRouter(engine).
		RegisterSystem(&pingRegistrar{path: "/healthz"}).
		Setup()

	assert.Equal(t, http.StatusOK, get(engine, "/healthz"))
	assert.Equal(t, http.StatusNotFound, get(engine, "/api/v1/healthz"))
}
