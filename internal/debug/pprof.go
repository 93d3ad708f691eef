// Package debug serves runtime profiles for a running server.
package debug

import (
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// Handler exposes net/http/pprof under /debug/pprof.
func Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	pprof.Register(router)
	return router
}

// NewServer returns an unstarted profiling server listening on addr.
func NewServer(addr string) *http.Server {
	return &http.Server{Addr: addr, Handler: Handler()}
}
