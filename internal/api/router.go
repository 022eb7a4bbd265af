// Package api exposes the orchestrator over HTTP: one route group per
// resource family, each handler constructing and configuring a fresh
// orchestrator instance rather than sharing one (§4.11, §5 "per-request
// construction").
package api

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/stackdiac/stackd/pkg/log"
)

// New builds the gin.Engine serving root's project. Handlers close over
// root only, never a shared *orchestrator.Stackd.
func New(root string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	h := &handlers{root: root}

	router.GET("/", h.redirectToUI)

	router.GET("/config", h.getConfig)
	router.GET("/clusters/", h.listClusters)
	router.GET("/cluster/:cluster", h.getCluster)
	router.GET("/stack/:cluster/:stack", h.getStack)
	router.GET("/module/:cluster/:stack/:module", h.getModule)
	router.POST("/vars/:cluster/:stack/:module", h.writeModuleVars)

	secrets := router.Group("/secret/:cluster/:stack/:module")
	secrets.GET("", h.listModuleSecrets)
	secrets.GET("/:name", h.getModuleSecret)
	secrets.POST("/:name", h.writeModuleSecret)

	router.GET("/build/:cluster", h.buildCluster)

	// The UI asset server is out of scope (§1 Non-goals); when the project
	// root carries no ui/ directory this static mount 404s on every path,
	// which is the accepted behavior for "/" per §6.
	router.StaticFS("/ui", http.Dir(filepath.Join(root, "ui")))

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.WithField("method", c.Request.Method).
			WithField("path", c.Request.URL.Path).
			WithField("status", c.Writer.Status()).
			Info("handled request")
	}
}
