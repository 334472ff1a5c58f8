package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/fluxdns/fluxdns/internal/api/handlers"
	"github.com/fluxdns/fluxdns/internal/api/middleware"

	_ "github.com/fluxdns/fluxdns/internal/api/docs"
)

// RegisterRoutes wires the admin API's routes onto r. Every route under
// /api/v1 except /auth/login requires a bearer token.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")

	v1.POST("/auth/login", h.Login)

	authed := v1.Group("")
	authed.Use(middleware.RequireBearerToken(h.Auth))

	authed.GET("/stats", h.Stats)

	authed.GET("/records", h.ListRecords)
	authed.POST("/records", h.CreateRecord)
	authed.PUT("/records/:id", h.UpdateRecord)
	authed.DELETE("/records/:id", h.DeleteRecord)

	authed.GET("/rules", h.ListRules)
	authed.POST("/rules", h.CreateRule)
	authed.POST("/rules/reload", h.ReloadRules)
	authed.PUT("/rules/:id", h.UpdateRule)
	authed.DELETE("/rules/:id", h.DeleteRule)

	authed.GET("/upstreams", h.ListUpstreams)
	authed.GET("/upstreams/status", h.GetUpstreamStatus)
	authed.POST("/upstreams", h.CreateUpstream)
	authed.PUT("/upstreams/:id", h.UpdateUpstream)
	authed.DELETE("/upstreams/:id", h.DeleteUpstream)

	authed.GET("/listeners", h.ListListeners)
	authed.GET("/listeners/:protocol", h.GetListener)
	authed.PUT("/listeners/:protocol", h.UpdateListener)

	authed.GET("/settings", h.GetSettings)
	authed.PUT("/settings", h.UpdateSettings)

	authed.GET("/cache/stats", h.GetCacheStats)
	authed.POST("/cache/clear", h.ClearCache)
	authed.POST("/cache/clear/:domain", h.ClearDomainCache)

	authed.GET("/logs", h.ListQueryLogs)

	authed.POST("/agent/chat", h.Chat)
}
