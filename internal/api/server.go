// Package api exposes the wizard, configuration and admin operations over
// HTTP. Every failure is answered with a notice body.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"merchant-onboarding/internal/admin"
	"merchant-onboarding/internal/registry"
	"merchant-onboarding/internal/submission"
	"merchant-onboarding/internal/wizard"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the handlers' dependencies.
type Server struct {
	wizard  *wizard.Service
	admin   *admin.Service
	modules *registry.Registry
	hub     *Hub
	health  Pinger
}

// NewServer wires the handlers. hub may be nil when live notifications are
// not served.
func NewServer(w *wizard.Service, a *admin.Service, modules *registry.Registry, hub *Hub, health Pinger) *Server {
	return &Server{wizard: w, admin: a, modules: modules, hub: hub, health: health}
}

// Router builds the gin engine with every route.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", s.handleStartSession)
			sessions.GET("/:id", s.handleGetSession)
			sessions.DELETE("/:id", s.handleEndSession)
			sessions.GET("/:id/steps/:index", s.handleRenderStep)
			sessions.PATCH("/:id/fields", s.handleUpdateFields)
			sessions.POST("/:id/navigate", s.handleNavigate)
			sessions.POST("/:id/fees", s.handleRecalculate)
			sessions.POST("/:id/draft", s.handleSaveDraft)
			sessions.POST("/:id/submit", s.handleSubmit)

			sessions.PUT("/:id/contact", s.handleSetContact)
			sessions.PUT("/:id/company", s.handleSetCompany)
			sessions.PUT("/:id/devices", s.handleSetDevices)
			sessions.PUT("/:id/consents", s.handleSetConsents)
			sessions.POST("/:id/locations", s.handleSaveLocation)
			sessions.POST("/:id/locations/move", s.handleMoveLocation)
			sessions.DELETE("/:id/locations/:itemId", s.handleRemoveLocation)
			sessions.POST("/:id/persons", s.handleSavePerson)
			sessions.DELETE("/:id/persons/:itemId", s.handleRemovePerson)
			sessions.POST("/:id/owners", s.handleSaveOwner)
			sessions.DELETE("/:id/owners/:itemId", s.handleRemoveOwner)
		}

		config := api.Group("/config")
		{
			config.GET("/steps", s.handleListSteps)
			config.PUT("/steps/:id", s.handleUpdateStep)
			config.POST("/steps/reorder", s.handleReorderSteps)
			config.POST("/steps/:id/fields/reorder", s.handleReorderFields)
			config.POST("/steps/:id/modules/reorder", s.handleReorderModules)
			config.GET("/modules", s.handleListModules)
			config.POST("/fields", s.handleSaveField)
			config.DELETE("/fields/:id", s.handleDeleteField)
			config.POST("/step-modules", s.handleSaveStepModule)
			config.DELETE("/step-modules/:id", s.handleDeleteStepModule)
		}

		adm := api.Group("/admin")
		{
			adm.GET("/contracts", s.handleListContracts)
			adm.GET("/dashboard", s.handleDashboard)
			adm.POST("/contracts/bulk-update", s.handleBulkUpdate)
			adm.POST("/contracts/bulk-delete", s.handleBulkDelete)

			adm.GET("/notifications", s.handleListNotifications)
			adm.POST("/notifications/:id/read", s.handleMarkRead)
			adm.POST("/notifications/read-all", s.handleMarkAllRead)
			if s.hub != nil {
				adm.GET("/notifications/ws", s.hub.serveWS)
			}

			adm.GET("/translations", s.handleListTranslations)
			adm.PUT("/translations", s.handleSaveTranslation)
			adm.DELETE("/translations", s.handleDeleteTranslation)
			adm.POST("/translations/suggest", s.handleSuggestTranslation)
		}
	}
	return r
}

// corsMiddleware adds CORS headers for cross-origin requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept-Language")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// locale picks the notice language from ?locale= or Accept-Language.
func locale(c *gin.Context) string {
	if l := c.Query("locale"); l != "" {
		return strings.ToLower(l)
	}
	if h := c.GetHeader("Accept-Language"); len(h) >= 2 {
		return strings.ToLower(h[:2])
	}
	return submission.DefaultLocale
}
