package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/clauselens/docserver/api/handlers"
	"github.com/clauselens/docserver/api/middleware"
	"github.com/clauselens/docserver/internal/auth"
)

// SetupRoutes registers all endpoints.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, verifier auth.Verifier) {
	r.Use(middleware.CORS())

	r.GET("/health", handlers.Health)

	api := r.Group("/api")
	api.Use(middleware.Auth(verifier))
	{
		api.POST("/upload", h.Document.Upload)
		api.POST("/upload/background", h.Document.UploadBackground)
		api.GET("/status/:documentId", h.Document.Status)
		api.GET("/documents", h.Document.List)

		api.GET("/me", h.Query.Me)
		api.POST("/query", h.Query.Query)
	}
}
