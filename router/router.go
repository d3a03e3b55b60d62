package router

import (
	"consultant-agent-backend/controller"
	"consultant-agent-backend/middleware"

	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Document *controller.DocumentController
	Session  *controller.SessionController
	Chat     *controller.ChatController
	Tenant   *controller.TenantController
}

func Register(ctrl Controllers) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	{
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.POST("/document", ctrl.Document.RegisterDocument)
			protected.GET("/documents", ctrl.Document.GetDocuments)
			protected.DELETE("/document/:id", ctrl.Document.DeleteDocument)
			protected.POST("/document/:id/reprocess", ctrl.Document.ReprocessDocument)
			protected.GET("/document/upload-url", ctrl.Document.GetUploadURL)
			protected.GET("/document/:id/download-url", ctrl.Document.GetDownloadURL)

			protected.POST("/session", ctrl.Session.CreateSession)
			protected.GET("/sessions", ctrl.Session.GetSessions)
			protected.DELETE("/session/:id", ctrl.Session.DeleteSession)
			protected.GET("/session/:id/messages", ctrl.Session.GetSessionMessages)
			protected.PUT("/session/:id/title", ctrl.Session.UpdateSessionTitle)

			protected.POST("/chat", ctrl.Chat.Chat)
			protected.POST("/chat/feedback", ctrl.Chat.MessageFeedback)

			protected.GET("/tenant", ctrl.Tenant.GetTenant)
			protected.PUT("/tenant", ctrl.Tenant.UpdateTenant)
		}
	}

	return r
}
