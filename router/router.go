package router

import (
	"emmie-backend/controller"
	"emmie-backend/middleware"

	"github.com/gin-gonic/gin"
)

func Register() *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	{
		public := api.Group("/user")
		{
			public.POST("/register", controller.UserRegister)
			public.POST("/login", controller.UserLogin)
		}

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.POST("/chats", controller.CreateChat)
			protected.GET("/chats", controller.GetChats)
			protected.DELETE("/chats/:id", controller.DeleteChat)
			protected.GET("/chats/:id/messages", controller.GetChatMessages)
			protected.PUT("/chats/:id/title", controller.UpdateChatTitle)
			protected.POST("/chats/:id/generate-title", controller.GenerateChatTitle)
			protected.POST("/chats/:id/regenerate", controller.RegenerateChat)

			protected.POST("/chat", controller.AgentChat)
			protected.POST("/feedback", controller.SaveFeedback)

			protected.GET("/storage/policy-token", controller.GetPolicyToken)
			protected.POST("/storage/images", controller.UploadImage)
			protected.GET("/documents", controller.GetDocuments)
			protected.POST("/documents", controller.UploadDocument)
			protected.GET("/documents/download-link", controller.GetPresignedURL)

			admin := protected.Group("/admin")
			{
				admin.GET("/agents", controller.GetAgents)
				admin.POST("/agents", controller.CreateAgent)
				admin.PUT("/agents/:id", controller.UpdateAgent)
				admin.DELETE("/agents/:id", controller.DeleteAgent)
				admin.POST("/agents/:id/tools", controller.AssignTool)
				admin.DELETE("/agents/:id/tools", controller.UnassignTool)

				admin.GET("/tools", controller.GetTools)
				admin.POST("/tools", controller.CreateTool)
				admin.PUT("/tools/:id", controller.UpdateTool)
				admin.DELETE("/tools/:id", controller.DeleteTool)
			}
		}
	}

	return r
}
