package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"krakengpt/internal/handlers"
)

type RouterConfig struct {
	Projects    *handlers.ProjectHandler
	Chats       *handlers.ChatHandler
	RAG         *handlers.RAGHandler
	Completions *handlers.CompletionHandler
	Models      *handlers.ModelsHandler
}

// NewRouter builds the gin engine with the full route table.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/models", cfg.Models.List)

	api := router.Group("/api")
	{
		api.POST("/projects", cfg.Projects.Create)
		api.GET("/projects", cfg.Projects.List)
		api.GET("/projects/:id", cfg.Projects.Get)
		api.PUT("/projects/:id", cfg.Projects.Update)
		api.DELETE("/projects/:id", cfg.Projects.Delete)

		api.GET("/projects/:id/chats", cfg.Chats.ListByProject)
		api.POST("/chats", cfg.Chats.Create)
		api.GET("/chats/:id", cfg.Chats.Get)
		api.PUT("/chats/:id", cfg.Chats.Update)
		api.DELETE("/chats/:id", cfg.Chats.Delete)

		api.POST("/projects/:id/documents", cfg.RAG.UploadDocument)
		api.GET("/projects/:id/documents", cfg.RAG.ListDocuments)
		api.DELETE("/documents/:id", cfg.RAG.DeleteDocument)
		api.GET("/projects/:id/rag/stats", cfg.RAG.Stats)
		api.POST("/rag/search", cfg.RAG.Search)
	}

	router.POST("/v1/chat/completions", cfg.Completions.Complete)

	return router
}
