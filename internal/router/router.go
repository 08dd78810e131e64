package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/quietdesk/backend/config"
	"github.com/quietdesk/backend/internal/handler"
)

func Setup(
	cfg *config.Config,
	ownerScope gin.HandlerFunc,
	personaHandler *handler.PersonaHandler,
	templateHandler *handler.TemplateHandler,
	projectHandler *handler.ProjectHandler,
	memoryHandler *handler.MemoryHandler,
	suggestionHandler *handler.SuggestionHandler,
	messageHandler *handler.MessageHandler,
	fileHandler *handler.FileHandler,
	chatHandler *handler.ChatHandler,
	requestHandler *handler.RequestHandler,
	deliverableHandler *handler.DeliverableHandler,
	integrationHandler *handler.IntegrationHandler,
	apiKeyHandler *handler.APIKeyHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Owner-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// SSE responses must not pass through compression, it buffers the stream.
	r.Use(gzip.Gzip(gzip.BestCompression, gzip.WithExcludedPaths([]string{"/api/chat"})))

	api := r.Group("/api")
	api.Use(ownerScope)
	{
		personas := api.Group("/personas")
		{
			personas.POST("", personaHandler.Create)
			personas.GET("", personaHandler.List)
			personas.GET("/:id", personaHandler.Get)
			personas.PUT("/:id", personaHandler.Update)
			personas.DELETE("/:id", personaHandler.Delete)
			personas.GET("/:id/can-delete", personaHandler.CanDelete)
			personas.POST("/:id/clone", personaHandler.Clone)
			personas.GET("/:id/instructions", personaHandler.ComposedInstructions)
			personas.POST("/:id/reset-template", personaHandler.ResetToTemplate)
		}

		templates := api.Group("/templates")
		{
			templates.GET("", templateHandler.List)
			templates.GET("/:id", templateHandler.Get)
			templates.PUT("/:id", templateHandler.Update)
			templates.POST("/:id/adopt", templateHandler.Adopt)
			templates.POST("/:id/clone", templateHandler.Clone)
		}

		projects := api.Group("/projects")
		{
			projects.POST("", projectHandler.Create)
			projects.GET("", projectHandler.List)
			projects.GET("/:id", projectHandler.Get)
			projects.PUT("/:id", projectHandler.Update)
			projects.DELETE("/:id", projectHandler.Delete)
			projects.GET("/:id/personas", projectHandler.ListPersonas)
			projects.POST("/:id/personas/:persona_id", projectHandler.AssignPersona)
			projects.DELETE("/:id/personas/:persona_id", projectHandler.UnassignPersona)
		}

		memories := api.Group("/memories")
		{
			memories.POST("", memoryHandler.Create)
			memories.GET("", memoryHandler.List)
			memories.PUT("/:id", memoryHandler.Update)
			memories.DELETE("/:id", memoryHandler.Delete)
		}

		suggestions := api.Group("/memory-suggestions")
		{
			suggestions.POST("", suggestionHandler.Create)
			suggestions.GET("", suggestionHandler.List)
			suggestions.POST("/:id/approve", suggestionHandler.Approve)
			suggestions.POST("/:id/reject", suggestionHandler.Reject)
		}

		messages := api.Group("/messages")
		{
			messages.GET("", messageHandler.List)
			messages.POST("", messageHandler.Create)
			messages.DELETE("", messageHandler.ClearScope)
		}

		files := api.Group("/files")
		{
			files.POST("", fileHandler.Upload)
			files.GET("", fileHandler.List)
			files.DELETE("", fileHandler.ClearScope)
			files.GET("/:id", fileHandler.Get)
			files.DELETE("/:id", fileHandler.Delete)
		}

		api.POST("/chat", chatHandler.Chat)

		requests := api.Group("/requests")
		{
			requests.POST("", requestHandler.Create)
			requests.GET("", requestHandler.List)
			requests.GET("/status/queue", requestHandler.QueueStatus)
			requests.GET("/:id", requestHandler.Get)
			requests.POST("/:id/trigger", requestHandler.Trigger)
			requests.GET("/:id/progress", requestHandler.Progress)
			requests.GET("/:id/messages", requestHandler.Messages)
			requests.GET("/:id/deliverable", deliverableHandler.GetForRequest)
		}
		api.GET("/request-types", requestHandler.RequestTypes)
		api.GET("/team", requestHandler.Team)

		deliverables := api.Group("/deliverables")
		{
			deliverables.GET("", deliverableHandler.List)
			deliverables.GET("/:id", deliverableHandler.Get)
		}

		integrations := api.Group("/integrations")
		{
			integrations.GET("/:provider/status", integrationHandler.Status)
			integrations.POST("/:provider/connect", integrationHandler.Connect)
			integrations.POST("/:provider/disconnect", integrationHandler.Disconnect)
		}

		apiKeys := api.Group("/api-keys")
		{
			apiKeys.POST("", apiKeyHandler.Create)
			apiKeys.GET("", apiKeyHandler.List)
			apiKeys.DELETE("/:id", apiKeyHandler.Delete)
			apiKeys.PATCH("/:id/status", apiKeyHandler.UpdateStatus)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}
