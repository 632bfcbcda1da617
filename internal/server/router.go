package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig collects the handlers the router wires up.
type RouterConfig struct {
	Families    *FamilyHandler
	Tasks       *TaskHandler
	Occurrences *OccurrenceHandler
	Series      *SeriesHandler
}

// NewRouter builds the gin engine with all API routes. Authentication
// and session handling are the surrounding deployment's business (a
// reverse proxy or gateway); this API trusts its caller.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := router.Group("/api/v1")
	{
		api.POST("/families", cfg.Families.Create)
		api.GET("/families/:id", cfg.Families.Get)
		api.POST("/families/:id/members", cfg.Families.AddMember)
		api.GET("/families/:id/categories", cfg.Families.ListCategories)
		api.PUT("/families/:id/telegram-chat", cfg.Families.SetTelegramChat)

		api.POST("/tasks", cfg.Tasks.Create)
		api.GET("/tasks/:id", cfg.Tasks.Get)
		api.PATCH("/tasks/:id/status", cfg.Tasks.UpdateStatus)
		api.DELETE("/tasks/:id", cfg.Tasks.Delete)
		api.GET("/tasks/:id/logs", cfg.Tasks.Logs)

		api.GET("/families/:id/occurrences", cfg.Occurrences.List)
		api.GET("/families/:id/calendar.ics", cfg.Occurrences.CalendarFeed)
		api.POST("/occurrences/:id/materialize", cfg.Occurrences.Materialize)
		api.POST("/occurrences/:id/complete", cfg.Occurrences.Complete)

		api.PUT("/series/:id", cfg.Series.Edit)
	}

	return router
}
