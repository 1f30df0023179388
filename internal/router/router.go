package router

import (
	"net/http"
	"time"

	"github.com/fabtrain/console/internal/config"
	"github.com/fabtrain/console/internal/handler"
	"github.com/fabtrain/console/internal/middleware"
	"github.com/fabtrain/console/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Form   *handler.FormHandler
	Train  *handler.TrainHandler
	WS     *handler.WSHandler
	System *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// submitLimiter guards every route that emits to the backend.
func SetupRouter(handlers *Handlers, submitLimiter *middleware.RateLimiter, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	router.GET("/health", handlers.System.Health)

	limit := submitLimiter.Middleware()

	api := router.Group("/api/v1")
	api.Use(middleware.NoStore(), middleware.Brotli())
	{
		api.GET("/status", handlers.System.Status)

		// ─── Forms ─────────────────────────────────────────────────────
		forms := api.Group("/forms")
		{
			forms.POST("", handlers.Form.OpenForm)
			forms.GET("/:id", handlers.Form.GetForm)
			forms.PUT("/:id/fields/:name", handlers.Form.SetField)
			forms.POST("/:id/submit", limit, handlers.Form.SubmitForm)
			forms.DELETE("/:id", handlers.Form.CloseForm)
		}

		// ─── Trains ────────────────────────────────────────────────────
		trains := api.Group("/trains")
		{
			trains.GET("", handlers.Train.ListTrains)
			trains.POST("", limit, handlers.Train.CreateTrain)
			trains.POST("/status", limit, handlers.Train.ChangeStatus)
			trains.POST("/refresh", limit, handlers.Train.RefreshTrains)
			trains.GET("/:id", limit, handlers.Train.QueryTrain)
		}

		api.POST("/ledger/init", limit, handlers.Train.InitLedger)
	}

	// ─── WebSocket ─────────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/console", handlers.WS.ConsoleStream)
	}

	return router
}
