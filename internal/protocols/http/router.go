// Package http - REST API surface for the mission engine
package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"missionhub/internal/core"
	"missionhub/pkg/config"
)

// Server manages the HTTP REST API server
type Server struct {
	router     *gin.Engine
	config     *config.Config
	trackerSvc core.TrackerService
	catalogSvc core.CatalogService
	pointsSvc  core.PointsService
	sweeperSvc core.SweeperService
	actionsSvc core.ActionFeedService
}

// NewServer creates a new HTTP server with all handlers
func NewServer(
	cfg *config.Config,
	trackerSvc core.TrackerService,
	catalogSvc core.CatalogService,
	pointsSvc core.PointsService,
	sweeperSvc core.SweeperService,
	actionsSvc core.ActionFeedService,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	s := &Server{
		router:     router,
		config:     cfg,
		trackerSvc: trackerSvc,
		catalogSvc: catalogSvc,
		pointsSvc:  pointsSvc,
		sweeperSvc: sweeperSvc,
		actionsSvc: actionsSvc,
	}

	s.setupRoutes()
	return s
}

// Router exposes the gin engine so main can attach the websocket routes
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes registers all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	{
		// Inbound trigger, called by request handlers after a primary
		// action succeeds. Rate limited per client.
		v1.POST("/track",
			RateLimitMiddleware(s.config.Server.RateLimit, s.config.Server.RateBurst),
			AuthMiddleware(s.config.JWT),
			s.trackAction,
		)

		// Read surfaces for the UI
		users := v1.Group("/users", AuthMiddleware(s.config.JWT))
		{
			users.GET("/:user_id/missions", s.getUserMissions)
			users.GET("/:user_id/points", s.getUserPoints)
			users.GET("/:user_id/actions", s.getUserActions)
		}
		v1.GET("/leaderboard", s.getLeaderboard)

		// Admin surface: catalog CRUD and the manual sweep trigger.
		// Validation errors here DO propagate to the caller.
		admin := v1.Group("/admin", AuthMiddleware(s.config.JWT), AdminMiddleware())
		{
			admin.GET("/missions", s.listMissions)
			admin.POST("/missions", s.createMission)
			admin.GET("/missions/:id", s.getMission)
			admin.PUT("/missions/:id", s.updateMission)
			admin.DELETE("/missions/:id", s.deleteMission)
			admin.POST("/sweep", s.runSweep)
		}
	}
}

// healthCheck reports server liveness
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
	})
}

// corsMiddleware allows cross-origin requests from the web UI
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
