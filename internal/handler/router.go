package handler

import (
	"net/http"
	"time"

	"github.com/diet-tracker/internal/middleware"
	"github.com/diet-tracker/internal/service"
	"github.com/gin-gonic/gin"
)

// BuildInfo is reported by the health endpoint
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// RouterConfig holds everything the HTTP layer needs
type RouterConfig struct {
	AuthService    *service.AuthService
	MetricsService *service.MetricsService
	Codec          *middleware.SessionCodec
	Build          BuildInfo
	DebugBodies    bool
	AllowedOrigins []string
}

// NewRouter wires middleware and routes onto a gin engine
func NewRouter(cfg RouterConfig) *gin.Engine {
	registerValidators()
	origins := newOriginPolicy(cfg.AllowedOrigins)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLoggerMiddleware())
	if cfg.DebugBodies {
		router.Use(middleware.DebugLoggerMiddleware())
	}
	router.Use(corsMiddleware(origins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    cfg.Build.Version,
			"commit":     cfg.Build.Commit,
			"build_time": cfg.Build.BuildTime,
			"time":       time.Now().Unix(),
		})
	})

	sessionMiddleware := middleware.SessionMiddleware(cfg.AuthService, cfg.Codec)
	root := router.Group("/")

	NewUserHandler(cfg.AuthService, cfg.Codec).RegisterRoutes(root, sessionMiddleware)
	NewMealHandler(cfg.MetricsService).RegisterRoutes(root, sessionMiddleware)
	NewMetricsHandler(cfg.MetricsService, origins.CheckWebSocket).RegisterRoutes(root, sessionMiddleware)

	return router
}

func corsMiddleware(origins *originPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origins.Allows(origin) {
			// Cookies need an explicit origin, not "*"
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
