package router

import (
	"time"

	"github.com/busseva/busseva-backend/internal/config"
	"github.com/busseva/busseva-backend/internal/handler"
	"github.com/busseva/busseva-backend/internal/middleware"
	"github.com/busseva/busseva-backend/internal/response"
	"github.com/busseva/busseva-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	Bus    *handler.BusHandler
	System *handler.SystemHandler
}

// Deps are the services the router wires into middleware.
type Deps struct {
	Auth      *service.AuthService
	Bootstrap *service.Bootstrapper
	Log       zerolog.Logger
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(deps Deps, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = 1 << 20

	// ─── CORS ──────────────────────────────────────────────────────────
	// Only the configured origins get through; "*" needs an explicit
	// development opt-in.
	corsConfig := cors.DefaultConfig()
	switch {
	case cfg.AllowsAllOrigins():
		corsConfig.AllowAllOrigins = true
	case len(cfg.AllowedOrigins) > 0:
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	default:
		corsConfig.AllowOriginFunc = func(string) bool { return false }
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(deps.Log))

	// Stored images are already compressed.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:      middleware.DefaultBrotliConfig.Quality,
		MinLength:    middleware.DefaultBrotliConfig.MinLength,
		SkipPrefixes: []string{cfg.UploadURLPath + "/"},
	}))

	// Serve uploaded images statically with aggressive caching (1 year).
	if cfg.StorageBackend == config.StorageLocal {
		uploadsGroup := router.Group(cfg.UploadURLPath)
		uploadsGroup.Use(middleware.CacheControl(365*24*time.Hour, true))
		{
			uploadsGroup.Static("/", cfg.UploadDir)
		}
	}

	router.GET("/", handlers.System.Root)
	router.GET("/health", handlers.System.Health)
	router.NoRoute(handlers.System.NotFound)

	api := router.Group("/api")
	api.GET("", handlers.System.APIIndex)
	api.GET("/", handlers.System.APIIndex)

	// Everything below needs the schema and the default admin.
	api.Use(middleware.RequireStore(deps.Bootstrap, deps.Log))

	// ─── 1. Public Bus Group ───────────────────────────────────────────
	buses := api.Group("/buses")
	{
		buses.GET("", handlers.Bus.List)
		buses.GET("/search/:route", handlers.Bus.Search)
		buses.GET("/:busNumber", handlers.Bus.Get)

		buses.POST("", middleware.WithAdmin(deps.Auth, handlers.Bus.Create))
		buses.PUT("/:id", middleware.WithAdmin(deps.Auth, handlers.Bus.Update))
		buses.DELETE("/:id", middleware.WithAdmin(deps.Auth, handlers.Bus.Delete))
	}

	// ─── 2. Admin Group ────────────────────────────────────────────────
	admin := api.Group("/admin")
	{
		admin.POST("/login", handlers.Auth.AdminLogin)
		admin.GET("/me", middleware.WithAdmin(deps.Auth, handlers.Auth.AdminMe))

		// Paths used by the admin panel.
		admin.POST("/buses", middleware.WithAdmin(deps.Auth, handlers.Bus.Create))
		admin.PUT("/buses/:id", middleware.WithAdmin(deps.Auth, handlers.Bus.Update))
		admin.DELETE("/buses/:id", middleware.WithAdmin(deps.Auth, handlers.Bus.Delete))
	}

	return router
}
