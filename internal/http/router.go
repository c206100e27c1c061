package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"picker-backend/internal/common/config"
	"picker-backend/internal/common/middleware"
	userhttp "picker-backend/internal/features/user/delivery/http"
	"picker-backend/internal/features/user/repository"
	"picker-backend/internal/features/user/service"
)

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

// NewRouter builds a gin engine with routes and middlewares wired.
// ping may be nil when the store is in-process.
func NewRouter(cfg *config.Config, repo repository.UserRepository, ping Pinger) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness probe
	router.GET("/ready", func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   "storage unavailable",
					"details": err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "storage": cfg.Storage})
	})

	users := service.NewUserService(repo)
	v1 := router.Group("/api/v1")
	userhttp.NewUserHandler(users).RegisterRoutes(v1)

	return router
}
