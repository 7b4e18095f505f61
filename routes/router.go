package routes

import (
	"context"
	"net/http"
	"time"

	"citycare-be/controllers"
	"citycare-be/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth     *controllers.AuthController
	Issues   *controllers.IssueController
	Comments *controllers.CommentController
	Admin    *controllers.AdminController
}

type Options struct {
	Logger         *zap.Logger
	Tokens         middlewares.TokenParser
	Users          middlewares.UserFinder
	CORSOrigins    []string
	UploadDir      string // served at /uploads when set
	MaxUploadBytes int64
	// Health reports whether the backing store is reachable.
	Health func(ctx context.Context) error
}

// NewRouter assembles the API engine.
func NewRouter(opts Options, h Handlers) *gin.Engine {
	r := gin.New()
	if opts.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opts.MaxUploadBytes
	}

	r.Use(
		middlewares.RequestID(),
		middlewares.ZapLogger(opts.Logger),
		gin.Recovery(),
		cors.New(corsConfig(opts.CORSOrigins)),
	)

	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the CityCare API!"})
	})
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		if opts.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Health(ctx); err != nil {
				opts.Logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", middlewares.Authenticate(opts.Tokens, opts.Users, opts.Logger))
	AuthRoutes(api, h.Auth)
	IssueRoutes(api, h.Issues)
	CommentRoutes(api, h.Comments)
	AdminRoutes(api, h.Admin)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
		ExposeHeaders: []string{middlewares.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
