package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stones/internal/config"
	"github.com/mamadbah2/stones/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(cfg config.ServerConfig, forms *handlers.FormHandler, stones *handlers.StonesHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Forms are limited when opened; edits on an open form are not.
	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.RateLimitRPS > 0 {
		limit = rateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	r.POST("/forms/add-stone", limit, forms.Open)
	form := r.Group("/forms/add-stone/:id")
	form.GET("", forms.Show)
	form.DELETE("", forms.Close)
	form.PATCH("/fields", forms.SetField)
	form.POST("/submit", forms.Submit)
	form.POST("/reset", forms.Reset)
	form.POST("/cancel", forms.Cancel)

	api := r.Group("/", limit)
	api.GET("/stones", stones.List)
	api.GET("/stones/:id", stones.Get)
	api.PUT("/stones/:id", stones.Update)
	api.DELETE("/stones/:id", stones.Delete)

	api.GET("/inventory/summary", stones.Summary)
	api.GET("/inventory/snapshots", stones.History)
	api.GET("/inventory/snapshots/latest", stones.LatestSnapshot)

	if logger != nil {
		logger.Info("router initialized", zap.Float64("rate_limit_rps", cfg.RateLimitRPS))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
