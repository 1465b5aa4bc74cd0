package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/yourorg/dvc-uploads/internal/api"
	"github.com/yourorg/dvc-uploads/internal/config"
	"github.com/yourorg/dvc-uploads/internal/logging"
)

func main() {
	cfg := config.FromEnv()
	zl := logging.New(cfg.LogLevel)
	defer zl.Sync()

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.Namespace,
	})
	if err != nil {
		zl.Fatal("failed to connect to Temporal", zap.Error(err))
	}
	defer temporalClient.Close()

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(zl))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	apiV1 := r.Group("/api/v1")
	api.NewWorkflowHandler(temporalClient, cfg.TaskQueue).Register(apiV1)

	zl.Info("server starting", zap.String("port", cfg.Port), zap.String("taskQueue", cfg.TaskQueue))
	if err := r.Run(":" + cfg.Port); err != nil {
		zl.Fatal("failed to start server", zap.Error(err))
	}
}

func requestLogger(zl *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		zl.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()))
	}
}
