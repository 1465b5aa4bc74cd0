package main

import (
	"context"
	"os"

	tactivity "go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/yourorg/dvc-uploads/internal/activities"
	"github.com/yourorg/dvc-uploads/internal/config"
	"github.com/yourorg/dvc-uploads/internal/ledger"
	"github.com/yourorg/dvc-uploads/internal/logging"
	znmetrics "github.com/yourorg/dvc-uploads/internal/metrics"
	"github.com/yourorg/dvc-uploads/internal/storage"
	"github.com/yourorg/dvc-uploads/internal/workflow"
)

func main() {
	cfg := config.FromEnv()
	// Ensure the repository checkout exists
	_ = os.MkdirAll(cfg.RepoDir, 0o755)

	zl := logging.New(cfg.LogLevel)
	defer zl.Sync()

	// Metrics server
	znmetrics.Init()
	go func() {
		if err := znmetrics.Serve(cfg.MetricsAddr); err != nil {
			zl.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	conns, err := storage.LoadConnections(cfg.ConnectionsFile)
	if err != nil {
		zl.Fatal("load connections", zap.Error(err))
	}
	l, err := ledger.Open(cfg.LedgerDir)
	if err != nil {
		zl.Fatal("open ledger", zap.Error(err))
	}
	defer l.Close()

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress, Namespace: cfg.Namespace})
	if err != nil {
		zl.Fatal("temporal client", zap.Error(err))
	}
	defer c.Close()
	if _, err := c.CheckHealth(context.Background(), &client.CheckHealthRequest{}); err != nil {
		zl.Warn("temporal health check failed", zap.Error(err))
	}

	w := worker.New(c, cfg.TaskQueue, worker.Options{})
	acts := activities.New(activities.Config{RepoDir: cfg.RepoDir}, storage.NewS3(conns), l)
	// Register activities with explicit names matching workflow.ExecuteActivity calls
	w.RegisterActivityWithOptions(acts.UploadSource, tactivity.RegisterOptions{Name: activities.UploadSourceName})
	w.RegisterActivityWithOptions(acts.PruneTemp, tactivity.RegisterOptions{Name: activities.PruneTempName})
	w.RegisterWorkflow(workflow.UploadWorkflow)

	zl.Info("worker started",
		zap.String("namespace", cfg.Namespace),
		zap.String("taskQueue", cfg.TaskQueue),
		zap.String("repo", cfg.RepoDir),
		zap.Int("connections", len(conns)),
		zap.String("metrics", cfg.MetricsAddr))
	if err := w.Run(worker.InterruptCh()); err != nil {
		zl.Fatal("worker failed", zap.Error(err))
	}
}
