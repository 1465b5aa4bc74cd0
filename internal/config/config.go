package config

import (
	"os"
)

// Config is shared by the worker, API and CLI binaries.
type Config struct {
	TemporalAddress string
	Namespace       string
	TaskQueue       string
	// RepoDir is the DVC repository checkout uploads are written into.
	RepoDir string
	// LedgerDir holds the badger upload ledger; empty keeps it in memory.
	LedgerDir       string
	ConnectionsFile string
	MetricsAddr     string
	LogLevel        string
	Port            string
}

// FromEnv loads configuration from environment variables.
// Both TEMPORAL_TARGET_HOST and TEMPORAL_ADDRESS are honored for compatibility.
func FromEnv() Config {
	return Config{
		TemporalAddress: getenv("TEMPORAL_TARGET_HOST", getenv("TEMPORAL_ADDRESS", "localhost:7233")),
		Namespace:       getenv("TEMPORAL_NAMESPACE", "default"),
		TaskQueue:       getenv("TEMPORAL_TASK_QUEUE", "dvc-uploads"),
		RepoDir:         getenv("DVC_REPO_DIR", "/var/dvc-repo"),
		LedgerDir:       os.Getenv("DVC_LEDGER_DIR"),
		ConnectionsFile: os.Getenv("DVC_CONNECTIONS_FILE"),
		MetricsAddr:     getenv("METRICS_ADDR", ":9090"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		Port:            getenv("PORT", "8080"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
