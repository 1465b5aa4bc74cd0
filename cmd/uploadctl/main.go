// Command uploadctl runs, inspects and submits DVC upload manifests.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourorg/dvc-uploads/internal/config"
	"github.com/yourorg/dvc-uploads/internal/logging"
)

type globals struct {
	cfg      config.Config
	logLevel string
	log      *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{cfg: config.FromEnv()}
	root := &cobra.Command{
		Use:           "uploadctl",
		Short:         "Upload files, objects and literals into a DVC repository",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			g.log = logging.New(g.logLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = g.log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", g.cfg.LogLevel, "debug|info|warn|error")
	root.PersistentFlags().StringVar(&g.cfg.LedgerDir, "ledger", g.cfg.LedgerDir, "upload ledger directory (empty: in-memory)")
	root.PersistentFlags().StringVar(&g.cfg.ConnectionsFile, "connections", g.cfg.ConnectionsFile, "object-store connections YAML")

	root.AddCommand(newRunCmd(g), newDescribeCmd(g), newSubmitCmd(g), newLedgerCmd(g))
	return root
}
