package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/dvc-uploads/internal/activities"
	"github.com/yourorg/dvc-uploads/internal/ledger"
	"github.com/yourorg/dvc-uploads/internal/manifest"
	"github.com/yourorg/dvc-uploads/internal/storage"
	"github.com/yourorg/dvc-uploads/internal/types"
	"github.com/yourorg/dvc-uploads/internal/upload"
)

func newRunCmd(g *globals) *cobra.Command {
	var file string
	var parallel int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Upload every source of a manifest into a local repository checkout",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := manifest.Load(file)
			if err != nil {
				return err
			}
			conns, err := storage.LoadConnections(g.cfg.ConnectionsFile)
			if err != nil {
				return err
			}
			l, err := ledger.Open(g.cfg.LedgerDir)
			if err != nil {
				return err
			}
			defer l.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			acts := activities.New(activities.Config{RepoDir: g.cfg.RepoDir}, storage.NewS3(conns), l)
			return runUploads(ctx, g.log, acts, params, parallel)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "manifest YAML")
	cmd.Flags().StringVar(&g.cfg.RepoDir, "repo", g.cfg.RepoDir, "DVC repository checkout")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "maximum concurrent uploads")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// runUploads uploads every source with at most parallel in flight. One
// failure does not stop the others; all failures are returned together.
func runUploads(ctx context.Context, zl *zap.Logger, acts *activities.Activities, params types.UploadParams, parallel int) error {
	if parallel < 1 {
		parallel = 1
	}
	errs := make([]error, len(params.Sources))
	var eg errgroup.Group
	eg.SetLimit(parallel)
	for i, s := range params.Sources {
		eg.Go(func() error {
			start := time.Now()
			res, err := acts.Upload(ctx, types.UploadRequest{Source: s, RunLabel: params.RunLabel})
			if err != nil {
				zl.Error("upload failed", zap.String("destination", s.Destination), zap.Error(err))
				errs[i] = err
				return nil
			}
			zl.Info("uploaded",
				zap.String("destination", res.Destination),
				zap.String("source", res.Source),
				zap.Int64("bytes", res.Bytes),
				zap.Duration("took", time.Since(start)))
			return nil
		})
	}
	_ = eg.Wait()
	return multierr.Combine(errs...)
}

func newDescribeCmd(g *globals) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the destination and source of every manifest entry without reading any data",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := manifest.Load(file)
			if err != nil {
				return err
			}
			conns, err := storage.LoadConnections(g.cfg.ConnectionsFile)
			if err != nil {
				return err
			}
			objects := storage.NewS3(conns)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DESTINATION\tSOURCE")
			for _, s := range params.Sources {
				src, err := upload.FromSpec(s, objects)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\n", src.Destination(), src.Describe())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "manifest YAML")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSubmitCmd(g *globals) *cobra.Command {
	var file string
	var wait bool
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Start an UploadWorkflow for a manifest on Temporal",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := manifest.Load(file)
			if err != nil {
				return err
			}
			c, err := client.Dial(client.Options{HostPort: g.cfg.TemporalAddress, Namespace: g.cfg.Namespace})
			if err != nil {
				return fmt.Errorf("temporal client: %w", err)
			}
			defer c.Close()

			ctx := cmd.Context()
			run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{TaskQueue: g.cfg.TaskQueue}, "UploadWorkflow", params)
			if err != nil {
				return err
			}
			g.log.Info("workflow started", zap.String("workflowID", run.GetID()), zap.String("runID", run.GetRunID()))
			fmt.Fprintln(cmd.OutOrStdout(), run.GetID())
			if !wait {
				return nil
			}
			var sum types.UploadSummary
			if err := run.Get(ctx, &sum); err != nil {
				return err
			}
			g.log.Info("workflow completed", zap.Int("uploaded", len(sum.Uploaded)), zap.Int64("bytes", sum.Bytes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "manifest YAML")
	cmd.Flags().StringVar(&g.cfg.TaskQueue, "task-queue", g.cfg.TaskQueue, "Temporal task queue")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the workflow to finish")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newLedgerCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "ledger",
		Short: "List the last recorded upload of every destination",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ledger.Open(g.cfg.LedgerDir)
			if err != nil {
				return err
			}
			defer l.Close()
			recs, err := l.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DESTINATION\tSOURCE\tBYTES\tRUN\tUPLOADED")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.Destination, r.Source, r.Bytes, r.RunLabel, r.UploadedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}
