package workflow

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/multierr"

	"github.com/yourorg/dvc-uploads/internal/activities"
	"github.com/yourorg/dvc-uploads/internal/types"
)

// UploadWorkflow writes every source of p into the repository working tree.
// Sources are independent and uploaded concurrently, one activity each; the
// workflow waits for all of them and fails if any failed.
func UploadWorkflow(ctx workflow.Context, p types.UploadParams) (types.UploadSummary, error) {
	if err := p.Validate(); err != nil {
		return types.UploadSummary{}, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidParams", err)
	}
	logger := workflow.GetLogger(ctx)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	pruneAO := ao
	pruneAO.StartToCloseTimeout = 5 * time.Minute
	pruneCtx := workflow.WithActivityOptions(ctx, pruneAO)

	if err := workflow.ExecuteActivity(pruneCtx, activities.PruneTempName).Get(ctx, nil); err != nil {
		return types.UploadSummary{}, err
	}

	futures := make([]workflow.Future, len(p.Sources))
	for i, s := range p.Sources {
		req := types.UploadRequest{Source: s, RunLabel: p.RunLabel}
		futures[i] = workflow.ExecuteActivity(ctx, activities.UploadSourceName, req)
	}

	var summary types.UploadSummary
	var failed []string
	var errs error
	for i := range futures {
		var res types.UploadResult
		if err := futures[i].Get(ctx, &res); err != nil {
			failed = append(failed, p.Sources[i].Destination)
			errs = multierr.Append(errs, err)
			continue
		}
		summary.Uploaded = append(summary.Uploaded, res)
		summary.Bytes += res.Bytes
	}

	if len(failed) > 0 {
		logger.Error("Uploads failed", "failed", failed, "succeeded", len(summary.Uploaded))
		msg := fmt.Sprintf("%d of %d uploads failed: %s", len(failed), len(p.Sources), strings.Join(failed, ", "))
		return types.UploadSummary{}, temporal.NewApplicationErrorWithCause(msg, "UploadsFailed", errs)
	}
	logger.Info("Uploads completed", "count", len(summary.Uploaded), "bytes", summary.Bytes)
	return summary, nil
}
