package activities

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"syscall"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/yourorg/dvc-uploads/internal/ledger"
	znmetrics "github.com/yourorg/dvc-uploads/internal/metrics"
	"github.com/yourorg/dvc-uploads/internal/repo"
	"github.com/yourorg/dvc-uploads/internal/storage"
	"github.com/yourorg/dvc-uploads/internal/types"
	"github.com/yourorg/dvc-uploads/internal/upload"
)

// Registered activity names; workflows refer to them by string.
const (
	UploadSourceName = "Activities.UploadSource"
	PruneTempName    = "Activities.PruneTemp"
)

// ErrInvalidSource marks specs that can never be uploaded as given.
var ErrInvalidSource = errors.New("invalid source")

type Config struct {
	// RepoDir is the DVC repository checkout uploads are written into.
	RepoDir string
}

type Activities struct {
	cfg     Config
	objects upload.ObjectReader
	tree    *repo.Workdir
	ledger  *ledger.Ledger
}

// New wires the activities. objects and ledger may be nil: object-store
// sources are then rejected and no ledger records are kept.
func New(cfg Config, objects upload.ObjectReader, l *ledger.Ledger) *Activities {
	return &Activities{cfg: cfg, objects: objects, tree: repo.New(cfg.RepoDir), ledger: l}
}

// Upload performs one scoped acquisition of the source described by req and
// writes it into the repository working tree. It is the body of UploadSource
// and is also used directly by the CLI.
func (a *Activities) Upload(ctx context.Context, req types.UploadRequest) (types.UploadResult, error) {
	spec := req.Source
	src, err := upload.FromSpec(spec, a.objects)
	if err != nil {
		znmetrics.Uploads.WithLabelValues(spec.Kind, znmetrics.OutcomeFailed).Inc()
		return types.UploadResult{}, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}

	n, err := upload.Transfer(ctx, src, a.tree)
	if err != nil {
		outcome := znmetrics.OutcomeFailed
		var oe *upload.OpenError
		if errors.As(err, &oe) {
			outcome = znmetrics.OutcomeOpenFailed
		}
		var ce *upload.CloseError
		if errors.As(err, &ce) {
			znmetrics.CloseFailures.Inc()
		}
		znmetrics.Uploads.WithLabelValues(spec.Kind, outcome).Inc()
		return types.UploadResult{}, err
	}
	znmetrics.Uploads.WithLabelValues(spec.Kind, znmetrics.OutcomeOK).Inc()
	znmetrics.BytesUploaded.Add(float64(n))

	res := types.UploadResult{Destination: src.Destination(), Source: src.Describe(), Bytes: n}
	if a.ledger != nil {
		err := a.ledger.Put(ledger.Record{
			Destination: res.Destination,
			Source:      res.Source,
			Bytes:       res.Bytes,
			RunLabel:    req.RunLabel,
		})
		if err != nil {
			return res, fmt.Errorf("record %s in ledger: %w", res.Destination, err)
		}
	}
	return res, nil
}

// UploadSource is the Temporal activity around Upload. Invalid specs and
// missing sources fail without retry; everything else is left to the
// workflow's retry policy.
func (a *Activities) UploadSource(ctx context.Context, req types.UploadRequest) (types.UploadResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Starting upload", "destination", req.Source.Destination, "kind", req.Source.Kind)

	res, err := a.Upload(ctx, req)
	if err != nil {
		logger.Error("Upload failed", "destination", req.Source.Destination, "error", err)
		var oe *upload.OpenError
		switch {
		case errors.As(err, &oe) && (errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrNotFound)):
			return types.UploadResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "SourceMissing", err)
		case errors.As(err, &oe) && (errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EISDIR)):
			return types.UploadResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "SourceUnreadable", err)
		case errors.Is(err, ErrInvalidSource):
			return types.UploadResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidSource", err)
		}
		return types.UploadResult{}, err
	}

	logger.Info("Completed upload", "destination", res.Destination, "source", res.Source, "bytes", res.Bytes)
	return res, nil
}
