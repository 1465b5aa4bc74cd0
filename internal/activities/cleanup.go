package activities

import (
	"context"

	"go.temporal.io/sdk/activity"
)

// PruneTemp removes partial files left in the repository working tree by
// uploads that were interrupted mid-write. It is safe to call at any time,
// including when the tree does not exist yet.
func (a *Activities) PruneTemp(ctx context.Context) (int, error) {
	n, err := a.tree.PruneTemp()
	if err != nil {
		return n, err
	}
	if n > 0 {
		activity.GetLogger(ctx).Info("Removed partial upload files", "count", n, "root", a.cfg.RepoDir)
	}
	return n, nil
}
