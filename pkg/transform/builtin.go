// pkg/transform/builtin.go
package transform

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/committer"
)

// BuiltinRunner performs the transform in process through the committer
type BuiltinRunner struct {
	committer *committer.Committer
	logger    *zap.Logger
}

// NewBuiltinRunner creates a runner that reads and writes through c
func NewBuiltinRunner(c *committer.Committer, logger *zap.Logger) *BuiltinRunner {
	return &BuiltinRunner{
		committer: c,
		logger:    logger.Named("transform-builtin"),
	}
}

// Run reads trial_data_raw, transforms it and replaces trial_data_transformed
func (r *BuiltinRunner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	raw, err := r.committer.LoadRaw(ctx)
	if err != nil {
		return nil, err
	}

	transformed, stats, err := Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to transform raw trials: %w", err)
	}

	if _, err := r.committer.CommitTransformed(ctx, transformed); err != nil {
		return nil, err
	}

	result := &Result{
		Mode:       "builtin",
		RowsIn:     len(raw),
		RowsOut:    len(transformed),
		Dropped:    stats.Dropped,
		Duplicates: stats.Duplicates,
		Duration:   time.Since(start),
	}

	r.logger.Info("Transformed trials",
		zap.Int("rowsIn", result.RowsIn),
		zap.Int("rowsOut", result.RowsOut),
		zap.Int("dropped", result.Dropped),
		zap.Int("duplicates", result.Duplicates),
		zap.Duration("duration", result.Duration))

	return result, nil
}
