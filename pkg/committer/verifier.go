// pkg/committer/verifier.go
package committer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RowCountCheck is the outcome of a post-commit row count verification
type RowCountCheck struct {
	Table    string
	Expected int64
	Actual   int64
}

// Matches reports whether the table holds exactly the expected rows
func (r RowCountCheck) Matches() bool {
	return r.Expected == r.Actual
}

// Difference returns expected minus actual
func (r RowCountCheck) Difference() int64 {
	return r.Expected - r.Actual
}

// VerifyRowCount counts the rows of a committed table and compares them with expected
func (c *Committer) VerifyRowCount(ctx context.Context, table string, expected int64) (*RowCountCheck, error) {
	c.logger.Info("Verifying row count", zap.String("table", table))

	var counts []int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.table(table))
	if err := c.conn.SelectWithTimeout(ctx, &counts, query, c.timeout); err != nil {
		return nil, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no results returned from count query on %s", table)
	}

	check := &RowCountCheck{Table: table, Expected: expected, Actual: counts[0]}
	if check.Matches() {
		c.logger.Info("Row count verification successful",
			zap.String("table", table),
			zap.Int64("count", check.Actual))
	} else {
		c.logger.Warn("Row count mismatch",
			zap.String("table", table),
			zap.Int64("expectedCount", check.Expected),
			zap.Int64("actualCount", check.Actual),
			zap.Int64("difference", check.Difference()))
	}

	return check, nil
}
