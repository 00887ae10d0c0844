// pkg/committer/reader.go
package committer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/model"
)

// selectList renders the columns as text, mapping NULL to "" so rows written
// by an external transform scan into plain string fields
func (c *Committer) selectList(columns []string) string {
	parts := make([]string, len(columns))
	for i, name := range columns {
		q := c.conv.QuoteIdentifier(name)
		parts[i] = fmt.Sprintf("COALESCE(CAST(%s AS TEXT), '') AS %s", q, q)
	}
	return strings.Join(parts, ", ")
}

func (c *Committer) table(name string) string {
	return c.conv.QualifiedTableName(c.conn.Schema(), name)
}

// inList returns "(p1, p2, ...)" starting at bind position start
func (c *Committer) inList(start, n int) string {
	return "(" + c.conv.Placeholders(start, n) + ")"
}

// LoadRaw reads every row of trial_data_raw
func (c *Committer) LoadRaw(ctx context.Context) ([]model.RawTrialRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", c.selectList(model.RawColumns), c.table(model.RawTable))

	var records []model.RawTrialRecord
	if err := c.conn.SelectWithTimeout(ctx, &records, query, c.timeout); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", model.RawTable, err)
	}

	c.logger.Info("Loaded raw trials", zap.Int("rows", len(records)))
	return records, nil
}

// LoadTransformed reads up to limit rows of trial_data_transformed (limit <= 0
// reads all). Rows whose nctId is in priorityIDs sort first, so a limited run
// still covers them.
func (c *Committer) LoadTransformed(ctx context.Context, limit int, priorityIDs []string) ([]model.TransformedTrialRecord, error) {
	columns := append(append([]string{}, model.RawColumns...), model.InterventionsArrayColumn)

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", c.selectList(columns), c.table(model.TransformedTable))

	args := make([]interface{}, 0, len(priorityIDs))
	if len(priorityIDs) > 0 {
		fmt.Fprintf(&sb, " ORDER BY CASE WHEN %s IN %s THEN 0 ELSE 1 END",
			c.conv.QuoteIdentifier("nctId"), c.inList(1, len(priorityIDs)))
		for _, id := range priorityIDs {
			args = append(args, id)
		}
	}
	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", limit)
	}

	var records []model.TransformedTrialRecord
	if err := c.conn.SelectWithTimeout(ctx, &records, sb.String(), c.timeout, args...); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", model.TransformedTable, err)
	}

	c.logger.Info("Loaded transformed trials",
		zap.Int("rows", len(records)),
		zap.Int("limit", limit),
		zap.Int("priorityIds", len(priorityIDs)))
	return records, nil
}

type prediction struct {
	NCTID         string       `db:"nctId"`
	ContainsChemo sql.NullBool `db:"contains_chemo"`
}

// LoadPredictions reads contains_chemo from trial_data_inferred for the ids.
// Ids without a row, or with a NULL prediction, are absent from the map.
func (c *Committer) LoadPredictions(ctx context.Context, ids []string) (map[string]bool, error) {
	predictions := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return predictions, nil
	}

	query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IN %s",
		c.conv.QuoteIdentifier("nctId"),
		c.conv.QuoteIdentifier(model.ContainsChemoColumn),
		c.table(model.InferredTable),
		c.conv.QuoteIdentifier("nctId"),
		c.inList(1, len(ids)))

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	var rows []prediction
	if err := c.conn.SelectWithTimeout(ctx, &rows, query, c.timeout, args...); err != nil {
		return nil, fmt.Errorf("failed to load predictions: %w", err)
	}

	for _, r := range rows {
		if r.ContainsChemo.Valid {
			predictions[r.NCTID] = r.ContainsChemo.Bool
		}
	}
	return predictions, nil
}
