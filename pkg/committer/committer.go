// pkg/committer/committer.go
package committer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/connector"
	"github.com/David-Botos/trial-ingress/pkg/converter"
	"github.com/David-Botos/trial-ingress/pkg/model"
)

// DefaultBatchSize is the number of rows per INSERT statement
const DefaultBatchSize = 500

// Committer replaces the trial tables with a fresh record set and reads them back
type Committer struct {
	conn      connector.DatabaseConnector
	conv      *converter.TypeConverter
	batchSize int
	timeout   time.Duration
	logger    *zap.Logger
}

// CommitResult summarizes one table replacement
type CommitResult struct {
	Table        string
	RowsInserted int64
	Batches      int
	Duration     time.Duration
}

// NewCommitter creates a committer over an open connection
func NewCommitter(conn connector.DatabaseConnector, logger *zap.Logger) *Committer {
	return &Committer{
		conn:      conn,
		conv:      converter.NewTypeConverter(logger, conn.Dialect()),
		batchSize: DefaultBatchSize,
		timeout:   5 * time.Minute,
		logger:    logger.Named("committer"),
	}
}

// WithBatchSize sets the number of rows per INSERT statement
func (c *Committer) WithBatchSize(batchSize int) *Committer {
	if batchSize > 0 {
		c.batchSize = batchSize
	}
	return c
}

// WithEmptyStringAsNull stores empty strings as NULL. Reads coalesce NULL
// back to "", so loaded records are unchanged.
func (c *Committer) WithEmptyStringAsNull(enabled bool) *Committer {
	cfg := converter.DefaultConfig(c.conn.Dialect())
	cfg.EmptyStringAsNull = enabled
	c.conv = converter.NewTypeConverterWithConfig(c.logger, cfg)
	return c
}

// WithTimeout bounds every commit and read
func (c *Committer) WithTimeout(timeout time.Duration) *Committer {
	if timeout > 0 {
		c.timeout = timeout
	}
	return c
}

// CommitRaw replaces trial_data_raw with the records
func (c *Committer) CommitRaw(ctx context.Context, records []model.RawTrialRecord) (*CommitResult, error) {
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return c.replaceTable(ctx, c.metadata(model.RawTableMetadata()), rows)
}

// CommitTransformed replaces trial_data_transformed with the records
func (c *Committer) CommitTransformed(ctx context.Context, records []model.TransformedTrialRecord) (*CommitResult, error) {
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return c.replaceTable(ctx, c.metadata(model.TransformedTableMetadata()), rows)
}

// CommitInferred replaces trial_data_inferred with the records
func (c *Committer) CommitInferred(ctx context.Context, records []model.InferredTrialRecord) (*CommitResult, error) {
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return c.replaceTable(ctx, c.metadata(model.InferredTableMetadata()), rows)
}

// metadata places the table in the connection's schema
func (c *Committer) metadata(m *model.TableMetadata) *model.TableMetadata {
	m.Schema = c.conn.Schema()
	return m
}

// replaceTable drops and recreates the table, then bulk inserts the rows.
// Everything runs in one transaction, so engines with transactional DDL
// (SQLite, PostgreSQL) either keep the previous contents or the new ones.
// Snowflake commits DDL implicitly, which makes the replacement best-effort.
func (c *Committer) replaceTable(ctx context.Context, metadata *model.TableMetadata, rows [][]interface{}) (result *CommitResult, err error) {
	start := time.Now()
	result = &CommitResult{Table: metadata.Table}

	c.logger.Info("Replacing table",
		zap.String("table", metadata.Table),
		zap.Int("rows", len(rows)),
		zap.String("dialect", string(c.conv.Dialect())))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ddl, err := c.conv.ReplaceTableStatements(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to build DDL for %s: %w", metadata.Table, err)
	}

	tx, err := c.conn.DBX().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				c.logger.Error("Failed to rollback transaction",
					zap.String("table", metadata.Table),
					zap.Error(rbErr))
			}
		}
	}()

	for _, stmt := range ddl {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to recreate table %s: %w", metadata.Table, err)
		}
	}

	if err = c.insertBatches(ctx, tx, metadata, rows, result); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit %s: %w", metadata.Table, err)
	}

	result.Duration = time.Since(start)
	c.logger.Info("Replaced table",
		zap.String("table", metadata.Table),
		zap.Int64("rowsInserted", result.RowsInserted),
		zap.Int("batches", result.Batches),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// insertBatches converts and inserts rows batchSize at a time
func (c *Committer) insertBatches(
	ctx context.Context,
	tx *sqlx.Tx,
	metadata *model.TableMetadata,
	rows [][]interface{},
	result *CommitResult,
) error {
	width := len(metadata.Columns)

	for start := 0; start < len(rows); start += c.batchSize {
		end := min(start+c.batchSize, len(rows))
		batch := rows[start:end]

		args := make([]interface{}, 0, len(batch)*width)
		for i, row := range batch {
			converted, err := c.conv.ConvertRow(metadata, row)
			if err != nil {
				return fmt.Errorf("row %d of %s: %w", start+i, metadata.Table, err)
			}
			args = append(args, converted...)
		}

		res, err := tx.ExecContext(ctx, c.conv.InsertStatement(metadata, len(batch)), args...)
		if err != nil {
			return fmt.Errorf("batch insert into %s failed: %w", metadata.Table, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			c.logger.Warn("Couldn't get rows affected", zap.Error(err))
			affected = int64(len(batch))
		}
		result.RowsInserted += affected
		result.Batches++

		c.logger.Debug("Inserted batch",
			zap.String("table", metadata.Table),
			zap.Int("batch", result.Batches),
			zap.Int64("totalRows", result.RowsInserted))
	}

	return nil
}
