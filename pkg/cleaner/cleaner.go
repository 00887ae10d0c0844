// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/connector"
	"github.com/David-Botos/trial-ingress/pkg/converter"
	"github.com/David-Botos/trial-ingress/pkg/model"
	"github.com/David-Botos/trial-ingress/pkg/registry"
)

// DataCleaner normalizes extracted trial records during ingestion and keeps an
// audit trail of every value it changed
type DataCleaner struct {
	conn      connector.DatabaseConnector
	conv      *converter.TypeConverter
	metadata  *model.TableMetadata
	batchSize int
	logger    *zap.Logger
	now       func() time.Time
}

// NewDataCleaner creates a new DataCleaner instance and ensures the tracking table exists
func NewDataCleaner(ctx context.Context, conn connector.DatabaseConnector, logger *zap.Logger) (*DataCleaner, error) {
	if conn == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	metadata := model.CleaningTableMetadata()
	metadata.Schema = conn.Schema()

	cleaner := &DataCleaner{
		conn:      conn,
		conv:      converter.NewTypeConverter(logger, conn.Dialect()),
		metadata:  metadata,
		batchSize: 200,
		logger:    logger.Named("cleaner"),
		now:       time.Now,
	}

	if err := cleaner.setupCleaningTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup cleaning table: %w", err)
	}

	return cleaner, nil
}

// setupCleaningTable ensures the cleaned_on_ingress tracking table exists
func (c *DataCleaner) setupCleaningTable(ctx context.Context) error {
	stmt, err := c.conv.CreateTableIfNotExistsStatement(c.metadata)
	if err != nil {
		return err
	}

	if _, err := c.conn.ExecWithTimeout(ctx, stmt, 10*time.Second); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	c.logger.Info("Ensured cleaning table exists", zap.String("table", c.metadata.Table))
	return nil
}

// CleanStudy extracts one study and normalizes the result: scalar attributes
// are trimmed and delimiter collisions inside list elements are replaced.
func (c *DataCleaner) CleanStudy(runID string, study registry.Study) (model.RawTrialRecord, []model.CleaningOperation) {
	rec := registry.ExtractScalars(study)
	lists := registry.ExtractLists(study)

	var ops []model.CleaningOperation

	rowID := strings.TrimSpace(rec.NCTID)
	for _, field := range scalarFields(&rec) {
		cleaned, op := trimValue(*field.value, field.column, rowID)
		*field.value = cleaned
		if op != nil {
			ops = append(ops, *op)
		}
	}

	conditions, condOps := cleanComponents(lists.Conditions, "conditions", rowID)
	interventions, intOps := cleanComponents(lists.Interventions, "interventions", rowID)
	phases, phaseOps := cleanComponents(lists.Phases, "phases", rowID)
	ops = append(ops, condOps...)
	ops = append(ops, intOps...)
	ops = append(ops, phaseOps...)

	cleanedAt := c.now()
	for i := range ops {
		ops[i].RunID = runID
		ops[i].TableName = model.RawTable
		ops[i].CleanedAt = cleanedAt
	}

	return rec.WithLists(conditions, interventions, phases), ops
}

// Extractor returns a registry.ExtractFunc that cleans every study and
// collects the operations in the returned Collector
func (c *DataCleaner) Extractor(runID string) (registry.ExtractFunc, *Collector) {
	collector := &Collector{}
	return func(study registry.Study) model.RawTrialRecord {
		rec, ops := c.CleanStudy(runID, study)
		collector.add(ops)
		return rec
	}, collector
}

// Collector gathers cleaning operations produced during a fetch
type Collector struct {
	mu  sync.Mutex
	ops []model.CleaningOperation
}

func (c *Collector) add(ops []model.CleaningOperation) {
	if len(ops) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, ops...)
}

// Operations returns a copy of the collected operations
func (c *Collector) Operations() []model.CleaningOperation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.CleaningOperation, len(c.ops))
	copy(out, c.ops)
	return out
}

// RecordCleaningOperations batch inserts cleaning operations into the tracking table
func (c *DataCleaner) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := c.conn.DBX().BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				c.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	for start := 0; start < len(operations); start += c.batchSize {
		end := min(start+c.batchSize, len(operations))
		batch := operations[start:end]

		args := make([]interface{}, 0, len(batch)*len(c.metadata.Columns))
		for _, op := range batch {
			row, convErr := c.conv.ConvertRow(c.metadata, op.Values())
			if convErr != nil {
				return fmt.Errorf("failed to convert cleaning operation: %w", convErr)
			}
			args = append(args, row...)
		}

		if _, err = tx.ExecContext(ctx, c.conv.InsertStatement(c.metadata, len(batch)), args...); err != nil {
			return fmt.Errorf("failed to insert cleaning operations: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}

// CountOperations returns how many operations a run recorded
func (c *DataCleaner) CountOperations(ctx context.Context, runID string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s",
		c.conv.QualifiedTableName(c.metadata.Schema, c.metadata.Table),
		c.conv.QuoteIdentifier("run_id"),
		c.conv.Placeholder(1))

	var counts []int
	if err := c.conn.SelectWithTimeout(ctx, &counts, query, 30*time.Second, runID); err != nil {
		return 0, fmt.Errorf("failed to count cleaning operations: %w", err)
	}
	if len(counts) == 0 {
		return 0, nil
	}
	return counts[0], nil
}
