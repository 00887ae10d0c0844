// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/classifier"
	"github.com/David-Botos/trial-ingress/pkg/cleaner"
	"github.com/David-Botos/trial-ingress/pkg/committer"
	"github.com/David-Botos/trial-ingress/pkg/config"
	"github.com/David-Botos/trial-ingress/pkg/connector"
	"github.com/David-Botos/trial-ingress/pkg/converter"
	"github.com/David-Botos/trial-ingress/pkg/model"
	"github.com/David-Botos/trial-ingress/pkg/registry"
	"github.com/David-Botos/trial-ingress/pkg/snapshot"
	"github.com/David-Botos/trial-ingress/pkg/transform"
	"github.com/David-Botos/trial-ingress/pkg/validation"
)

// Operation names accepted by Execute
const (
	OperationRun      = "run"
	OperationIngest   = "ingest"
	OperationValidate = "validate"
)

// StorageOpener opens a storage connection owned by the caller
type StorageOpener interface {
	Create(ctx context.Context) (connector.DatabaseConnector, error)
}

// Dependencies are the external collaborators of a pipeline
type Dependencies struct {
	Storage  StorageOpener
	Registry *registry.Client
	Backend  classifier.Backend    // required by Run only
	S3       snapshot.PutObjectAPI // nil disables the S3 archive

	// Runner overrides the configured transform runner
	Runner func(*committer.Committer) (transform.Runner, error)
}

// Pipeline runs ingestion, transformation, inference and validation
type Pipeline struct {
	cfg    *config.Config
	deps   Dependencies
	logger *zap.Logger
}

// New creates a pipeline
func New(cfg *config.Config, deps Dependencies, logger *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if deps.Storage == nil {
		return nil, errors.New("storage opener cannot be nil")
	}
	if deps.Registry == nil {
		return nil, errors.New("registry client cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, deps: deps, logger: logger.Named("pipeline")}, nil
}

// NewFromConfig wires the production collaborators from cfg. The classifier
// backend is only built when withBackend is set, so ingest and validate run
// without model credentials.
func NewFromConfig(ctx context.Context, cfg *config.Config, withBackend bool, logger *zap.Logger) (*Pipeline, error) {
	deps := Dependencies{
		Storage:  connector.NewConnectorFactory(&cfg.Storage, logger),
		Registry: registry.NewClient(cfg.Registry.BaseURL, cfg.Registry.Timeout, logger),
	}
	if withBackend {
		backend, err := classifier.NewBackend(ctx, cfg.Classifier, logger)
		if err != nil {
			return nil, err
		}
		deps.Backend = backend
	}
	if cfg.Snapshot.S3Bucket != "" {
		client, err := snapshot.NewS3Client(ctx)
		if err != nil {
			return nil, err
		}
		deps.S3 = client
	}

	return New(cfg, deps, logger)
}

// Execute runs the named operation
func (p *Pipeline) Execute(ctx context.Context, operation string) (*RunSummary, error) {
	switch operation {
	case OperationRun:
		return p.Run(ctx)
	case OperationIngest:
		return p.Ingest(ctx)
	case OperationValidate:
		return p.Validate(ctx)
	default:
		return nil, fmt.Errorf("unknown operation: %q", operation)
	}
}

// Run performs one full run: fetch, clean, commit raw, snapshot, transform,
// classify, commit inferred and score against the gold set
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	if p.deps.Backend == nil {
		return nil, errors.New("classifier backend is required for a full run")
	}
	return p.execute(ctx, OperationRun, func(r *run) error {
		if err := r.ingest(ctx); err != nil {
			return err
		}
		if err := r.transform(ctx); err != nil {
			return err
		}
		if err := r.infer(ctx); err != nil {
			return err
		}
		return r.validate(ctx)
	})
}

// Ingest fetches, cleans, commits and snapshots the raw trials only
func (p *Pipeline) Ingest(ctx context.Context) (*RunSummary, error) {
	return p.execute(ctx, OperationIngest, func(r *run) error {
		return r.ingest(ctx)
	})
}

// Validate scores the predictions already stored in trial_data_inferred
func (p *Pipeline) Validate(ctx context.Context) (*RunSummary, error) {
	return p.execute(ctx, OperationValidate, func(r *run) error {
		return r.validate(ctx)
	})
}

// run carries the state of one execution
type run struct {
	p         *Pipeline
	id        string
	conn      connector.DatabaseConnector
	committer *committer.Committer
	metrics   *RunMetrics
	logger    *zap.Logger
	summary   *RunSummary
}

func (p *Pipeline) execute(ctx context.Context, operation string, body func(*run) error) (*RunSummary, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("runId", runID), zap.String("operation", operation))
	metrics := NewRunMetrics(logger)
	logger.Info("Beginning run")

	r := &run{p: p, id: runID, metrics: metrics, logger: logger, summary: &RunSummary{}}

	err := func() error {
		done := metrics.StartStage(StageConnect)
		conn, err := p.deps.Storage.Create(ctx)
		done()
		if err != nil {
			return NewStageError(StageConnect, err)
		}
		defer func() {
			if cerr := conn.Close(); cerr != nil {
				logger.Warn("Failed to close storage connection", zap.Error(cerr))
			}
		}()

		r.conn = conn
		r.committer = committer.NewCommitter(conn, logger).
			WithBatchSize(p.cfg.Storage.BatchSize).
			WithEmptyStringAsNull(p.cfg.Storage.EmptyStringAsNull)
		return body(r)
	}()

	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			metrics.RecordError(se.Category)
		}
	}
	metrics.Complete()
	if data, jerr := metrics.ToJSON(); jerr == nil {
		logger.Debug("Run metrics",
			zap.Duration("duration", metrics.Duration()),
			zap.ByteString("metrics", data))
	}

	summary := summarize(runID, operation, metrics, err)
	summary.SnapshotPath = r.summary.SnapshotPath
	summary.SnapshotKey = r.summary.SnapshotKey
	summary.Report = r.summary.Report
	summary.Log(logger)

	return summary, err
}

// stage times fn and wraps its error with the stage
func (r *run) stage(stage Stage, fn func() error) error {
	done := r.metrics.StartStage(stage)
	defer done()
	if err := fn(); err != nil {
		return NewStageError(stage, err)
	}
	return nil
}

func (r *run) ingest(ctx context.Context) error {
	var records []model.RawTrialRecord

	err := r.stage(StageIngest, func() error {
		dc, err := cleaner.NewDataCleaner(ctx, r.conn, r.logger)
		if err != nil {
			return err
		}
		extract, collector := dc.Extractor(r.id)

		q := r.p.cfg.Registry
		result, err := registry.NewFetcher(r.p.deps.Registry, r.logger).
			WithExtractor(extract).
			Fetch(ctx, registry.Query{
				Condition: q.Condition,
				Location:  q.Location,
				Fields:    q.Fields,
				PageSize:  q.PageSize,
			})
		if err != nil {
			return err
		}
		r.metrics.RecordFetch(result)
		if result.Partial {
			r.metrics.RecordError(ErrorCategoryTransport)
		}
		records = result.Records

		ops := collector.Operations()
		if err := dc.RecordCleaningOperations(ctx, ops); err != nil {
			return err
		}
		r.metrics.RecordCleaning(len(ops))
		return nil
	})
	if err != nil {
		return err
	}

	err = r.stage(StageCommitRaw, func() error {
		result, err := r.committer.CommitRaw(ctx, records)
		if err != nil {
			return err
		}
		r.metrics.RecordCommit(result)

		check, err := r.committer.VerifyRowCount(ctx, model.RawTable, int64(len(records)))
		if err != nil {
			return err
		}
		if !check.Matches() {
			return fmt.Errorf("row count mismatch in %s: expected %d, found %d",
				check.Table, check.Expected, check.Actual)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The snapshot is an export of committed data; failing it does not
	// invalidate the run.
	if err := r.stage(StageSnapshot, func() error { return r.snapshot(ctx, records) }); err != nil {
		r.metrics.RecordError(ErrorCategorySnapshot)
		r.logger.Warn("Snapshot failed", zap.Error(err))
	}
	return nil
}

func (r *run) snapshot(ctx context.Context, records []model.RawTrialRecord) error {
	cfg := r.p.cfg.Snapshot
	if cfg.CSVPath == "" {
		return nil
	}

	writer := snapshot.NewCSVWriter(cfg.CSVPath, r.logger)
	if err := writer.Write(records); err != nil {
		return err
	}
	r.summary.SnapshotPath = writer.Path()

	if r.p.deps.S3 == nil || cfg.S3Bucket == "" {
		return nil
	}
	uploader, err := snapshot.NewS3Uploader(r.p.deps.S3, cfg.S3Bucket, cfg.S3Prefix, r.logger)
	if err != nil {
		return err
	}
	key, err := uploader.UploadFile(ctx, r.id, writer.Path())
	if err != nil {
		return err
	}
	r.summary.SnapshotKey = key
	return nil
}

func (r *run) newRunner() (transform.Runner, error) {
	if r.p.deps.Runner != nil {
		return r.p.deps.Runner(r.committer)
	}
	cfg := r.p.cfg.Transform
	if cfg.Mode == "command" {
		return transform.NewCommandRunner(cfg.Command, cfg.Dir, r.logger)
	}
	return transform.NewBuiltinRunner(r.committer, r.logger), nil
}

func (r *run) transform(ctx context.Context) error {
	return r.stage(StageTransform, func() error {
		runner, err := r.newRunner()
		if err != nil {
			return err
		}
		result, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		r.metrics.RecordTransform(result)
		return nil
	})
}

func (r *run) infer(ctx context.Context) error {
	var inferred []model.InferredTrialRecord

	err := r.stage(StageInfer, func() error {
		var priority []string
		if r.p.cfg.Inference.PrioritizeGold {
			priority = validation.GoldIDs()
		}
		rows, err := r.committer.LoadTransformed(ctx, r.p.cfg.Inference.Limit, priority)
		if err != nil {
			return err
		}

		aggregated := make([]string, len(rows))
		for i, row := range rows {
			interventions, err := converter.DecodeList(row.InterventionsArray)
			if err != nil {
				r.logger.Warn("Unreadable interventionsArray, classifying an empty list",
					zap.String("nctId", row.NCTID),
					zap.Error(err))
				interventions = nil
			}
			aggregated[i] = classifier.AggregateInterventions(interventions)
		}

		cfg := r.p.cfg.Classifier
		adapter := classifier.NewAdapter(r.p.deps.Backend, cfg.Timeout, cfg.Concurrency, r.logger)
		result, err := adapter.Classify(ctx, aggregated)
		if err != nil {
			return err
		}
		r.metrics.RecordClassification(result)

		inferred = make([]model.InferredTrialRecord, len(rows))
		for i, row := range rows {
			inferred[i] = model.InferredTrialRecord{
				RawTrialRecord: row.RawTrialRecord,
				ContainsChemo:  result.Labels[i],
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return r.stage(StageCommitInferred, func() error {
		result, err := r.committer.CommitInferred(ctx, inferred)
		if err != nil {
			return err
		}
		r.metrics.RecordCommit(result)
		return nil
	})
}

func (r *run) validate(ctx context.Context) error {
	return r.stage(StageValidate, func() error {
		predictions, err := r.committer.LoadPredictions(ctx, validation.GoldIDs())
		if err != nil {
			return err
		}
		report := validation.ScoreGold(predictions)
		report.Log(r.logger)
		r.summary.Report = &report
		return nil
	})
}
