// pkg/pipeline/summary.go
package pipeline

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/validation"
)

// RunSummary contains the outcome of one pipeline run
type RunSummary struct {
	RunID     string        `json:"runId"`
	Operation string        `json:"operation"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`

	Success     bool   `json:"success"`
	FailedStage Stage  `json:"failedStage,omitempty"`
	Error       string `json:"error,omitempty"`

	PagesFetched       int              `json:"pagesFetched"`
	RecordsFetched     int              `json:"recordsFetched"`
	PartialFetch       bool             `json:"partialFetch"`
	CleaningOps        int              `json:"cleaningOps"`
	RowsCommitted      map[string]int64 `json:"rowsCommitted"`
	TransformedRows    int              `json:"transformedRows"`
	ClassifierCalls    int              `json:"classifierCalls"`
	ClassifierFailures int              `json:"classifierFailures"`
	Positives          int              `json:"positives"`

	SnapshotPath string             `json:"snapshotPath,omitempty"`
	SnapshotKey  string             `json:"snapshotKey,omitempty"`
	Report       *validation.Report `json:"report,omitempty"`
}

// Complete returns whether the run finished without a stage error
func (s *RunSummary) Complete() bool {
	return s.Success && s.FailedStage == ""
}

// Throughput returns fetched records per second
func (s *RunSummary) Throughput() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.RecordsFetched) / s.Duration.Seconds()
}

// summarize builds the summary from the final metrics
func summarize(runID, operation string, m *RunMetrics, runErr error) *RunSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make(map[string]int64, len(m.RowsCommitted))
	for table, n := range m.RowsCommitted {
		rows[table] = n
	}

	s := &RunSummary{
		RunID:              runID,
		Operation:          operation,
		StartTime:          m.StartTime,
		EndTime:            m.EndTime,
		Duration:           m.EndTime.Sub(m.StartTime),
		Success:            runErr == nil,
		PagesFetched:       m.PagesFetched,
		RecordsFetched:     m.RecordsFetched,
		PartialFetch:       m.PartialFetch,
		CleaningOps:        m.CleaningOps,
		RowsCommitted:      rows,
		TransformedRows:    m.TransformedRows,
		ClassifierCalls:    m.ClassifierCalls,
		ClassifierFailures: m.ClassifierFailures,
		Positives:          m.Positives,
	}

	if runErr != nil {
		s.Error = runErr.Error()
		var se *StageError
		if errors.As(runErr, &se) {
			s.FailedStage = se.Stage
		}
	}
	return s
}

// Log writes the summary as one structured line
func (s *RunSummary) Log(logger *zap.Logger) {
	fields := []zap.Field{
		zap.String("runId", s.RunID),
		zap.String("operation", s.Operation),
		zap.Bool("success", s.Success),
		zap.Duration("duration", s.Duration),
		zap.Int("pagesFetched", s.PagesFetched),
		zap.Int("recordsFetched", s.RecordsFetched),
		zap.Float64("recordsPerSecond", s.Throughput()),
		zap.Bool("partialFetch", s.PartialFetch),
		zap.Int("cleaningOps", s.CleaningOps),
		zap.Any("rowsCommitted", s.RowsCommitted),
		zap.Int("classifierCalls", s.ClassifierCalls),
		zap.Int("classifierFailures", s.ClassifierFailures),
	}
	if s.Success {
		logger.Info("Run completed", fields...)
		return
	}
	logger.Error("Run failed", append(fields,
		zap.String("failedStage", string(s.FailedStage)),
		zap.String("error", s.Error))...)
}
