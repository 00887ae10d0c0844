// pkg/pipeline/metrics.go
package pipeline

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/classifier"
	"github.com/David-Botos/trial-ingress/pkg/committer"
	"github.com/David-Botos/trial-ingress/pkg/registry"
	"github.com/David-Botos/trial-ingress/pkg/transform"
)

// RunMetrics tracks the counters and stage timings of one run
type RunMetrics struct {
	mu     sync.Mutex
	logger *zap.Logger

	StartTime      time.Time
	EndTime        time.Time
	StageDurations map[Stage]time.Duration

	PagesFetched       int
	RecordsFetched     int
	PartialFetch       bool
	FetchFailureStatus int
	CleaningOps        int
	RowsCommitted      map[string]int64
	TransformedRows    int
	ClassifierCalls    int
	ClassifierFailures int
	Positives          int
	ErrorCounts        map[ErrorCategory]int
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		logger:         logger,
		StartTime:      time.Now(),
		StageDurations: make(map[Stage]time.Duration),
		RowsCommitted:  make(map[string]int64),
		ErrorCounts:    make(map[ErrorCategory]int),
	}
}

// StartStage logs the stage start and returns the func that ends it
func (m *RunMetrics) StartStage(stage Stage) func() {
	start := time.Now()
	m.logger.Info("Beginning stage", zap.String("stage", string(stage)))

	return func() {
		d := time.Since(start)
		m.mu.Lock()
		m.StageDurations[stage] += d
		m.mu.Unlock()
		m.logger.Info("Finishing stage",
			zap.String("stage", string(stage)),
			zap.Duration("duration", d))
	}
}

// RecordFetch records the outcome of the registry walk
func (m *RunMetrics) RecordFetch(result *registry.FetchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PagesFetched = result.Pages
	m.RecordsFetched = len(result.Records)
	m.PartialFetch = result.Partial
	m.FetchFailureStatus = result.FailureStatus
}

// RecordCleaning adds recorded cleaning operations
func (m *RunMetrics) RecordCleaning(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CleaningOps += n
}

// RecordCommit records the rows written to a table
func (m *RunMetrics) RecordCommit(result *committer.CommitResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RowsCommitted[result.Table] = result.RowsInserted
}

// RecordTransform records the transform output
func (m *RunMetrics) RecordTransform(result *transform.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransformedRows = result.RowsOut
}

// RecordClassification records classifier calls and failures
func (m *RunMetrics) RecordClassification(result *classifier.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClassifierCalls += result.Calls
	m.ClassifierFailures += result.Failures
	for _, l := range result.Labels {
		if l {
			m.Positives++
		}
	}
	if result.Failures > 0 {
		m.ErrorCounts[ErrorCategoryClassifier] += result.Failures
	}
}

// RecordError counts an error in its category
func (m *RunMetrics) RecordError(category ErrorCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCounts[category]++
}

// Complete marks the end of the run
func (m *RunMetrics) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

// Duration returns the run duration so far
func (m *RunMetrics) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// ToJSON converts the metrics to JSON
func (m *RunMetrics) ToJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stages := make(map[string]string, len(m.StageDurations))
	for s, d := range m.StageDurations {
		stages[string(s)] = d.String()
	}

	return json.Marshal(struct {
		StartTime          time.Time             `json:"startTime"`
		EndTime            time.Time             `json:"endTime"`
		Stages             map[string]string     `json:"stages"`
		PagesFetched       int                   `json:"pagesFetched"`
		RecordsFetched     int                   `json:"recordsFetched"`
		PartialFetch       bool                  `json:"partialFetch"`
		CleaningOps        int                   `json:"cleaningOps"`
		RowsCommitted      map[string]int64      `json:"rowsCommitted"`
		TransformedRows    int                   `json:"transformedRows"`
		ClassifierCalls    int                   `json:"classifierCalls"`
		ClassifierFailures int                   `json:"classifierFailures"`
		Positives          int                   `json:"positives"`
		ErrorCounts        map[ErrorCategory]int `json:"errorCounts"`
	}{
		m.StartTime, m.EndTime, stages,
		m.PagesFetched, m.RecordsFetched, m.PartialFetch, m.CleaningOps,
		m.RowsCommitted, m.TransformedRows,
		m.ClassifierCalls, m.ClassifierFailures, m.Positives,
		m.ErrorCounts,
	})
}
