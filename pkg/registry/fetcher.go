// pkg/registry/fetcher.go
package registry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/model"
)

// FetchResult is the outcome of one ingestion walk
type FetchResult struct {
	Records       []model.RawTrialRecord
	Pages         int    // pages successfully decoded
	Studies       int    // studies seen across those pages
	Partial       bool   // true when a page request failed and the walk stopped early
	FailureStatus int    // HTTP status of the failed page, 0 for transport errors
	FailureReason string // message of the failed page request
	Duration      time.Duration
}

// ExtractFunc converts one raw study into a record
type ExtractFunc func(Study) model.RawTrialRecord

// Fetcher accumulates extracted records across every registry page
type Fetcher struct {
	client  *Client
	extract ExtractFunc
	logger  *zap.Logger
}

// NewFetcher creates a new fetcher that extracts with ExtractStudy
func NewFetcher(client *Client, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		extract: ExtractStudy,
		logger:  logger.Named("registry-fetcher"),
	}
}

// WithExtractor replaces the per-study extraction, e.g. with a cleaning extractor
func (f *Fetcher) WithExtractor(fn ExtractFunc) *Fetcher {
	f.extract = fn
	return f
}

// Fetch walks every page of the query and extracts each study.
// A failed page ends the walk but keeps what was gathered (fail-soft, no
// retry). The only error returned is a cancelled or expired ctx.
func (f *Fetcher) Fetch(ctx context.Context, q Query) (*FetchResult, error) {
	start := time.Now()
	result := &FetchResult{Records: make([]model.RawTrialRecord, 0)}

	for page, err := range NewPager(f.client, q).Pages(ctx) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			result.Partial = true
			result.FailureStatus = StatusCode(err)
			result.FailureReason = err.Error()
			f.logger.Error("Failed to fetch data",
				zap.Int("statusCode", result.FailureStatus),
				zap.Int("pagesFetched", result.Pages),
				zap.Int("recordsKept", len(result.Records)),
				zap.Error(err))
			break
		}

		result.Pages++
		result.Studies += len(page.Studies)
		for _, study := range page.Studies {
			result.Records = append(result.Records, f.extract(study))
		}

		f.logger.Debug("Fetched page",
			zap.Int("page", result.Pages),
			zap.Int("studies", len(page.Studies)),
			zap.Bool("hasNextPage", page.NextPageToken != ""))
	}

	result.Duration = time.Since(start)
	f.logger.Info("Finished fetching",
		zap.Int("pages", result.Pages),
		zap.Int("records", len(result.Records)),
		zap.Bool("partial", result.Partial),
		zap.Duration("duration", result.Duration))

	return result, nil
}
