// pkg/classifier/classifier.go
package classifier

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Instruction is the fixed system prompt sent with every intervention list
const Instruction = "If any of the following treatments are typically considered chemotherapy, answer Y. If not, answer N. "

// PositiveAnswer is the only response coerced to true
const PositiveAnswer = "Y"

// InterventionSeparator joins a trial's interventions into one prompt. It
// differs from the storage delimiter on purpose.
const InterventionSeparator = ", "

// Backend is a synchronous text completion service
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Coerce maps a raw completion to a label: true iff the text is exactly "Y".
// "N", "", "Yes", "y" and anything else are false.
func Coerce(response string) bool {
	return response == PositiveAnswer
}

// AggregateInterventions joins a trial's intervention names into one prompt
func AggregateInterventions(interventions []string) string {
	return strings.Join(interventions, InterventionSeparator)
}

// Result holds the labels of one classification pass, index-aligned with the inputs
type Result struct {
	Labels   []bool
	Calls    int
	Failures int // backend errors, each counted as a false label
	Duration time.Duration
}

// Adapter asks the backend about each intervention list and coerces the answers
type Adapter struct {
	backend     Backend
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
}

// NewAdapter creates an adapter. timeout bounds each call (0 for none) and
// concurrency caps the calls in flight (values below 1 mean sequential).
func NewAdapter(backend Backend, timeout time.Duration, concurrency int, logger *zap.Logger) *Adapter {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Adapter{
		backend:     backend,
		timeout:     timeout,
		concurrency: concurrency,
		logger:      logger.Named("classifier"),
	}
}

// ContainsChemo classifies every aggregated intervention string
func (a *Adapter) ContainsChemo(ctx context.Context, aggregated []string) ([]bool, error) {
	result, err := a.Classify(ctx, aggregated)
	if err != nil {
		return nil, err
	}
	return result.Labels, nil
}

// Classify makes one backend call per input. A failed call is logged and
// labelled false; only a cancelled ctx aborts the pass.
func (a *Adapter) Classify(ctx context.Context, aggregated []string) (*Result, error) {
	start := time.Now()
	labels := make([]bool, len(aggregated))
	var failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, text := range aggregated {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			resp, err := a.complete(gctx, text)
			if err != nil {
				// a per-call timeout is a failed answer, a cancelled run is not
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures.Add(1)
				a.logger.Warn("Classifier call failed, counting as negative",
					zap.Int("index", i),
					zap.Error(err))
				return nil
			}

			labels[i] = Coerce(resp)
			a.logger.Debug("Classified interventions",
				zap.Int("index", i),
				zap.String("response", resp),
				zap.Bool("containsChemo", labels[i]))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Labels:   labels,
		Calls:    len(aggregated),
		Failures: int(failures.Load()),
		Duration: time.Since(start),
	}

	a.logger.Info("Finished classification",
		zap.Int("calls", result.Calls),
		zap.Int("failures", result.Failures),
		zap.Int("positives", countTrue(labels)),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (a *Adapter) complete(ctx context.Context, text string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.backend.Complete(ctx, Instruction, text)
}

func countTrue(labels []bool) int {
	n := 0
	for _, l := range labels {
		if l {
			n++
		}
	}
	return n
}
