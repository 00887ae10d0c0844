// pkg/transform/transform.go
package transform

import (
	"context"
	"time"

	"github.com/David-Botos/trial-ingress/pkg/converter"
	"github.com/David-Botos/trial-ingress/pkg/model"
)

// Runner materializes trial_data_transformed from trial_data_raw
type Runner interface {
	Run(ctx context.Context) (*Result, error)
}

// Result describes one transform run
type Result struct {
	Mode       string
	RowsIn     int // raw rows read (builtin only)
	RowsOut    int // transformed rows written (builtin only)
	Dropped    int // rows without an nctId
	Duplicates int // repeated nctIds after the first
	Output     string
	Duration   time.Duration
}

// Stats counts the rows Transform removed
type Stats struct {
	Dropped    int
	Duplicates int
}

// Transform builds the transformed rows: rows without an nctId are dropped,
// repeated nctIds keep their first occurrence, and the arm-group intervention
// list becomes a JSON array without the empty placeholders.
func Transform(records []model.RawTrialRecord) ([]model.TransformedTrialRecord, Stats, error) {
	var stats Stats
	seen := make(map[string]struct{}, len(records))
	out := make([]model.TransformedTrialRecord, 0, len(records))

	for _, r := range records {
		if r.NCTID == "" {
			stats.Dropped++
			continue
		}
		if _, ok := seen[r.NCTID]; ok {
			stats.Duplicates++
			continue
		}
		seen[r.NCTID] = struct{}{}

		names := make([]string, 0)
		for _, name := range r.InterventionList() {
			if name != "" {
				names = append(names, name)
			}
		}
		array, err := converter.EncodeList(names)
		if err != nil {
			return nil, stats, err
		}

		out = append(out, model.TransformedTrialRecord{
			RawTrialRecord:     r,
			InterventionsArray: array,
		})
	}

	return out, stats, nil
}
