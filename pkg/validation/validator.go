// pkg/validation/validator.go
package validation

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Ratio is a correct/present count pair for one gold class
type Ratio struct {
	Correct int `json:"correct"`
	Present int `json:"present"`
}

// Percent returns the accuracy rounded to the nearest integer percentage,
// halves to even. ok is false when no gold id of the class was present.
func (r Ratio) Percent() (pct int, ok bool) {
	if r.Present == 0 {
		return 0, false
	}
	return int(math.RoundToEven(float64(r.Correct) / float64(r.Present) * 100)), true
}

// String renders "75% (3 / 4)" or "n/a (0 / 0)"
func (r Ratio) String() string {
	pct, ok := r.Percent()
	if !ok {
		return fmt.Sprintf("n/a (%d / %d)", r.Correct, r.Present)
	}
	return fmt.Sprintf("%d%% (%d / %d)", pct, r.Correct, r.Present)
}

// Report is the accuracy of one run against the gold labels
type Report struct {
	Positive Ratio `json:"positive"`
	Negative Ratio `json:"negative"`
	Combined Ratio `json:"combined"`
}

// Score compares predictions against the gold sets. A gold id absent from
// predictions is not counted at all.
func Score(predictions map[string]bool, positive, negative []GoldLabel) Report {
	var report Report

	for _, g := range positive {
		predicted, ok := predictions[g.NCTID]
		if !ok {
			continue
		}
		report.Positive.Present++
		if predicted {
			report.Positive.Correct++
		}
	}

	for _, g := range negative {
		predicted, ok := predictions[g.NCTID]
		if !ok {
			continue
		}
		report.Negative.Present++
		if !predicted {
			report.Negative.Correct++
		}
	}

	report.Combined = Ratio{
		Correct: report.Positive.Correct + report.Negative.Correct,
		Present: report.Positive.Present + report.Negative.Present,
	}
	return report
}

// ScoreGold scores predictions against the compiled-in gold labels
func ScoreGold(predictions map[string]bool) Report {
	return Score(predictions, goldPositive[:], goldNegative[:])
}

// Lines renders the three accuracy lines
func (r Report) Lines() []string {
	return []string{
		"Accuracy among positive golds: " + r.Positive.String(),
		"Accuracy among negative golds: " + r.Negative.String(),
		"Accuracy among combined golds: " + r.Combined.String(),
	}
}

// Log writes the report, one line per class
func (r Report) Log(logger *zap.Logger) {
	for _, entry := range []struct {
		class string
		ratio Ratio
	}{
		{"positive", r.Positive},
		{"negative", r.Negative},
		{"combined", r.Combined},
	} {
		fields := []zap.Field{
			zap.String("class", entry.class),
			zap.Int("correct", entry.ratio.Correct),
			zap.Int("present", entry.ratio.Present),
		}
		if pct, ok := entry.ratio.Percent(); ok {
			fields = append(fields, zap.Int("accuracyPercent", pct))
		} else {
			logger.Warn("No gold labels present for class", fields...)
			continue
		}
		logger.Info("Accuracy among "+entry.class+" golds", fields...)
	}
}
