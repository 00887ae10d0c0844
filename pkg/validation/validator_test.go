package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestScore_MixedClasses(t *testing.T) {
	positive := []GoldLabel{{NCTID: "P1", Expected: true}, {NCTID: "P2", Expected: true}}
	negative := []GoldLabel{{NCTID: "N1"}, {NCTID: "N2"}}
	predictions := map[string]bool{"P1": true, "P2": false, "N1": false, "N2": false}

	report := Score(predictions, positive, negative)

	assert.Equal(t, Ratio{Correct: 1, Present: 2}, report.Positive)
	assert.Equal(t, Ratio{Correct: 2, Present: 2}, report.Negative)
	assert.Equal(t, Ratio{Correct: 3, Present: 4}, report.Combined)

	pct, ok := report.Positive.Percent()
	assert.True(t, ok)
	assert.Equal(t, 50, pct)
	pct, _ = report.Negative.Percent()
	assert.Equal(t, 100, pct)
	pct, _ = report.Combined.Percent()
	assert.Equal(t, 75, pct)
}

func TestScore_ZeroPresentIsSentinel(t *testing.T) {
	report := Score(map[string]bool{"N1": true}, []GoldLabel{{NCTID: "P1", Expected: true}}, []GoldLabel{{NCTID: "N1"}})

	assert.Equal(t, Ratio{Correct: 0, Present: 0}, report.Positive)
	pct, ok := report.Positive.Percent()
	assert.False(t, ok)
	assert.Zero(t, pct)
	assert.Equal(t, "n/a (0 / 0)", report.Positive.String())

	pct, ok = report.Negative.Percent()
	assert.True(t, ok)
	assert.Zero(t, pct)
}

func TestScore_NoPredictions(t *testing.T) {
	report := ScoreGold(nil)
	for _, r := range []Ratio{report.Positive, report.Negative, report.Combined} {
		_, ok := r.Percent()
		assert.False(t, ok)
	}
	assert.NotPanics(t, func() { report.Log(zap.NewNop()) })
}

func TestScore_IgnoresNonGoldIDs(t *testing.T) {
	report := ScoreGold(map[string]bool{"NCT99999999": true, "NCT04233866": true})
	assert.Equal(t, Ratio{Correct: 1, Present: 1}, report.Positive)
	assert.Equal(t, Ratio{}, report.Negative)
}

func TestPercent_RoundsHalfToEven(t *testing.T) {
	cases := []struct {
		ratio Ratio
		want  int
	}{
		{Ratio{Correct: 1, Present: 3}, 33},
		{Ratio{Correct: 2, Present: 3}, 67},
		{Ratio{Correct: 1, Present: 8}, 12}, // 12.5
		{Ratio{Correct: 3, Present: 8}, 38}, // 37.5
		{Ratio{Correct: 10, Present: 10}, 100},
	}
	for _, tc := range cases {
		pct, ok := tc.ratio.Percent()
		require.True(t, ok)
		assert.Equal(t, tc.want, pct, "%d/%d", tc.ratio.Correct, tc.ratio.Present)
	}
}

func TestGold_SetsAreFixed(t *testing.T) {
	positive := PositiveGold()
	negative := NegativeGold()
	require.Len(t, positive, 10)
	require.Len(t, negative, 10)

	for _, g := range positive {
		assert.True(t, g.Expected)
		assert.NotEmpty(t, g.Interventions)
	}
	for _, g := range negative {
		assert.False(t, g.Expected)
	}

	ids := GoldIDs()
	assert.Len(t, ids, 20)
	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate gold id %s", id)
		seen[id] = true
	}

	// Mutating a returned copy leaves the compiled-in labels alone
	positive[0].Expected = false
	positive[0].NCTID = "changed"
	assert.True(t, PositiveGold()[0].Expected)
	assert.Equal(t, "NCT04233866", PositiveGold()[0].NCTID)
}

func TestScoreGold_AllCorrect(t *testing.T) {
	predictions := map[string]bool{}
	for _, g := range PositiveGold() {
		predictions[g.NCTID] = true
	}
	for _, g := range NegativeGold() {
		predictions[g.NCTID] = false
	}

	report := ScoreGold(predictions)
	assert.Equal(t, Ratio{Correct: 20, Present: 20}, report.Combined)
	assert.Equal(t, []string{
		"Accuracy among positive golds: 100% (10 / 10)",
		"Accuracy among negative golds: 100% (10 / 10)",
		"Accuracy among combined golds: 100% (20 / 20)",
	}, report.Lines())
}

func TestReport_Log(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	report := Report{
		Positive: Ratio{Correct: 1, Present: 2},
		Negative: Ratio{},
		Combined: Ratio{Correct: 1, Present: 2},
	}

	report.Log(zap.New(core))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "Accuracy among positive golds", entries[0].Message)
	assert.Equal(t, int64(50), entries[0].ContextMap()["accuracyPercent"])
	assert.Equal(t, "No gold labels present for class", entries[1].Message)
	assert.Equal(t, "negative", entries[1].ContextMap()["class"])
}
