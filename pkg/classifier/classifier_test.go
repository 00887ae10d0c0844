package classifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedBackend answers from a table keyed by the user prompt
type scriptedBackend struct {
	answers map[string]string
	fail    map[string]bool

	mu          sync.Mutex
	systems     []string
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (b *scriptedBackend) Complete(ctx context.Context, system, user string) (string, error) {
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		m := b.maxInFlight.Load()
		if n <= m || b.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	b.mu.Lock()
	b.systems = append(b.systems, system)
	b.mu.Unlock()

	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if b.fail[user] {
		return "", errors.New("backend unavailable")
	}
	return b.answers[user], nil
}

func TestCoerce(t *testing.T) {
	cases := map[string]bool{
		"Y":    true,
		"N":    false,
		"":     false,
		"Yes":  false,
		"y":    false,
		" Y":   false,
		"Y\n":  false,
		"Y.":   false,
		"YES":  false,
		"No":   false,
		"null": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, Coerce(in), "Coerce(%q)", in)
	}
}

func TestAggregateInterventions(t *testing.T) {
	assert.Equal(t, "Drug: Gemcitabine, Drug: Fluorouracil",
		AggregateInterventions([]string{"Drug: Gemcitabine", "Drug: Fluorouracil"}))
	assert.Equal(t, "", AggregateInterventions(nil))
	assert.NotContains(t, InterventionSeparator, "|")
}

func TestAdapter_LabelsAlignedWithInputs(t *testing.T) {
	backend := &scriptedBackend{answers: map[string]string{
		"Drug: Cisplatin":        "Y",
		"Procedure: Biopsy":      "N",
		"Drug: Capecitabine":     "Yes",
		"Radiation: Proton":      "y",
		"Drug: Cyclophosphamide": "Y",
	}}
	inputs := []string{"Drug: Cisplatin", "Procedure: Biopsy", "Drug: Capecitabine", "Radiation: Proton", "Drug: Cyclophosphamide"}

	for _, concurrency := range []int{1, 3, 10} {
		adapter := NewAdapter(backend, time.Second, concurrency, zap.NewNop())
		labels, err := adapter.ContainsChemo(context.Background(), inputs)
		require.NoError(t, err)
		assert.Equal(t, []bool{true, false, false, false, true}, labels, "concurrency %d", concurrency)
	}

	for _, system := range backend.systems {
		assert.Equal(t, Instruction, system)
	}
}

func TestAdapter_BackendErrorsAreNegative(t *testing.T) {
	backend := &scriptedBackend{
		answers: map[string]string{"a": "Y", "b": "Y"},
		fail:    map[string]bool{"b": true},
	}
	adapter := NewAdapter(backend, time.Second, 2, zap.NewNop())

	result, err := adapter.Classify(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, result.Labels)
	assert.Equal(t, 2, result.Calls)
	assert.Equal(t, 1, result.Failures)
}

func TestAdapter_PerCallTimeoutIsNegative(t *testing.T) {
	backend := &scriptedBackend{answers: map[string]string{"slow": "Y"}, delay: 200 * time.Millisecond}
	adapter := NewAdapter(backend, 10*time.Millisecond, 1, zap.NewNop())

	result, err := adapter.Classify(context.Background(), []string{"slow"})
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, result.Labels)
	assert.Equal(t, 1, result.Failures)
}

func TestAdapter_RespectsConcurrencyLimit(t *testing.T) {
	backend := &scriptedBackend{answers: map[string]string{}, delay: 20 * time.Millisecond}
	adapter := NewAdapter(backend, time.Second, 2, zap.NewNop())

	inputs := strings.Split("a b c d e f", " ")
	_, err := adapter.Classify(context.Background(), inputs)
	require.NoError(t, err)
	assert.LessOrEqual(t, backend.maxInFlight.Load(), int32(2))
}

func TestAdapter_CancelledContext(t *testing.T) {
	backend := &scriptedBackend{answers: map[string]string{"a": "Y"}}
	adapter := NewAdapter(backend, time.Second, 1, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.Classify(ctx, []string{"a", "a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdapter_EmptyInput(t *testing.T) {
	adapter := NewAdapter(&scriptedBackend{}, time.Second, 1, zap.NewNop())
	result, err := adapter.Classify(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Labels)
}
