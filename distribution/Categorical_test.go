package distribution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewCategoricalInvalidArgs ensures illegal probability matrices
// are construction errors
func TestNewCategoricalInvalidArgs(t *testing.T) {
	tests := []struct {
		name   string
		probs  []float64
		batch  int
		events int
	}{
		{"non-positive batch", []float64{0.5, 0.5}, 0, 2},
		{"non-positive events", []float64{0.5, 0.5}, 2, 0},
		{"wrong probability count", []float64{0.5, 0.5, 0.5}, 2, 2},
		{"negative probability", []float64{0.5, -0.5, 0.5, 0.5}, 2, 2},
		{"all-zero probability row", []float64{0.5, 0.5, 0.0, 0.0}, 2, 2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dist, err := NewCategorical(test.probs, test.batch, test.events,
				1)
			assert.Error(t, err)
			assert.Nil(t, dist)
		})
	}
}

// TestCategoricalSample ensures sampled events lie in range and follow
// degenerate distributions exactly
func TestCategoricalSample(t *testing.T) {
	probs := []float64{
		0.0, 1.0, 0.0,
		1.0, 0.0, 0.0,
	}
	dist, err := NewCategorical(probs, 2, 3, 42)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		events := dist.Sample()
		require.Len(t, events, 2)
		assert.Equal(t, 1, events[0])
		assert.Equal(t, 0, events[1])
	}
}

// TestCategoricalSampleRange ensures non-degenerate samples stay in
// [0, events)
func TestCategoricalSampleRange(t *testing.T) {
	probs := []float64{
		0.2, 0.3, 0.5,
		0.1, 0.1, 0.8,
	}
	dist, err := NewCategorical(probs, 2, 3, 7)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		for _, event := range dist.Sample() {
			assert.GreaterOrEqual(t, event, 0)
			assert.Less(t, event, 3)
		}
	}
}

// TestCategoricalLogProb checks log probabilities against the
// probability matrix
func TestCategoricalLogProb(t *testing.T) {
	probs := []float64{
		0.2, 0.8,
		0.6, 0.4,
	}
	dist, err := NewCategorical(probs, 2, 2, 1)
	require.NoError(t, err)

	logProbs, err := dist.LogProb([]int{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, math.Log(0.8), logProbs[0], 1e-12)
	assert.InDelta(t, math.Log(0.6), logProbs[1], 1e-12)

	_, err = dist.LogProb([]int{1})
	assert.Error(t, err)
	_, err = dist.LogProb([]int{1, 2})
	assert.Error(t, err)
}

// TestCategoricalEntropy checks the entropy of uniform and degenerate
// distributions
func TestCategoricalEntropy(t *testing.T) {
	probs := []float64{
		0.25, 0.25, 0.25, 0.25,
		1.0, 0.0, 0.0, 0.0,
	}
	dist, err := NewCategorical(probs, 2, 4, 1)
	require.NoError(t, err)

	entropy := dist.Entropy()
	require.Len(t, entropy, 2)
	assert.InDelta(t, math.Log(4), entropy[0], 1e-12)
	assert.InDelta(t, 0.0, entropy[1], 1e-12)
}
