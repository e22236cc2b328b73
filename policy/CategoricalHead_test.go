package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/initwfn"
)

// TestNewCategoricalHeadInvalidArgs ensures illegal head dimensions
// are construction errors
func TestNewCategoricalHeadInvalidArgs(t *testing.T) {
	tests := []struct {
		name       string
		featureDim int
		numActions int
		batch      int
	}{
		{"non-positive feature dimension", 0, 4, 1},
		{"non-positive number of actions", 3, -1, 1},
		{"non-positive batch size", 3, 4, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			head, err := NewCategoricalHead(test.featureDim, test.numActions,
				test.batch, G.GlorotN(1.0), 1)
			assert.Error(t, err)
			assert.Nil(t, head)
		})
	}
}

// TestCategoricalHeadForward ensures a zero-initialized head produces
// uniform action probabilities for any input
func TestCategoricalHeadForward(t *testing.T) {
	zeroes, err := initwfn.NewZeroes()
	require.NoError(t, err)

	head, err := NewCategoricalHead(3, 4, 2, zeroes.InitWFn(), 1)
	require.NoError(t, err)

	assert.Equal(t, 3, head.FeatureDim())
	assert.Equal(t, 4, head.NumActions())
	assert.Equal(t, 2, head.BatchSize())

	dist, err := head.Forward([]float64{1, 2, 3, -1, 0, 1})
	require.NoError(t, err)

	assert.Equal(t, 2, dist.BatchSize())
	assert.Equal(t, 4, dist.NumEvents())

	// Zero logits give uniform probabilities
	for _, prob := range dist.Probs() {
		assert.InDelta(t, 0.25, prob, 1e-12)
	}

	events := dist.Sample()
	require.Len(t, events, 2)
	for _, event := range events {
		assert.GreaterOrEqual(t, event, 0)
		assert.Less(t, event, 4)
	}
}

// TestCategoricalHeadForwardInvalidInput ensures a forward pass on the
// wrong number of features fails
func TestCategoricalHeadForwardInvalidInput(t *testing.T) {
	head, err := NewCategoricalHead(3, 4, 2, G.GlorotN(1.0), 1)
	require.NoError(t, err)

	dist, err := head.Forward([]float64{1, 2, 3})
	assert.Error(t, err)
	assert.Nil(t, dist)
}

// TestCategoricalHeadRepeatedForward ensures the head can run many
// forward passes and that probabilities always normalize
func TestCategoricalHeadRepeatedForward(t *testing.T) {
	head, err := NewCategoricalHead(2, 3, 1, G.GlorotN(1.0), 7)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		dist, err := head.Forward([]float64{float64(i), -float64(i)})
		require.NoError(t, err)

		total := 0.0
		for _, prob := range dist.Probs() {
			total += prob
		}
		assert.InDelta(t, 1.0, total, 1e-10)
	}
}

// TestCategoricalHeadLearnables ensures the head exposes its
// projection weights and bias for solver updates
func TestCategoricalHeadLearnables(t *testing.T) {
	head, err := NewCategoricalHead(3, 4, 1, G.GlorotN(1.0), 1)
	require.NoError(t, err)

	assert.Len(t, head.Learnables(), 2)
	assert.Len(t, head.Model(), 2)
	assert.NotNil(t, head.LogitsNode())
	assert.NotNil(t, head.ProbsNode())
	assert.NotNil(t, head.Graph())
}
