package distribution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TestNewDiagGaussianInvalidArgs ensures illegal standard deviations
// are construction errors
func TestNewDiagGaussianInvalidArgs(t *testing.T) {
	mean := mat.NewDense(2, 3, nil)

	tests := []struct {
		name string
		std  []float64
	}{
		{"wrong standard deviation count", []float64{1, 1}},
		{"zero standard deviation", []float64{1, 0, 1}},
		{"negative standard deviation", []float64{1, 1, -2}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dist, err := NewDiagGaussian(mean, test.std, 1)
			assert.Error(t, err)
			assert.Nil(t, dist)
		})
	}
}

// TestDiagGaussianSampleShape ensures sampled actions have one row per
// batch element and one column per action dimension
func TestDiagGaussianSampleShape(t *testing.T) {
	mean := mat.NewDense(3, 2, []float64{0, 0, 1, 1, -1, 2})
	dist, err := NewDiagGaussian(mean, []float64{1, 0.5}, 13)
	require.NoError(t, err)

	assert.Equal(t, 3, dist.BatchSize())
	assert.Equal(t, 2, dist.Dims())

	actions := dist.Sample()
	rows, cols := actions.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
}

// TestDiagGaussianSampleMoments draws many samples from a single
// distribution and checks the empirical mean and standard deviation
func TestDiagGaussianSampleMoments(t *testing.T) {
	const n = 100000
	mean := mat.NewDense(1, 2, []float64{1.0, -2.0})
	std := []float64{0.5, 2.0}
	dist, err := NewDiagGaussian(mean, std, 42)
	require.NoError(t, err)

	sums := make([]float64, 2)
	sumSquares := make([]float64, 2)
	for i := 0; i < n; i++ {
		actions := dist.Sample()
		for j := 0; j < 2; j++ {
			a := actions.At(0, j)
			sums[j] += a
			sumSquares[j] += a * a
		}
	}

	for j := 0; j < 2; j++ {
		empiricalMean := sums[j] / n
		variance := sumSquares[j]/n - empiricalMean*empiricalMean
		assert.InDelta(t, mean.At(0, j), empiricalMean, 0.05)
		assert.InDelta(t, std[j], math.Sqrt(variance), 0.05)
	}
}

// TestDiagGaussianLogProb checks log densities against the product of
// per-dimension univariate normal densities
func TestDiagGaussianLogProb(t *testing.T) {
	mean := mat.NewDense(2, 2, []float64{0, 1, -1, 2})
	std := []float64{0.5, 1.5}
	dist, err := NewDiagGaussian(mean, std, 1)
	require.NoError(t, err)

	actions := mat.NewDense(2, 2, []float64{0.3, 0.7, -1.2, 2.4})
	logProbs, err := dist.LogProb(actions)
	require.NoError(t, err)
	require.Len(t, logProbs, 2)

	for i := 0; i < 2; i++ {
		expected := 0.0
		for j := 0; j < 2; j++ {
			normal := distuv.Normal{Mu: mean.At(i, j), Sigma: std[j]}
			expected += normal.LogProb(actions.At(i, j))
		}
		assert.InDelta(t, expected, logProbs[i], 1e-10)
	}

	_, err = dist.LogProb(mat.NewDense(1, 2, nil))
	assert.Error(t, err)
}

// TestDiagGaussianEntropy checks the entropy against the closed form
// for diagonal Gaussians
func TestDiagGaussianEntropy(t *testing.T) {
	mean := mat.NewDense(2, 3, nil)
	std := []float64{0.5, 1.0, 2.0}
	dist, err := NewDiagGaussian(mean, std, 1)
	require.NoError(t, err)

	expected := 0.0
	for _, dev := range std {
		expected += 0.5 + 0.5*math.Log(2*math.Pi) + math.Log(dev)
	}

	for _, entropy := range dist.Entropy() {
		assert.InDelta(t, expected, entropy, 1e-12)
	}
}
