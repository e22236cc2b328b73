package network

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// TestGain checks the recommended gains of each nonlinearity
func TestGain(t *testing.T) {
	tests := map[Nonlinearity]float64{
		LinearNonlinearity:  1.0,
		SigmoidNonlinearity: 1.0,
		TanHNonlinearity:    5.0 / 3.0,
		ReLUNonlinearity:    math.Sqrt(2.0),
	}
	for nonlinearity, expected := range tests {
		gain, err := Gain(nonlinearity)
		require.NoError(t, err)
		assert.Equal(t, expected, gain)
	}

	_, err := Gain(Nonlinearity("softsign"))
	assert.Error(t, err)
}

// requireOrthogonal checks that the value of a weight node, flattened
// to a (rows x cols) matrix, has orthonormal columns (or rows, for
// wide matrices) scaled by gain
func requireOrthogonal(t *testing.T, weights *G.Node, gain float64) {
	shape := weights.Shape()
	rows := shape[0]
	cols := 1
	for _, dim := range shape[1:] {
		cols *= dim
	}

	w := mat.NewDense(rows, cols, weights.Value().Data().([]float64))
	var product mat.Dense
	size := cols
	if rows >= cols {
		product.Mul(w.T(), w)
	} else {
		product.Mul(w, w.T())
		size = rows
	}

	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			expected := 0.0
			if i == j {
				expected = gain * gain
			}
			assert.InDelta(t, expected, product.At(i, j), 1e-10)
		}
	}
}

// TestOrthoInitFCLayer ensures orthogonal initialization sets fully
// connected weights to a scaled orthogonal matrix and biases to the
// constant
func TestOrthoInitFCLayer(t *testing.T) {
	g := G.NewGraph()
	layers, err := NewFCLayers(g, 6, []int{4}, []bool{true}, G.Zeroes(),
		[]*Activation{Identity()})
	require.NoError(t, err)

	err = OrthoInit(layers[0], NoNonlinearity, 0.01, 10.0)
	require.NoError(t, err)

	requireOrthogonal(t, layers[0].Weights()[0], 0.01)

	bias := layers[0].Biases()[0].Value().Data().([]float64)
	require.Len(t, bias, 4)
	for _, b := range bias {
		assert.Equal(t, 10.0, b)
	}
}

// TestOrthoInitNonlinearityGain ensures that a given nonlinearity
// overrides the weight scale with its recommended gain
func TestOrthoInitNonlinearityGain(t *testing.T) {
	g := G.NewGraph()
	layers, err := NewFCLayers(g, 8, []int{8}, []bool{false}, G.Zeroes(),
		[]*Activation{ReLU()})
	require.NoError(t, err)

	err = OrthoInit(layers[0], ReLUNonlinearity, 100.0, 0.0)
	require.NoError(t, err)

	requireOrthogonal(t, layers[0].Weights()[0], math.Sqrt(2.0))
}

// TestOrthoInitRNNCell ensures orthogonal initialization reaches every
// fused gate matrix and bias of a recurrent cell
func TestOrthoInitRNNCell(t *testing.T) {
	g := G.NewGraph()
	cells, err := NewRNNCells(g, LSTM, 8, []int{2}, G.Zeroes())
	require.NoError(t, err)

	err = OrthoInit(cells[0], NoNonlinearity, 1.0, 0.5)
	require.NoError(t, err)

	for _, weights := range cells[0].Weights() {
		requireOrthogonal(t, weights, 1.0)
	}
	for _, bias := range cells[0].Biases() {
		for _, b := range bias.Value().Data().([]float64) {
			assert.Equal(t, 0.5, b)
		}
	}
}

// TestOrthoInitLayers ensures every layer of a stack is initialized
func TestOrthoInitLayers(t *testing.T) {
	g := G.NewGraph()
	layers, err := NewFCLayers(g, 16, []int{8, 4}, []bool{true, true},
		G.Zeroes(), []*Activation{TanH(), TanH()})
	require.NoError(t, err)

	err = OrthoInitLayers(layers, TanHNonlinearity, 0.0, 0.0)
	require.NoError(t, err)

	for _, layer := range layers {
		requireOrthogonal(t, layer.Weights()[0], 5.0/3.0)
	}
}
