package initwfn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

// TestInitWFnJSON ensures every initializer configuration survives a
// JSON round trip with its type, hyperparameters, and wrapped
// initializer intact
func TestInitWFnJSON(t *testing.T) {
	constructors := map[Type]func() (*InitWFn, error){
		GlorotU:  func() (*InitWFn, error) { return NewGlorotU(1.0) },
		GlorotN:  func() (*InitWFn, error) { return NewGlorotN(1.0) },
		HeU:      func() (*InitWFn, error) { return NewHeU(1.0) },
		HeN:      func() (*InitWFn, error) { return NewHeN(1.0) },
		Zeroes:   NewZeroes,
		Ones:     NewOnes,
		Constant: func() (*InitWFn, error) { return NewConstant(0.25) },
		Gaussian: func() (*InitWFn, error) { return NewGaussian(0.0, 1.5) },
		Uniform:  func() (*InitWFn, error) { return NewUniform(-1.0, 1.0) },
		Orthogonal: func() (*InitWFn, error) {
			return NewOrthogonal(1.0)
		},
	}

	for wfnType, constructor := range constructors {
		init, err := constructor()
		require.NoError(t, err, "type %v", wfnType)
		assert.Equal(t, wfnType, init.Type)

		data, err := json.Marshal(init)
		require.NoError(t, err)

		var decoded InitWFn
		require.NoError(t, json.Unmarshal(data, &decoded))

		assert.Equal(t, wfnType, decoded.Type)
		assert.Equal(t, init.Config, decoded.Config)
		assert.NotNil(t, decoded.InitWFn())
	}
}

// TestConstantCreate ensures the constant-family initializers fill
// weights with their configured value
func TestConstantCreate(t *testing.T) {
	tests := []struct {
		constructor func() (*InitWFn, error)
		expected    float64
	}{
		{NewZeroes, 0.0},
		{NewOnes, 1.0},
		{func() (*InitWFn, error) { return NewConstant(0.5) }, 0.5},
	}

	for _, test := range tests {
		init, err := test.constructor()
		require.NoError(t, err)

		data := init.InitWFn()(tensor.Float64, 2, 3).([]float64)
		require.Len(t, data, 6)
		for _, value := range data {
			assert.Equal(t, test.expected, value)
		}
	}
}

// TestUniformCreate ensures uniform initialization stays within its
// configured bounds
func TestUniformCreate(t *testing.T) {
	init, err := NewUniform(-0.5, 0.5)
	require.NoError(t, err)

	data := init.InitWFn()(tensor.Float64, 10, 10).([]float64)
	require.Len(t, data, 100)
	for _, value := range data {
		assert.GreaterOrEqual(t, value, -0.5)
		assert.LessOrEqual(t, value, 0.5)
	}
}
