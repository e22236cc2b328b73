package initwfn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// OrthogonalConfig implements a configuration of the orthogonal
// initialization algorithm. Weights are initialized to a random
// orthogonal matrix scaled by Gain, computed from the QR
// decomposition of a matrix of standard normal values. Orthogonal
// initialization preserves gradient norms at the start of training.
type OrthogonalConfig struct {
	Gain float64
}

// NewOrthogonal returns a new orthogonal weight initializer
func NewOrthogonal(gain float64) (*InitWFn, error) {
	config := OrthogonalConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (o OrthogonalConfig) Type() Type {
	return Orthogonal
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn. Tensors with more than two axes are treated as matrices by
// flattening all trailing axes, matching the (output, input...)
// layout of convolutional filters.
func (o OrthogonalConfig) Create() G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		if len(s) == 0 {
			panic("orthogonal: cannot initialize a scalar")
		}

		rows := s[0]
		cols := 1
		for _, dim := range s[1:] {
			cols *= dim
		}

		data := OrthogonalMatrix(rows, cols, o.Gain)
		switch dt {
		case tensor.Float64:
			return data
		case tensor.Float32:
			converted := make([]float32, len(data))
			for i, val := range data {
				converted[i] = float32(val)
			}
			return converted
		default:
			panic(fmt.Sprintf("orthogonal: unsupported dtype %v", dt))
		}
	}
}

// OrthogonalMatrix returns the backing data of a (rows x cols) matrix
// with orthonormal rows or columns (whichever of the two can be
// orthonormal given the shape), scaled by gain. The matrix is computed
// as the thin Q factor of a random standard normal matrix, with each
// column's sign fixed by the corresponding diagonal entry of R so the
// factorization is unique.
func OrthogonalMatrix(rows, cols int, gain float64) []float64 {
	m, n := rows, cols
	transposed := false
	if m < n {
		// QR requires at least as many rows as columns
		m, n = n, m
		transposed = true
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	backing := make([]float64, m*n)
	for i := range backing {
		backing[i] = normal.Rand()
	}

	var qr mat.QR
	qr.Factorize(mat.NewDense(m, n, backing))

	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)

	out := make([]float64, rows*cols)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			val := q.At(i, j) * gain
			if r.At(j, j) < 0 {
				val = -val
			}

			if transposed {
				out[j*cols+i] = val
			} else {
				out[i*cols+j] = val
			}
		}
	}
	return out
}
