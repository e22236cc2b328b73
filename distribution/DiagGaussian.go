package distribution

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/samuelfneumann/gorl/utils/floatutils"
)

// DiagGaussian is a batch of multivariate Gaussian distributions with
// diagonal covariance, one distribution per row of the mean matrix.
// All rows share a single standard deviation vector, and the density
// of a batch row is the product of its per-dimension densities.
//
// Actions are sampled by the reparameterization a = μ + σ∘ε with
// ε ~ N(0, I).
type DiagGaussian struct {
	mean *mat.Dense // (batch x dims) means
	std  []float64  // per-dimension standard deviations

	normal distmv.Rander // standard normal for reparameterization
	batch  int
	dims   int
}

// NewDiagGaussian returns a new batched diagonal Gaussian
// distribution with the argument (batch x dims) mean matrix and
// dims-dimensional standard deviation vector. The seed determines the
// sequence of actions drawn by Sample.
func NewDiagGaussian(mean *mat.Dense, std []float64,
	seed uint64) (*DiagGaussian, error) {
	batch, dims := mean.Dims()
	if len(std) != dims {
		return nil, fmt.Errorf("newDiagGaussian: invalid number of "+
			"standard deviations \n\twant(%v) \n\thave(%v)", dims, len(std))
	}
	for i, dev := range std {
		if dev <= 0 {
			return nil, fmt.Errorf("newDiagGaussian: standard deviation %v "+
				"must be positive \n\thave(%v)", i, dev)
		}
	}

	// Standard normal for the reparameterized sampling
	means := make([]float64, dims)
	devs := mat.NewDiagDense(dims, floatutils.Ones(dims))
	source := rand.NewSource(seed)
	normal, ok := distmv.NewNormal(means, devs, source)
	if !ok {
		return nil, fmt.Errorf("newDiagGaussian: could not create " +
			"standard normal for sampling")
	}

	return &DiagGaussian{
		mean:   mean,
		std:    std,
		normal: normal,
		batch:  batch,
		dims:   dims,
	}, nil
}

// BatchSize returns the number of distributions in the batch
func (d *DiagGaussian) BatchSize() int {
	return d.batch
}

// Dims returns the dimensionality of each distribution in the batch
func (d *DiagGaussian) Dims() int {
	return d.dims
}

// Mean returns the (batch x dims) matrix of distribution means
func (d *DiagGaussian) Mean() *mat.Dense {
	return d.mean
}

// Stddev returns the per-dimension standard deviation vector shared
// by every batch row
func (d *DiagGaussian) Stddev() []float64 {
	return d.std
}

// Sample draws one dims-dimensional action per batch row, returned as
// a (batch x dims) matrix
func (d *DiagGaussian) Sample() *mat.Dense {
	actions := mat.NewDense(d.batch, d.dims, nil)
	for i := 0; i < d.batch; i++ {
		eps := d.normal.Rand(nil)
		for j := 0; j < d.dims; j++ {
			actions.Set(i, j, d.mean.At(i, j)+d.std[j]*eps[j])
		}
	}
	return actions
}

// LogProb returns the log density of the argument (batch x dims)
// actions, one value per batch row, summed over dimensions
func (d *DiagGaussian) LogProb(actions *mat.Dense) ([]float64, error) {
	rows, cols := actions.Dims()
	if rows != d.batch || cols != d.dims {
		return nil, fmt.Errorf("logProb: invalid action shape "+
			"\n\twant(%v x %v) \n\thave(%v x %v)", d.batch, d.dims, rows,
			cols)
	}

	logProbs := make([]float64, d.batch)
	for i := 0; i < d.batch; i++ {
		for j := 0; j < d.dims; j++ {
			z := (actions.At(i, j) - d.mean.At(i, j)) / d.std[j]
			logProbs[i] -= 0.5*z*z + math.Log(d.std[j]) +
				0.5*math.Log(2*math.Pi)
		}
	}
	return logProbs, nil
}

// Entropy returns the entropy of each distribution in the batch
func (d *DiagGaussian) Entropy() []float64 {
	entropy := make([]float64, d.batch)

	var perRow float64
	for j := 0; j < d.dims; j++ {
		perRow += 0.5 + 0.5*math.Log(2*math.Pi) + math.Log(d.std[j])
	}
	for i := range entropy {
		entropy[i] = perRow
	}
	return entropy
}
