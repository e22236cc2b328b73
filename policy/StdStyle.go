package policy

import (
	"fmt"
	"math"
)

// StdStyle describes the available parameterizations of the standard
// deviation of a DiagGaussianHead. In each case the standard
// deviation is computed from a trainable, state-independent parameter
// vector p:
//
//	ExpStd:       std = exp(p)
//	SoftplusStd:  std = softplus(p) + stdEps
//	SigmoidalStd: std = low + (high - low)·sigmoid(beta·p)
type StdStyle string

// Available standard deviation parameterizations
const (
	ExpStd       StdStyle = "exp"
	SoftplusStd  StdStyle = "softplus"
	SigmoidalStd StdStyle = "sigmoidal"
)

// stdEps is the numerical floor added to softplus standard deviations
// and the margin by which a sigmoidal std0 must clear its range
// bounds.
const stdEps = 1e-4

// validate checks the style-specific construction parameters of a
// DiagGaussianHead. The range and sharpness parameters are only legal
// for the sigmoidal style, and for that style std0 must lie strictly
// inside the range.
func (s StdStyle) validate(std0 float64, stdRange []float64,
	beta float64) error {
	switch s {
	case ExpStd, SoftplusStd:
		if len(stdRange) != 0 {
			return fmt.Errorf("std range is only legal for style %v "+
				"\n\thave(%v)", SigmoidalStd, stdRange)
		}
		if beta != 0 {
			return fmt.Errorf("beta is only legal for style %v "+
				"\n\thave(%v)", SigmoidalStd, beta)
		}
		if s == SoftplusStd && std0 <= stdEps {
			return fmt.Errorf("std0 must exceed %v for style %v "+
				"\n\thave(%v)", stdEps, SoftplusStd, std0)
		}

	case SigmoidalStd:
		if len(stdRange) != 2 {
			return fmt.Errorf("std range must hold exactly two values "+
				"\n\thave(%v)", len(stdRange))
		}
		low, high := stdRange[0], stdRange[1]
		if low < 0 {
			return fmt.Errorf("std range cannot be negative \n\thave(%v)",
				stdRange)
		}
		if low >= high {
			return fmt.Errorf("std range must be strictly increasing "+
				"\n\thave(%v)", stdRange)
		}
		if beta <= 0 {
			return fmt.Errorf("beta must be positive for style %v "+
				"\n\thave(%v)", SigmoidalStd, beta)
		}
		if std0 <= low+stdEps || std0 >= high-stdEps {
			return fmt.Errorf("std0 must lie strictly inside the std "+
				"range \n\twant(%v, %v) \n\thave(%v)", low, high, std0)
		}

	default:
		return fmt.Errorf("no such std style: %v", s)
	}
	return nil
}

// initialParam returns the parameter value at which the style's
// mapping produces exactly std0. Each inverse is closed-form and
// evaluated once at construction time so that the realized initial
// standard deviation equals std0.
func (s StdStyle) initialParam(std0 float64, stdRange []float64,
	beta float64) float64 {
	switch s {
	case ExpStd:
		return math.Log(std0)
	case SoftplusStd:
		// Inverse of softplus(p) + stdEps
		return math.Log(math.Expm1(std0 - stdEps))
	case SigmoidalStd:
		low, high := stdRange[0], stdRange[1]
		ratio := (std0 - low) / (high - low)
		return math.Log(ratio/(1-ratio)) / beta
	default:
		panic(fmt.Sprintf("initialparam: no such std style: %v", s))
	}
}
