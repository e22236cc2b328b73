package network

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gorl/initwfn"
)

// Nonlinearity describes the activation following a layer, used to
// select the gain of the orthogonal initializer.
type Nonlinearity string

// Available nonlinearities. NoNonlinearity selects no gain, in which
// case the weight scale argument of OrthoInit is used directly.
const (
	NoNonlinearity      Nonlinearity = ""
	LinearNonlinearity  Nonlinearity = "linear"
	SigmoidNonlinearity Nonlinearity = "sigmoid"
	TanHNonlinearity    Nonlinearity = "tanh"
	ReLUNonlinearity    Nonlinearity = "relu"
)

// Gain returns the recommended weight gain for the argument
// nonlinearity: 1 for linear and sigmoid, 5/3 for tanh, and √2 for
// relu.
func Gain(n Nonlinearity) (float64, error) {
	switch n {
	case LinearNonlinearity, SigmoidNonlinearity:
		return 1.0, nil
	case TanHNonlinearity:
		return 5.0 / 3.0, nil
	case ReLUNonlinearity:
		return math.Sqrt(2.0), nil
	default:
		return 0, fmt.Errorf("gain: no such nonlinearity: %v", n)
	}
}

// OrthoInit initializes the parameters of layer l in place. Every
// weight tensor of the layer, including every gate matrix of a
// recurrent cell, is set to a random orthogonal matrix scaled by
// weightScale, and every bias tensor is set to constantBias. If a
// nonlinearity other than NoNonlinearity is given, the scale is the
// gain of that nonlinearity instead of weightScale.
func OrthoInit(l Layer, nonlinearity Nonlinearity, weightScale,
	constantBias float64) error {
	gain := weightScale
	if nonlinearity != NoNonlinearity {
		var err error
		if gain, err = Gain(nonlinearity); err != nil {
			return fmt.Errorf("orthoinit: %v", err)
		}
	}

	for _, weights := range l.Weights() {
		shape := weights.Shape()
		rows := shape[0]
		cols := 1
		for _, dim := range shape[1:] {
			cols *= dim
		}

		backing := initwfn.OrthogonalMatrix(rows, cols, gain)
		replacement := tensor.New(
			tensor.WithShape(shape...),
			tensor.WithBacking(backing),
		)
		if err := G.Let(weights, replacement); err != nil {
			return errors.Wrapf(err, "orthoinit: could not set weights %v",
				weights.Name())
		}
	}

	for _, bias := range l.Biases() {
		shape := bias.Shape()
		backing := make([]float64, shape.TotalSize())
		for i := range backing {
			backing[i] = constantBias
		}

		replacement := tensor.New(
			tensor.WithShape(shape...),
			tensor.WithBacking(backing),
		)
		if err := G.Let(bias, replacement); err != nil {
			return errors.Wrapf(err, "orthoinit: could not set bias %v",
				bias.Name())
		}
	}
	return nil
}

// OrthoInitLayers applies OrthoInit uniformly to every layer of a
// stack.
func OrthoInitLayers(layers []Layer, nonlinearity Nonlinearity,
	weightScale, constantBias float64) error {
	for i, layer := range layers {
		err := OrthoInit(layer, nonlinearity, weightScale, constantBias)
		if err != nil {
			return fmt.Errorf("orthoinitlayers: could not initialize "+
				"layer %v: %v", i, err)
		}
	}
	return nil
}
