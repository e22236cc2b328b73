package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// Fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) Fwd(x *G.Node) (*G.Node, error) {
	if f.weights != nil {
		x = G.Must(G.Mul(x, f.weights))
	}
	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.bias, nil, []byte{0}))
	}
	if f.act == nil || f.act.IsNil() {
		return x, nil
	}
	return f.act.fwd(x)
}

// Weights returns the weight nodes of the fcLayer
func (f *fcLayer) Weights() G.Nodes {
	if f.weights == nil {
		return nil
	}
	return G.Nodes{f.weights}
}

// Biases returns the bias nodes of the fcLayer
func (f *fcLayer) Biases() G.Nodes {
	if f.bias == nil {
		return nil
	}
	return G.Nodes{f.bias}
}

// Activation returns the activation function of the fcLayer
func (f *fcLayer) Activation() *Activation {
	return f.act
}

// NewFCLayers creates and returns a stack of fully connected layers on
// graph g. One layer is created for each element of hiddenSizes: for
// index i, layer i maps hiddenSizes[i-1] features (or features, for
// i = 0) to hiddenSizes[i] features, contains a bias unit if biases[i]
// is true, and applies activations[i] to its output. The parameter
// init determines the weight initialization scheme.
//
// The returned layers are in order of application: calling Fwd on each
// layer in turn with the output of the previous layer computes the
// forward pass of the stack.
func NewFCLayers(g *G.ExprGraph, features int, hiddenSizes []int,
	biases []bool, init G.InitWFn, activations []*Activation) ([]Layer,
	error) {
	if features <= 0 {
		return nil, fmt.Errorf("newfclayers: features must be positive "+
			"\n\thave(%v)", features)
	}
	if len(hiddenSizes) == 0 {
		return nil, errNotSequence("newfclayers", "hiddenSizes")
	}
	if len(hiddenSizes) != len(biases) {
		msg := "newfclayers: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}
	if len(hiddenSizes) != len(activations) {
		msg := "newfclayers: invalid number of activations\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}
	for i, size := range hiddenSizes {
		if size <= 0 {
			return nil, fmt.Errorf("newfclayers: hidden size of layer %v "+
				"must be positive \n\thave(%v)", i, size)
		}
	}

	return makeFCLayers(g, features, hiddenSizes, biases, init, activations,
		"", ""), nil
}

// makeFCLayers creates the fully connected layers for a stack of
// len(hiddenSizes) layers. Arguments are assumed validated by the
// caller. The prefix and suffix parameters disambiguate node names
// when multiple stacks share a graph.
func makeFCLayers(g *G.ExprGraph, features int, hiddenSizes []int,
	biases []bool, init G.InitWFn, activations []*Activation,
	prefix, suffix string) []Layer {
	layers := make([]Layer, len(hiddenSizes))
	inputs := features
	for i, size := range hiddenSizes {
		weightName := fmt.Sprintf("%vL%dW%v", prefix, i, suffix)
		var bias *G.Node
		if biases[i] {
			biasName := fmt.Sprintf("%vL%dB%v", prefix, i, suffix)
			bias = newBias(g, size, biasName)
		}

		layers[i] = &fcLayer{
			weights: newWeights(g, inputs, size, init, weightName),
			bias:    bias,
			act:     activations[i],
		}
		inputs = size
	}
	return layers
}
