// Package network provides functions for constructing stacks of neural
// network layers on a Gorgonia computational graph. Layer stacks are
// built by the New*Layers functions and are intended to be composed
// into full networks by external model assembly code: each builder
// returns the ordered layer instances only, and running the forward
// pass of each layer in turn adds the corresponding operations to the
// graph.
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer is a single neural network layer whose learnable parameters
// live on a Gorgonia computational graph. A Layer may own more than
// one weight tensor (e.g. the gate matrices of a recurrent cell), so
// weights and biases are exposed as node lists.
type Layer interface {
	// Fwd adds the forward pass of the layer on input x to the
	// computational graph, returning the output node
	Fwd(x *G.Node) (*G.Node, error)

	// Weights returns the weight nodes of the layer
	Weights() G.Nodes

	// Biases returns the bias nodes of the layer. May be empty if the
	// layer has no bias units.
	Biases() G.Nodes
}

// Learnables returns all the learnable nodes of the argument layers,
// weights first for each layer, in a form usable with Gorgonia
// solvers.
func Learnables(layers ...Layer) G.Nodes {
	learnables := make(G.Nodes, 0, 2*len(layers))
	for _, layer := range layers {
		learnables = append(learnables, layer.Weights()...)
		learnables = append(learnables, layer.Biases()...)
	}
	return learnables
}

// Model returns the learnable nodes of the argument layers with their
// gradients.
func Model(layers ...Layer) []G.ValueGrad {
	learnables := Learnables(layers...)
	model := make([]G.ValueGrad, 0, len(learnables))
	for _, node := range learnables {
		model = append(model, node)
	}
	return model
}

// newWeights returns a new weight matrix node on graph g with the
// given shape and initialization scheme.
func newWeights(g *G.ExprGraph, rows, cols int, init G.InitWFn,
	name string) *G.Node {
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(rows, cols),
		G.WithName(name),
		G.WithInit(init),
	)
}

// newBias returns a new bias node on graph g holding cols bias units.
// The bias is stored as a (1 x cols) matrix so that it can be
// broadcast along the batch dimension of a layer's output.
func newBias(g *G.ExprGraph, cols int, name string) *G.Node {
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, cols),
		G.WithName(name),
		G.WithInit(G.Zeroes()),
	)
}

// errNotSequence is the configuration error returned by builders when
// a required per-layer argument list is empty.
func errNotSequence(fn, arg string) error {
	return fmt.Errorf("%v: %v must be a non-empty list", fn, arg)
}
