package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// convLayer implements a single 2-D convolutional layer. Inputs are
// expected in BCHW format, the only format supported by Gorgonia.
type convLayer struct {
	filter *G.Node
	bias   *G.Node
	act    *Activation

	inChannels  int
	outChannels int
	kernel      int
	stride      int
	padding     int
}

// Fwd adds the forward pass of the convLayer to the computational
// graph
func (c *convLayer) Fwd(x *G.Node) (*G.Node, error) {
	if x.Dims() != 4 {
		return nil, fmt.Errorf("fwd: conv layer input must be a 4-tensor "+
			"in BCHW format \n\thave(%v dims)", x.Dims())
	}

	out, err := G.Conv2d(
		x,
		c.filter,
		tensor.Shape{c.kernel, c.kernel},
		[]int{c.padding, c.padding},
		[]int{c.stride, c.stride},
		[]int{1, 1},
	)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not compute convolution: %v", err)
	}

	if c.bias != nil {
		// Broadcast the channel biases along the batch and spatial
		// dimensions
		out = G.Must(G.BroadcastAdd(out, c.bias, nil, []byte{0, 2, 3}))
	}
	if c.act == nil || c.act.IsNil() {
		return out, nil
	}
	return c.act.fwd(out)
}

// Weights returns the filter node of the convLayer
func (c *convLayer) Weights() G.Nodes {
	return G.Nodes{c.filter}
}

// Biases returns the bias nodes of the convLayer
func (c *convLayer) Biases() G.Nodes {
	if c.bias == nil {
		return nil
	}
	return G.Nodes{c.bias}
}

// OutputSize returns the spatial size of the layer output along one
// dimension, given the input size along that dimension.
func (c *convLayer) OutputSize(in int) int {
	return (in+2*c.padding-c.kernel)/c.stride + 1
}

// OutChannels returns the number of channels in the layer output
func (c *convLayer) OutChannels() int {
	return c.outChannels
}

// validateConvArgs validates the per-layer argument lists of the
// convolutional layer builders. All lists must be non-empty, of equal
// length, and hold legal hyperparameters.
func validateConvArgs(fn string, inChannels int, channels, kernels,
	strides, paddings []int, activations []*Activation) error {
	if inChannels <= 0 {
		return fmt.Errorf("%v: input channels must be positive \n\thave(%v)",
			fn, inChannels)
	}
	if len(channels) == 0 {
		return errNotSequence(fn, "channels")
	}

	lists := map[string]int{
		"kernels":     len(kernels),
		"strides":     len(strides),
		"paddings":    len(paddings),
		"activations": len(activations),
	}
	for name, length := range lists {
		if length != len(channels) {
			msg := "%v: invalid number of %v\n\twant(%d)\n\thave(%d)"
			return fmt.Errorf(msg, fn, name, len(channels), length)
		}
	}

	for i := range channels {
		if channels[i] <= 0 || kernels[i] <= 0 || strides[i] <= 0 {
			msg := "%v: channels, kernels, and strides of layer %v must " +
				"be positive"
			return fmt.Errorf(msg, fn, i)
		}
		if paddings[i] < 0 {
			return fmt.Errorf("%v: padding of layer %v cannot be negative",
				fn, i)
		}
	}
	return nil
}

// NewConv2dLayers creates and returns a stack of 2-D convolutional
// layers on graph g. One layer is created for each element of
// channels: for index i, layer i maps channels[i-1] input channels
// (or inChannels, for i = 0) to channels[i] output channels with a
// square kernel of size kernels[i], stride strides[i], and zero
// padding paddings[i], then applies activations[i].
//
// The channels, kernels, strides, paddings, and activations lists must
// all have equal, non-zero length. Inconsistent lengths are a
// configuration error.
func NewConv2dLayers(g *G.ExprGraph, inChannels int, channels, kernels,
	strides, paddings []int, init G.InitWFn,
	activations []*Activation) ([]Layer, error) {
	err := validateConvArgs("newconv2dlayers", inChannels, channels, kernels,
		strides, paddings, activations)
	if err != nil {
		return nil, err
	}

	layers := make([]Layer, len(channels))
	in := inChannels
	for i, out := range channels {
		filter := G.NewTensor(
			g,
			tensor.Float64,
			4,
			G.WithShape(out, in, kernels[i], kernels[i]),
			G.WithName(fmt.Sprintf("ConvL%dW", i)),
			G.WithInit(init),
		)
		bias := G.NewTensor(
			g,
			tensor.Float64,
			4,
			G.WithShape(1, out, 1, 1),
			G.WithName(fmt.Sprintf("ConvL%dB", i)),
			G.WithInit(G.Zeroes()),
		)

		layers[i] = &convLayer{
			filter:      filter,
			bias:        bias,
			act:         activations[i],
			inChannels:  in,
			outChannels: out,
			kernel:      kernels[i],
			stride:      strides[i],
			padding:     paddings[i],
		}
		in = out
	}
	return layers, nil
}
