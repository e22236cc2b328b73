package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// transposedConvLayer implements a single transposed 2-D convolutional
// layer for upscaling feature maps. Inputs are expected in BCHW
// format.
//
// Gorgonia has no transposed convolution operator, so the forward pass
// is realized as nearest-neighbour upsampling by the layer stride
// followed by a stride-1 convolution with padding kernel - 1 -
// padding. For stride 1 this produces exactly the transposed
// convolution output geometry; for larger strides it is the standard
// upsample-convolve substitute, which also avoids the checkerboard
// artifacts of true transposed convolutions.
type transposedConvLayer struct {
	filter *G.Node
	bias   *G.Node
	act    *Activation

	inChannels    int
	outChannels   int
	kernel        int
	stride        int
	padding       int
	outputPadding int
}

// Fwd adds the forward pass of the transposedConvLayer to the
// computational graph
func (t *transposedConvLayer) Fwd(x *G.Node) (*G.Node, error) {
	if x.Dims() != 4 {
		return nil, fmt.Errorf("fwd: transposed conv layer input must be "+
			"a 4-tensor in BCHW format \n\thave(%v dims)", x.Dims())
	}

	var err error
	if t.stride > 1 {
		x, err = G.Upsample2D(x, t.stride)
		if err != nil {
			return nil, fmt.Errorf("fwd: could not upsample input: %v", err)
		}
	}

	pad := t.kernel - 1 - t.padding
	out, err := G.Conv2d(
		x,
		t.filter,
		tensor.Shape{t.kernel, t.kernel},
		[]int{pad, pad},
		[]int{1, 1},
		[]int{1, 1},
	)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not compute convolution: %v", err)
	}

	if t.bias != nil {
		out = G.Must(G.BroadcastAdd(out, t.bias, nil, []byte{0, 2, 3}))
	}
	if t.act == nil || t.act.IsNil() {
		return out, nil
	}
	return t.act.fwd(out)
}

// Weights returns the filter node of the transposedConvLayer
func (t *transposedConvLayer) Weights() G.Nodes {
	return G.Nodes{t.filter}
}

// Biases returns the bias nodes of the transposedConvLayer
func (t *transposedConvLayer) Biases() G.Nodes {
	if t.bias == nil {
		return nil
	}
	return G.Nodes{t.bias}
}

// TargetSize returns the spatial size along one dimension that a true
// transposed convolution with this layer's hyperparameters would
// produce from an input of size in.
func (t *transposedConvLayer) TargetSize(in int) int {
	return (in-1)*t.stride - 2*t.padding + t.kernel + t.outputPadding
}

// OutputSize returns the spatial size along one dimension that the
// layer's forward pass produces from an input of size in.
func (t *transposedConvLayer) OutputSize(in int) int {
	upsampled := in * t.stride
	pad := t.kernel - 1 - t.padding
	return upsampled + 2*pad - t.kernel + 1
}

// OutChannels returns the number of channels in the layer output
func (t *transposedConvLayer) OutChannels() int {
	return t.outChannels
}

// NewTransposedConv2dLayers creates and returns a stack of transposed
// 2-D convolutional layers on graph g. One layer is created for each
// element of channels: for index i, layer i maps channels[i-1] input
// channels (or inChannels, for i = 0) to channels[i] output channels
// with a square kernel of size kernels[i], stride strides[i], zero
// padding paddings[i], and output padding outputPaddings[i], then
// applies activations[i].
//
// The channels, kernels, strides, paddings, outputPaddings, and
// activations lists must all have equal, non-zero length.
// Inconsistent lengths are a configuration error.
func NewTransposedConv2dLayers(g *G.ExprGraph, inChannels int, channels,
	kernels, strides, paddings, outputPaddings []int, init G.InitWFn,
	activations []*Activation) ([]Layer, error) {
	err := validateConvArgs("newtransposedconv2dlayers", inChannels, channels,
		kernels, strides, paddings, activations)
	if err != nil {
		return nil, err
	}
	if len(outputPaddings) != len(channels) {
		msg := "newtransposedconv2dlayers: invalid number of output " +
			"paddings\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(channels), len(outputPaddings))
	}
	for i := range channels {
		if outputPaddings[i] < 0 {
			msg := "newtransposedconv2dlayers: output padding of layer %v " +
				"cannot be negative"
			return nil, fmt.Errorf(msg, i)
		}
		if paddings[i] > kernels[i]-1 {
			msg := "newtransposedconv2dlayers: padding of layer %v cannot " +
				"exceed kernel size - 1 \n\twant(≤ %v) \n\thave(%v)"
			return nil, fmt.Errorf(msg, i, kernels[i]-1, paddings[i])
		}
	}

	layers := make([]Layer, len(channels))
	in := inChannels
	for i, out := range channels {
		filter := G.NewTensor(
			g,
			tensor.Float64,
			4,
			G.WithShape(out, in, kernels[i], kernels[i]),
			G.WithName(fmt.Sprintf("TransposedConvL%dW", i)),
			G.WithInit(init),
		)
		bias := G.NewTensor(
			g,
			tensor.Float64,
			4,
			G.WithShape(1, out, 1, 1),
			G.WithName(fmt.Sprintf("TransposedConvL%dB", i)),
			G.WithInit(G.Zeroes()),
		)

		layers[i] = &transposedConvLayer{
			filter:        filter,
			bias:          bias,
			act:           activations[i],
			inChannels:    in,
			outChannels:   out,
			kernel:        kernels[i],
			stride:        strides[i],
			padding:       paddings[i],
			outputPadding: outputPaddings[i],
		}
		in = out
	}
	return layers, nil
}
