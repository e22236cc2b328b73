package policy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gorl/distribution"
	"github.com/samuelfneumann/gorl/network"
)

// DiagGaussianHead maps a batch of feature vectors to a batch of
// diagonal Gaussian distributions over continuous actions. The mean is
// a linear projection of the features. The standard deviation is
// state-independent: it is computed from a trainable parameter vector
// through the mapping selected by a StdStyle, and its trainable
// parameter is initialized so that the standard deviation of a freshly
// constructed head equals std0 in every action dimension.
//
// The head also exposes an in-graph log density node so that policy
// gradient losses can be constructed directly on the head's
// computational graph.
type DiagGaussianHead struct {
	g         *G.ExprGraph
	input     *G.Node
	actions   *G.Node
	meanLayer network.Layer
	stdParam  *G.Node

	mean   *G.Node
	std    *G.Node
	logPdf *G.Node

	meanVal G.Value
	stdVal  G.Value

	vm G.VM

	featureDim int
	actionDim  int
	batch      int

	std0     float64
	style    StdStyle
	stdRange []float64
	beta     float64

	seed uint64
}

// NewDiagGaussianHead returns a new DiagGaussianHead projecting
// featureDim features to actionDim action means for batches of batch
// states. The standard deviation is parameterized by style; std0 sets
// the standard deviation of the freshly constructed head. For the
// SigmoidalStd style, stdRange gives the [low, high) bounds of the
// standard deviation and beta the sharpness of the sigmoid; for all
// other styles stdRange must be empty and beta must be 0. The
// parameter init determines the weight initialization scheme of the
// mean projection, and seed determines the sequence of actions sampled
// from the head's distributions.
func NewDiagGaussianHead(featureDim, actionDim, batch int, std0 float64,
	style StdStyle, stdRange []float64, beta float64, init G.InitWFn,
	seed uint64) (*DiagGaussianHead, error) {
	if featureDim <= 0 {
		return nil, fmt.Errorf("newDiagGaussianHead: feature dimension "+
			"must be positive \n\thave(%v)", featureDim)
	}
	if actionDim <= 0 {
		return nil, fmt.Errorf("newDiagGaussianHead: action dimension "+
			"must be positive \n\thave(%v)", actionDim)
	}
	if batch <= 0 {
		return nil, fmt.Errorf("newDiagGaussianHead: batch size must be "+
			"positive \n\thave(%v)", batch)
	}
	if std0 <= 0 {
		return nil, fmt.Errorf("newDiagGaussianHead: std0 must be "+
			"positive \n\thave(%v)", std0)
	}
	if err := style.validate(std0, stdRange, beta); err != nil {
		return nil, fmt.Errorf("newDiagGaussianHead: %v", err)
	}

	g := G.NewGraph()
	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, featureDim),
		G.WithName("DiagGaussianHeadInput"),
		G.WithInit(G.Zeroes()),
	)

	layers, err := network.NewFCLayers(g, featureDim, []int{actionDim},
		[]bool{true}, init, []*network.Activation{network.Identity()})
	if err != nil {
		return nil, fmt.Errorf("newDiagGaussianHead: could not create "+
			"mean projection: %v", err)
	}

	mean, err := layers[0].Fwd(input)
	if err != nil {
		return nil, fmt.Errorf("newDiagGaussianHead: could not compute "+
			"mean: %v", err)
	}

	// State-independent std parameter, initialized so the mapped
	// standard deviation starts at exactly std0
	p0 := style.initialParam(std0, stdRange, beta)
	stdParam := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, actionDim),
		G.WithName("DiagGaussianHeadStdParam"),
		G.WithInit(G.ValuesOf(p0)),
	)

	std, err := stdNode(g, stdParam, style, stdRange, beta)
	if err != nil {
		return nil, fmt.Errorf("newDiagGaussianHead: could not compute "+
			"standard deviation: %v", err)
	}

	actions := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, actionDim),
		G.WithName("DiagGaussianHeadActions"),
		G.WithInit(G.Zeroes()),
	)

	logPdf, err := logPdfNode(mean, std, actions)
	if err != nil {
		return nil, fmt.Errorf("newDiagGaussianHead: could not compute "+
			"log density: %v", err)
	}

	head := &DiagGaussianHead{
		g:          g,
		input:      input,
		actions:    actions,
		meanLayer:  layers[0],
		stdParam:   stdParam,
		mean:       mean,
		std:        std,
		logPdf:     logPdf,
		featureDim: featureDim,
		actionDim:  actionDim,
		batch:      batch,
		std0:       std0,
		style:      style,
		stdRange:   stdRange,
		beta:       beta,
		seed:       seed,
	}
	G.Read(head.mean, &head.meanVal)
	G.Read(head.std, &head.stdVal)
	head.vm = G.NewTapeMachine(g)

	return head, nil
}

// stdNode adds the nodes computing the standard deviation from the
// trainable parameter p under the argument style
func stdNode(g *G.ExprGraph, p *G.Node, style StdStyle, stdRange []float64,
	beta float64) (*G.Node, error) {
	switch style {
	case ExpStd:
		return G.Exp(p)

	case SoftplusStd:
		soft, err := G.Softplus(p)
		if err != nil {
			return nil, err
		}
		return G.Add(soft, G.NewConstant(stdEps))

	case SigmoidalStd:
		scaled, err := G.Mul(p, G.NewConstant(beta))
		if err != nil {
			return nil, err
		}
		sigmoid, err := G.Sigmoid(scaled)
		if err != nil {
			return nil, err
		}
		span, err := G.Mul(sigmoid, G.NewConstant(stdRange[1]-stdRange[0]))
		if err != nil {
			return nil, err
		}
		return G.Add(span, G.NewConstant(stdRange[0]))

	default:
		return nil, fmt.Errorf("stdNode: no such std style: %v", style)
	}
}

// logPdfNode adds the nodes computing the log density of the (batch x
// dims) actions node under diagonal Gaussians with the argument (batch
// x dims) mean node and (1 x dims) standard deviation node, returning
// one log density per batch row.
func logPdfNode(mean, std, actions *G.Node) (*G.Node, error) {
	diff, err := G.Sub(actions, mean)
	if err != nil {
		return nil, err
	}
	z, err := G.BroadcastHadamardDiv(diff, std, nil, []byte{0})
	if err != nil {
		return nil, err
	}
	sq, err := G.Pow(z, G.NewConstant(2.0))
	if err != nil {
		return nil, err
	}
	exponent, err := G.Mul(sq, G.NewConstant(-0.5))
	if err != nil {
		return nil, err
	}

	logStd, err := G.Log(std)
	if err != nil {
		return nil, err
	}
	terms, err := G.Add(logStd, G.NewConstant(0.5*math.Log(2*math.Pi)))
	if err != nil {
		return nil, err
	}

	perDim, err := G.BroadcastSub(exponent, terms, nil, []byte{0})
	if err != nil {
		return nil, err
	}
	return G.Sum(perDim, 1)
}

// Forward runs the forward pass of the head on a batch of feature
// vectors, given in row-major (batch x featureDim) order, and returns
// the resulting batch of diagonal Gaussian distributions over actions.
func (d *DiagGaussianHead) Forward(
	features []float64) (*distribution.DiagGaussian, error) {
	if len(features) != d.batch*d.featureDim {
		return nil, fmt.Errorf("forward: invalid number of features "+
			"\n\twant(%v) \n\thave(%v)", d.batch*d.featureDim, len(features))
	}

	input := tensor.New(
		tensor.WithShape(d.batch, d.featureDim),
		tensor.WithBacking(features),
	)
	if err := G.Let(d.input, input); err != nil {
		return nil, fmt.Errorf("forward: could not set input: %v", err)
	}

	if err := d.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("forward: could not run forward pass: %v", err)
	}
	defer d.vm.Reset()

	meanData := d.meanVal.Data().([]float64)
	mean := make([]float64, len(meanData))
	copy(mean, meanData)

	stdData := d.stdVal.Data().([]float64)
	std := make([]float64, len(stdData))
	copy(std, stdData)

	dist, err := distribution.NewDiagGaussian(
		mat.NewDense(d.batch, d.actionDim, mean), std, d.seed)
	if err != nil {
		return nil, fmt.Errorf("forward: could not create distribution: %v",
			err)
	}
	d.seed++

	return dist, nil
}

// LogPdfOf sets the head's input and action nodes so that the next
// run of an external VM over the head's graph computes the log density
// of the argument actions at the argument states. Both arguments are
// given in row-major batch-first order. The returned node holds one
// log density per batch row and can be used to build policy gradient
// losses.
func (d *DiagGaussianHead) LogPdfOf(states, actions []float64) (*G.Node,
	error) {
	if len(states) != d.batch*d.featureDim {
		return nil, fmt.Errorf("logPdfOf: invalid number of features "+
			"\n\twant(%v) \n\thave(%v)", d.batch*d.featureDim, len(states))
	}
	if len(actions) != d.batch*d.actionDim {
		return nil, fmt.Errorf("logPdfOf: invalid number of actions "+
			"\n\twant(%v) \n\thave(%v)", d.batch*d.actionDim, len(actions))
	}

	input := tensor.New(
		tensor.WithShape(d.batch, d.featureDim),
		tensor.WithBacking(states),
	)
	if err := G.Let(d.input, input); err != nil {
		return nil, fmt.Errorf("logPdfOf: could not set input: %v", err)
	}

	actionsT := tensor.New(
		tensor.WithShape(d.batch, d.actionDim),
		tensor.WithBacking(actions),
	)
	if err := G.Let(d.actions, actionsT); err != nil {
		return nil, fmt.Errorf("logPdfOf: could not set actions: %v", err)
	}

	return d.logPdf, nil
}

// FeatureDim returns the number of input features of the head
func (d *DiagGaussianHead) FeatureDim() int {
	return d.featureDim
}

// ActionDim returns the dimensionality of actions of the head
func (d *DiagGaussianHead) ActionDim() int {
	return d.actionDim
}

// BatchSize returns the batch size of inputs to the head
func (d *DiagGaussianHead) BatchSize() int {
	return d.batch
}

// Std0 returns the standard deviation the head was constructed with
func (d *DiagGaussianHead) Std0() float64 {
	return d.std0
}

// Style returns the standard deviation parameterization of the head
func (d *DiagGaussianHead) Style() StdStyle {
	return d.style
}

// StdRange returns the standard deviation bounds of the head, which
// are nil unless the head uses the SigmoidalStd style
func (d *DiagGaussianHead) StdRange() []float64 {
	return d.stdRange
}

// Beta returns the sigmoid sharpness of the head, which is 0 unless
// the head uses the SigmoidalStd style
func (d *DiagGaussianHead) Beta() float64 {
	return d.beta
}

// Graph returns the computational graph of the head
func (d *DiagGaussianHead) Graph() *G.ExprGraph {
	return d.g
}

// MeanNode returns the node holding the action means
func (d *DiagGaussianHead) MeanNode() *G.Node {
	return d.mean
}

// StddevNode returns the node holding the standard deviations
func (d *DiagGaussianHead) StddevNode() *G.Node {
	return d.std
}

// LogPdfNode returns the node holding the per-row log density of the
// head's action node, for use in externally constructed loss functions
func (d *DiagGaussianHead) LogPdfNode() *G.Node {
	return d.logPdf
}

// Learnables returns the learnable nodes of the head
func (d *DiagGaussianHead) Learnables() G.Nodes {
	return append(network.Learnables(d.meanLayer), d.stdParam)
}

// Model returns the learnable nodes of the head with their gradients
func (d *DiagGaussianHead) Model() []G.ValueGrad {
	return append(network.Model(d.meanLayer), d.stdParam)
}
