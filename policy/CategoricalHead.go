// Package policy implements policy heads: the final network layers
// mapping learned feature vectors to action distributions. Each head
// owns its computational graph and trainable parameters and produces
// a distribution per forward pass. Parameters are updated only by an
// external solver between forward passes.
package policy

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gorl/distribution"
	"github.com/samuelfneumann/gorl/network"
)

// CategoricalHead maps a batch of feature vectors to a batch of
// categorical distributions over discrete actions using a single
// linear projection to action logits.
type CategoricalHead struct {
	g     *G.ExprGraph
	input *G.Node
	layer network.Layer

	logits   *G.Node
	probs    *G.Node
	probsVal G.Value

	vm G.VM

	featureDim int
	numActions int
	batch      int
	seed       uint64
}

// NewCategoricalHead returns a new CategoricalHead projecting
// featureDim features to numActions action logits for batches of
// batch states. The parameter init determines the weight
// initialization scheme of the projection, and seed determines the
// sequence of actions sampled from the head's distributions.
func NewCategoricalHead(featureDim, numActions, batch int, init G.InitWFn,
	seed uint64) (*CategoricalHead, error) {
	if featureDim <= 0 {
		return nil, fmt.Errorf("newCategoricalHead: feature dimension "+
			"must be positive \n\thave(%v)", featureDim)
	}
	if numActions <= 0 {
		return nil, fmt.Errorf("newCategoricalHead: number of actions "+
			"must be positive \n\thave(%v)", numActions)
	}
	if batch <= 0 {
		return nil, fmt.Errorf("newCategoricalHead: batch size must be "+
			"positive \n\thave(%v)", batch)
	}

	g := G.NewGraph()
	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, featureDim),
		G.WithName("CategoricalHeadInput"),
		G.WithInit(G.Zeroes()),
	)

	layers, err := network.NewFCLayers(g, featureDim, []int{numActions},
		[]bool{true}, init, []*network.Activation{network.Identity()})
	if err != nil {
		return nil, fmt.Errorf("newCategoricalHead: could not create "+
			"logits projection: %v", err)
	}

	logits, err := layers[0].Fwd(input)
	if err != nil {
		return nil, fmt.Errorf("newCategoricalHead: could not compute "+
			"forward pass: %v", err)
	}
	probs := G.Must(G.SoftMax(logits))

	head := &CategoricalHead{
		g:          g,
		input:      input,
		layer:      layers[0],
		logits:     logits,
		probs:      probs,
		featureDim: featureDim,
		numActions: numActions,
		batch:      batch,
		seed:       seed,
	}
	G.Read(head.probs, &head.probsVal)
	head.vm = G.NewTapeMachine(g)

	return head, nil
}

// Forward runs the forward pass of the head on a batch of feature
// vectors, given in row-major (batch x featureDim) order, and returns
// the resulting batch of categorical distributions over actions.
func (c *CategoricalHead) Forward(
	features []float64) (*distribution.Categorical, error) {
	if len(features) != c.batch*c.featureDim {
		return nil, fmt.Errorf("forward: invalid number of features "+
			"\n\twant(%v) \n\thave(%v)", c.batch*c.featureDim, len(features))
	}

	input := tensor.New(
		tensor.WithShape(c.batch, c.featureDim),
		tensor.WithBacking(features),
	)
	if err := G.Let(c.input, input); err != nil {
		return nil, fmt.Errorf("forward: could not set input: %v", err)
	}

	if err := c.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("forward: could not run forward pass: %v", err)
	}
	defer c.vm.Reset()

	probs := c.probsVal.Data().([]float64)
	copied := make([]float64, len(probs))
	copy(copied, probs)

	dist, err := distribution.NewCategorical(copied, c.batch, c.numActions,
		c.seed)
	if err != nil {
		return nil, fmt.Errorf("forward: could not create distribution: %v",
			err)
	}
	c.seed++

	return dist, nil
}

// FeatureDim returns the number of input features of the head
func (c *CategoricalHead) FeatureDim() int {
	return c.featureDim
}

// NumActions returns the number of discrete actions of the head
func (c *CategoricalHead) NumActions() int {
	return c.numActions
}

// BatchSize returns the batch size of inputs to the head
func (c *CategoricalHead) BatchSize() int {
	return c.batch
}

// Graph returns the computational graph of the head
func (c *CategoricalHead) Graph() *G.ExprGraph {
	return c.g
}

// LogitsNode returns the node holding the action logits, for use in
// externally constructed loss functions
func (c *CategoricalHead) LogitsNode() *G.Node {
	return c.logits
}

// ProbsNode returns the node holding the action probabilities
func (c *CategoricalHead) ProbsNode() *G.Node {
	return c.probs
}

// Learnables returns the learnable nodes of the head
func (c *CategoricalHead) Learnables() G.Nodes {
	return network.Learnables(c.layer)
}

// Model returns the learnable nodes of the head with their gradients
func (c *CategoricalHead) Model() []G.ValueGrad {
	return network.Model(c.layer)
}
