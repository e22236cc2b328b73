package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gorl/utils/tensorutils"
)

// CellType describes the available recurrent cell variants
type CellType string

// Available recurrent cell variants
const (
	Elman CellType = "Elman"
	LSTM  CellType = "LSTM"
	GRU   CellType = "GRU"
)

// gates returns the number of gate blocks held in the fused weight
// matrices of the cell variant, or an error if the variant is not
// recognized.
func (c CellType) gates() (int, error) {
	switch c {
	case Elman:
		return 1, nil
	case LSTM:
		return 4, nil
	case GRU:
		return 3, nil
	default:
		return 0, fmt.Errorf("no such cell type: %v", c)
	}
}

// State holds the recurrent state carried by a Cell between timesteps.
// The Cell node is only non-nil for LSTM cells.
type State struct {
	Hidden *G.Node
	Cell   *G.Node
}

// Cell is a single recurrent cell. A Cell is also a Layer: its Fwd
// method computes one step from a fresh zero state, and its weight
// and bias node lists expose every gate parameter pair, so that
// initializers apply uniformly across gates.
type Cell interface {
	Layer

	// Step adds one recurrent step on input x and the previous state
	// to the computational graph, returning the new state
	Step(x *G.Node, prev State) (State, error)

	// InitialState returns a zero state for a batch of the given size
	InitialState(batch int) State

	// InputSize returns the number of input features of the cell
	InputSize() int

	// HiddenSize returns the dimensionality of the cell's hidden state
	HiddenSize() int
}

// cellBase holds the parameters common to all recurrent cell
// variants: fused input-to-hidden and hidden-to-hidden weight
// matrices, each with a bias.
type cellBase struct {
	g          *G.ExprGraph
	wIH, wHH   *G.Node
	bIH, bHH   *G.Node
	inputs     int
	hidden     int
	makesCells bool // whether InitialState carries a cell state node
}

// newCellBase returns a new cellBase with gates fused gate blocks per
// weight matrix
func newCellBase(g *G.ExprGraph, inputs, hidden, gates int, init G.InitWFn,
	name string, makesCells bool) cellBase {
	cols := gates * hidden
	return cellBase{
		g:          g,
		wIH:        newWeights(g, inputs, cols, init, name+"Wih"),
		wHH:        newWeights(g, hidden, cols, init, name+"Whh"),
		bIH:        newBias(g, cols, name+"Bih"),
		bHH:        newBias(g, cols, name+"Bhh"),
		inputs:     inputs,
		hidden:     hidden,
		makesCells: makesCells,
	}
}

// Weights returns the gate weight nodes of the cell
func (c *cellBase) Weights() G.Nodes {
	return G.Nodes{c.wIH, c.wHH}
}

// Biases returns the gate bias nodes of the cell
func (c *cellBase) Biases() G.Nodes {
	return G.Nodes{c.bIH, c.bHH}
}

// InputSize returns the number of input features of the cell
func (c *cellBase) InputSize() int {
	return c.inputs
}

// HiddenSize returns the dimensionality of the cell's hidden state
func (c *cellBase) HiddenSize() int {
	return c.hidden
}

// InitialState returns a zero state for a batch of the given size
func (c *cellBase) InitialState(batch int) State {
	hidden := G.NewMatrix(
		c.g,
		tensor.Float64,
		G.WithShape(batch, c.hidden),
		G.WithInit(G.Zeroes()),
	)

	var cell *G.Node
	if c.makesCells {
		cell = G.NewMatrix(
			c.g,
			tensor.Float64,
			G.WithShape(batch, c.hidden),
			G.WithInit(G.Zeroes()),
		)
	}
	return State{Hidden: hidden, Cell: cell}
}

// checkStepInput validates the input to a recurrent step
func (c *cellBase) checkStepInput(x *G.Node) error {
	if !x.IsMatrix() {
		return fmt.Errorf("step: cell input must be a matrix")
	}
	if x.Shape()[1] != c.inputs {
		return fmt.Errorf("step: invalid number of input features "+
			"\n\twant(%v) \n\thave(%v)", c.inputs, x.Shape()[1])
	}
	return nil
}

// preActivations computes the input and hidden pre-activation blocks
// x·Wih + bih and h·Whh + bhh
func (c *cellBase) preActivations(x, h *G.Node) (*G.Node, *G.Node) {
	zx := G.Must(G.Mul(x, c.wIH))
	zx = G.Must(G.BroadcastAdd(zx, c.bIH, nil, []byte{0}))
	zh := G.Must(G.Mul(h, c.wHH))
	zh = G.Must(G.BroadcastAdd(zh, c.bHH, nil, []byte{0}))
	return zx, zh
}

// gate slices columns [from, to) out of a fused pre-activation block
func gate(z *G.Node, from, to int) *G.Node {
	return G.Must(G.Slice(z, nil, tensorutils.NewSlice(from, to, 1)))
}

// elmanCell implements a basic Elman recurrent cell:
// h' = tanh(x·Wih + bih + h·Whh + bhh)
type elmanCell struct {
	cellBase
}

// Step adds one recurrent step to the computational graph
func (e *elmanCell) Step(x *G.Node, prev State) (State, error) {
	if err := e.checkStepInput(x); err != nil {
		return State{}, err
	}

	zx, zh := e.preActivations(x, prev.Hidden)
	hidden := G.Must(G.Tanh(G.Must(G.Add(zx, zh))))
	return State{Hidden: hidden}, nil
}

// Fwd computes a single step from a zero initial state
func (e *elmanCell) Fwd(x *G.Node) (*G.Node, error) {
	state, err := e.Step(x, e.InitialState(x.Shape()[0]))
	if err != nil {
		return nil, err
	}
	return state.Hidden, nil
}

// lstmCell implements a long short-term memory cell with fused gate
// matrices in input, forget, cell, output order.
type lstmCell struct {
	cellBase
}

// Step adds one recurrent step to the computational graph
func (l *lstmCell) Step(x *G.Node, prev State) (State, error) {
	if err := l.checkStepInput(x); err != nil {
		return State{}, err
	}
	if prev.Cell == nil {
		return State{}, fmt.Errorf("step: LSTM cell requires a cell state")
	}

	zx, zh := l.preActivations(x, prev.Hidden)
	z := G.Must(G.Add(zx, zh))

	h := l.hidden
	input := G.Must(G.Sigmoid(gate(z, 0, h)))
	forget := G.Must(G.Sigmoid(gate(z, h, 2*h)))
	candidate := G.Must(G.Tanh(gate(z, 2*h, 3*h)))
	output := G.Must(G.Sigmoid(gate(z, 3*h, 4*h)))

	cell := G.Must(G.Add(
		G.Must(G.HadamardProd(forget, prev.Cell)),
		G.Must(G.HadamardProd(input, candidate)),
	))
	hidden := G.Must(G.HadamardProd(output, G.Must(G.Tanh(cell))))

	return State{Hidden: hidden, Cell: cell}, nil
}

// Fwd computes a single step from a zero initial state
func (l *lstmCell) Fwd(x *G.Node) (*G.Node, error) {
	state, err := l.Step(x, l.InitialState(x.Shape()[0]))
	if err != nil {
		return nil, err
	}
	return state.Hidden, nil
}

// gruCell implements a gated recurrent unit cell with fused gate
// matrices in reset, update, candidate order.
type gruCell struct {
	cellBase
}

// Step adds one recurrent step to the computational graph
func (g *gruCell) Step(x *G.Node, prev State) (State, error) {
	if err := g.checkStepInput(x); err != nil {
		return State{}, err
	}

	zx, zh := g.preActivations(x, prev.Hidden)

	h := g.hidden
	reset := G.Must(G.Sigmoid(G.Must(G.Add(gate(zx, 0, h), gate(zh, 0, h)))))
	update := G.Must(G.Sigmoid(
		G.Must(G.Add(gate(zx, h, 2*h), gate(zh, h, 2*h))),
	))
	candidate := G.Must(G.Tanh(G.Must(G.Add(
		gate(zx, 2*h, 3*h),
		G.Must(G.HadamardProd(reset, gate(zh, 2*h, 3*h))),
	))))

	one := G.NewConstant(1.0)
	keep := G.Must(G.Sub(one, update))
	hidden := G.Must(G.Add(
		G.Must(G.HadamardProd(keep, candidate)),
		G.Must(G.HadamardProd(update, prev.Hidden)),
	))

	return State{Hidden: hidden}, nil
}

// Fwd computes a single step from a zero initial state
func (g *gruCell) Fwd(x *G.Node) (*G.Node, error) {
	state, err := g.Step(x, g.InitialState(x.Shape()[0]))
	if err != nil {
		return nil, err
	}
	return state.Hidden, nil
}

// NewRNNCells creates and returns a stack of recurrent cells of the
// argument variant on graph g. One cell is created for each element
// of hiddenSizes: for index i, cell i takes hiddenSizes[i-1] input
// features (or inputDim, for i = 0) and carries a hidden state of
// dimensionality hiddenSizes[i]. The parameter init determines the
// weight initialization scheme of every gate matrix.
//
// An unrecognized cell variant is an error, as is an empty
// hiddenSizes list.
func NewRNNCells(g *G.ExprGraph, cell CellType, inputDim int,
	hiddenSizes []int, init G.InitWFn) ([]Cell, error) {
	gates, err := cell.gates()
	if err != nil {
		return nil, fmt.Errorf("newrnncells: %v", err)
	}
	if inputDim <= 0 {
		return nil, fmt.Errorf("newrnncells: input dimension must be "+
			"positive \n\thave(%v)", inputDim)
	}
	if len(hiddenSizes) == 0 {
		return nil, errNotSequence("newrnncells", "hiddenSizes")
	}
	for i, size := range hiddenSizes {
		if size <= 0 {
			return nil, fmt.Errorf("newrnncells: hidden size of cell %v "+
				"must be positive \n\thave(%v)", i, size)
		}
	}

	cells := make([]Cell, len(hiddenSizes))
	inputs := inputDim
	for i, hidden := range hiddenSizes {
		name := fmt.Sprintf("%vCell%d", cell, i)
		base := newCellBase(g, inputs, hidden, gates, init, name,
			cell == LSTM)

		switch cell {
		case Elman:
			cells[i] = &elmanCell{base}
		case LSTM:
			cells[i] = &lstmCell{base}
		case GRU:
			cells[i] = &gruCell{base}
		}
		inputs = hidden
	}
	return cells, nil
}
