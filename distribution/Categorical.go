// Package distribution implements the probability distributions
// produced by policy heads. Distributions hold the concrete
// probabilities or moments read off a policy's computational graph
// after its forward pass and support sampling and density queries for
// batches of states.
package distribution

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Categorical is a batch of categorical distributions over a fixed
// number of discrete events, one distribution per batch row.
type Categorical struct {
	probs  []float64 // row-major (batch x events) probabilities
	batch  int
	events int
	source rand.Source
}

// NewCategorical returns a new batched categorical distribution. The
// probs slice holds the row-major (batch x events) probability
// matrix; probabilities cannot be negative and every row must sum to
// a positive value. The seed determines the sequence of actions drawn
// by Sample.
func NewCategorical(probs []float64, batch, events int,
	seed uint64) (*Categorical, error) {
	if batch < 1 || events < 1 {
		return nil, fmt.Errorf("newCategorical: batch and events must be "+
			"positive \n\thave(%v, %v)", batch, events)
	}
	if len(probs) != batch*events {
		return nil, fmt.Errorf("newCategorical: invalid number of "+
			"probabilities \n\twant(%v) \n\thave(%v)", batch*events,
			len(probs))
	}
	for i, prob := range probs {
		if prob < 0 {
			return nil, fmt.Errorf("newCategorical: probability %v cannot "+
				"be negative \n\thave(%v)", i, prob)
		}
	}
	for i := 0; i < batch; i++ {
		total := 0.0
		for _, prob := range probs[i*events : (i+1)*events] {
			total += prob
		}
		if total <= 0 {
			return nil, fmt.Errorf("newCategorical: probabilities of row %v "+
				"must have a positive sum \n\thave(%v)", i, total)
		}
	}

	return &Categorical{
		probs:  probs,
		batch:  batch,
		events: events,
		source: rand.NewSource(seed),
	}, nil
}

// BatchSize returns the number of distributions in the batch
func (c *Categorical) BatchSize() int {
	return c.batch
}

// NumEvents returns the number of discrete events of each
// distribution in the batch
func (c *Categorical) NumEvents() int {
	return c.events
}

// Probs returns the row-major (batch x events) probability matrix of
// the distribution
func (c *Categorical) Probs() []float64 {
	return c.probs
}

// LogProbs returns the row-major (batch x events) matrix of log
// probabilities of the distribution
func (c *Categorical) LogProbs() []float64 {
	logProbs := make([]float64, len(c.probs))
	for i, prob := range c.probs {
		logProbs[i] = math.Log(prob)
	}
	return logProbs
}

// row returns the probabilities of batch row i
func (c *Categorical) row(i int) []float64 {
	return c.probs[i*c.events : (i+1)*c.events]
}

// Sample draws one event per batch row
func (c *Categorical) Sample() []int {
	events := make([]int, c.batch)
	for i := range events {
		dist := distuv.NewCategorical(c.row(i), c.source)
		events[i] = int(dist.Rand())
	}
	return events
}

// LogProb returns the log probability of the argument events, one per
// batch row
func (c *Categorical) LogProb(events []int) ([]float64, error) {
	if len(events) != c.batch {
		return nil, fmt.Errorf("logProb: invalid number of events "+
			"\n\twant(%v) \n\thave(%v)", c.batch, len(events))
	}

	logProbs := make([]float64, c.batch)
	for i, event := range events {
		if event < 0 || event >= c.events {
			return nil, fmt.Errorf("logProb: event %v out of range [0, %v)",
				event, c.events)
		}
		logProbs[i] = math.Log(c.row(i)[event])
	}
	return logProbs, nil
}

// Entropy returns the entropy of each distribution in the batch
func (c *Categorical) Entropy() []float64 {
	entropy := make([]float64, c.batch)
	for i := range entropy {
		for _, prob := range c.row(i) {
			if prob > 0 {
				entropy[i] -= prob * math.Log(prob)
			}
		}
	}
	return entropy
}
