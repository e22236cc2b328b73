package solver

import (
	"fmt"

	"github.com/samuelfneumann/gorl/utils/floatutils"
)

// LinearSchedule linearly decays the learning rate of a Solver from
// its base value down to a floor over a fixed number of steps. After
// decaySteps steps the learning rate is pinned at the floor: further
// calls to Step are legal and change nothing.
//
// The schedule is monotonically non-increasing. At step t the
// learning rate is
//
//	lr(t) = max(minLR, baseLR - t * (baseLR - minLR) / decaySteps)
//
// where baseLR is the learning rate of the solver at construction
// time.
type LinearSchedule struct {
	solver     *Solver
	baseLR     float64
	minLR      float64
	decaySteps int
	step       int
	lr         float64
}

// NewLinearSchedule returns a new LinearSchedule decaying the
// learning rate of s to minLR over decaySteps steps.
func NewLinearSchedule(s *Solver, decaySteps int,
	minLR float64) (*LinearSchedule, error) {
	if s == nil {
		return nil, fmt.Errorf("newLinearSchedule: no solver given")
	}
	if decaySteps < 1 {
		return nil, fmt.Errorf("newLinearSchedule: decay steps must be "+
			"positive \n\thave(%v)", decaySteps)
	}

	baseLR := s.StepSize()
	if minLR <= 0 || minLR > baseLR {
		return nil, fmt.Errorf("newLinearSchedule: minimum learning rate "+
			"must be in (0, %v] \n\thave(%v)", baseLR, minLR)
	}

	return &LinearSchedule{
		solver:     s,
		baseLR:     baseLR,
		minLR:      minLR,
		decaySteps: decaySteps,
		lr:         baseLR,
	}, nil
}

// Step advances the schedule by one step, updating the learning rate
// of the wrapped Solver. Once the floor is reached, the solver is
// left untouched.
func (l *LinearSchedule) Step() error {
	l.step++
	if l.step > l.decaySteps {
		return nil
	}

	decay := float64(l.step) * (l.baseLR - l.minLR) / float64(l.decaySteps)
	l.lr = floatutils.Clip(l.baseLR-decay, l.minLR, l.baseLR)
	return l.solver.SetStepSize(l.lr)
}

// LR returns the current learning rate of the schedule
func (l *LinearSchedule) LR() float64 {
	return l.lr
}

// BaseLR returns the learning rate the wrapped solver was constructed
// with
func (l *LinearSchedule) BaseLR() float64 {
	return l.baseLR
}

// Steps returns the number of times Step has been called
func (l *LinearSchedule) Steps() int {
	return l.step
}
