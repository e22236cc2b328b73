package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSolvers returns one solver of each type at the argument
// learning rate
func newTestSolvers(t *testing.T, lr float64) map[Type]*Solver {
	adam, err := NewDefaultAdam(lr, 1)
	require.NoError(t, err)
	rmsprop, err := NewDefaultRMSProp(lr, 1)
	require.NoError(t, err)
	vanilla, err := NewVanilla(lr, 1, -1.0)
	require.NoError(t, err)

	return map[Type]*Solver{Adam: adam, RMSProp: rmsprop, Vanilla: vanilla}
}

// TestLinearScheduleDecay ensures the learning rate decays linearly
// from the solver's base rate to the floor across every solver type
func TestLinearScheduleDecay(t *testing.T) {
	const baseLR, minLR = 1.0, 0.1
	const decaySteps = 10

	for solverType, s := range newTestSolvers(t, baseLR) {
		schedule, err := NewLinearSchedule(s, decaySteps, minLR)
		require.NoError(t, err, "solver type %v", solverType)

		assert.Equal(t, baseLR, schedule.LR())
		assert.Equal(t, baseLR, schedule.BaseLR())
		assert.Equal(t, baseLR, s.StepSize())

		prev := schedule.LR()
		for i := 1; i <= decaySteps; i++ {
			require.NoError(t, schedule.Step())

			expected := baseLR - float64(i)*(baseLR-minLR)/decaySteps
			assert.InDelta(t, expected, schedule.LR(), 1e-12)
			assert.InDelta(t, expected, s.StepSize(), 1e-12)
			assert.LessOrEqual(t, schedule.LR(), prev)
			prev = schedule.LR()
		}
		assert.InDelta(t, minLR, schedule.LR(), 1e-12)
	}
}

// TestLinearSchedulePinsAtFloor ensures stepping past the decay
// horizon is legal and leaves the learning rate at the floor
func TestLinearSchedulePinsAtFloor(t *testing.T) {
	const baseLR, minLR = 0.5, 0.05
	const decaySteps = 10

	s, err := NewDefaultAdam(baseLR, 1)
	require.NoError(t, err)
	schedule, err := NewLinearSchedule(s, decaySteps, minLR)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		require.NoError(t, schedule.Step())
	}

	assert.Equal(t, 200, schedule.Steps())
	assert.InDelta(t, minLR, schedule.LR(), 1e-12)
	assert.InDelta(t, minLR, s.StepSize(), 1e-12)
}

// TestNewLinearScheduleInvalidArgs ensures illegal schedule
// hyperparameters are construction errors
func TestNewLinearScheduleInvalidArgs(t *testing.T) {
	s, err := NewDefaultAdam(0.1, 1)
	require.NoError(t, err)

	tests := []struct {
		name       string
		solver     *Solver
		decaySteps int
		minLR      float64
	}{
		{"no solver", nil, 10, 0.01},
		{"non-positive decay steps", s, 0, 0.01},
		{"non-positive floor", s, 10, 0.0},
		{"floor above base rate", s, 10, 0.2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			schedule, err := NewLinearSchedule(test.solver, test.decaySteps,
				test.minLR)
			assert.Error(t, err)
			assert.Nil(t, schedule)
		})
	}
}

// TestSetStepSize ensures the learning rate of a solver can be changed
// after construction and rejects non-positive rates
func TestSetStepSize(t *testing.T) {
	for solverType, s := range newTestSolvers(t, 0.1) {
		require.NoError(t, s.SetStepSize(0.01), "solver type %v", solverType)
		assert.Equal(t, 0.01, s.StepSize())
		assert.NotNil(t, s.Solver)

		assert.Error(t, s.SetStepSize(0.0))
		assert.Error(t, s.SetStepSize(-0.1))
		assert.Equal(t, 0.01, s.StepSize())
	}
}
