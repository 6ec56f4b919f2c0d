package kinematics

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"

	"go.viam.com/ikchain/spatialmath"
)

// Model couples a Chain with its current State. The state always has exactly one entry per joint,
// each sized to that joint's DoF; joints can only be added together with their zeroed state.
// A Model is not safe for concurrent mutation. Use Clone to hand a solver its own copy.
type Model struct {
	name  string
	chain *Chain
	state State
}

// NewModel returns an empty model rooted at the world origin.
func NewModel(name string) *Model {
	return NewModelWithBase(name, nil)
}

// NewModelWithBase returns an empty model rooted at base.
func NewModelWithBase(name string, base spatialmath.Pose) *Model {
	return &Model{name: name, chain: NewChain(base), state: State{}}
}

// Name returns the name of the model.
func (m *Model) Name() string {
	return m.name
}

// Chain returns the model's chain.
func (m *Model) Chain() *Chain {
	return m.chain
}

// AddJoint appends j to the chain along with a zero vector of j.DoF() values.
func (m *Model) AddJoint(j Joint) error {
	if err := j.validate(); err != nil {
		return err
	}
	m.chain = m.chain.withJoint(j)
	m.state = append(m.state, make([]float64, j.DoF()))
	return nil
}

// DoF returns the total number of state scalars.
func (m *Model) DoF() int {
	return m.state.DoF()
}

// Reset zeroes every state scalar, keeping the shape.
func (m *Model) Reset() {
	for _, v := range m.state {
		for i := range v {
			v[i] = 0
		}
	}
}

// CopyState returns a deep snapshot of the current state.
func (m *Model) CopyState() State {
	return m.state.Copy()
}

// SetState replaces the state with a copy of s after checking its shape.
func (m *Model) SetState(s State) error {
	if err := s.checkShape(m.chain.joints); err != nil {
		return err
	}
	m.state = s.Copy()
	return nil
}

// SetFlatState sets the state from values in flattened chain order.
func (m *Model) SetFlatState(flat []float64) error {
	s, err := StateFromFlat(m.chain.joints, flat)
	if err != nil {
		return err
	}
	m.state = s
	return nil
}

// EndEffector returns the pose at the end of the chain for the current state.
func (m *Model) EndEffector() (spatialmath.Pose, error) {
	return m.chain.Forward(m.state)
}

// EndEffectorPosition returns the position of the end of the chain for the current state.
func (m *Model) EndEffectorPosition() (r3.Vector, error) {
	pose, err := m.EndEffector()
	if err != nil {
		return r3.Vector{}, err
	}
	return pose.Point(), nil
}

// JointPoses returns the world pose at the input of every joint plus the end effector, for the
// current state.
func (m *Model) JointPoses() ([]spatialmath.Pose, error) {
	return m.chain.JointPoses(m.state)
}

// Clone returns an independent model with the same chain and a copy of the state.
func (m *Model) Clone() *Model {
	return &Model{name: m.name, chain: m.chain, state: m.state.Copy()}
}

// RandomState returns a state with every scalar uniform in [-pi, pi).
func (m *Model) RandomState(randSeed *rand.Rand) State {
	out := m.chain.ZeroState()
	for _, v := range out {
		for i := range v {
			v[i] = (2*randSeed.Float64() - 1) * math.Pi
		}
	}
	return out
}
