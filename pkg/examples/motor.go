package examples

import (
	"github.com/permaconf/permaconf-go/pkg/group"
)

// Motor holds the control loop parameters of a brushless motor driver.
// Gains and limits are persisted so a drive comes back tuned after a
// power cycle.
type Motor struct {
	PolePairs   uint32
	KP          float64
	KI          float64
	KD          float64
	MaxCurrent  float64 // A
	MaxVelocity float64 // rev/s
	Reversed    bool

	def *group.Def
}

// NewMotor creates a motor settings group with conservative defaults.
func NewMotor() *Motor {
	m := &Motor{}
	m.def = group.NewDef("motor",
		group.Uint32("pole_pairs", &m.PolePairs, 7),
		group.Float64("kp", &m.KP, 0.5),
		group.Float64("ki", &m.KI, 0.0),
		group.Float64("kd", &m.KD, 0.0),
		group.Float64("max_current", &m.MaxCurrent, 5.0),
		group.Float64("max_velocity", &m.MaxVelocity, 10.0),
		group.Bool("reversed", &m.Reversed, false),
	)
	m.def.SetDefault()
	return m
}

// Handler returns the group handler to register under the "motor" name.
func (m *Motor) Handler() group.Handler {
	return m.def
}
