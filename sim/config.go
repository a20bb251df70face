package sim

import (
	"fmt"
	"math"

	"github.com/fleet-sim/fleet-sim/sim/trace"
)

const (
	DefaultNumRobots = 5
	DefaultNumTasks  = 12
	// DefaultSpeed is the robot travel speed in world units per second.
	DefaultSpeed = 4.0
	// DefaultMinTravelTime is the floor on any scheduled trip, in seconds.
	DefaultMinTravelTime = 0.5
	// DefaultRobotHeight is the Y coordinate robots travel at.
	DefaultRobotHeight = 0.5
)

// Config groups the construction-time parameters of a Simulator.
type Config struct {
	NumRobots     int     // robots spawned with ids 0..NumRobots-1
	NumTasks      int     // tasks spawned with ids 0..NumTasks-1
	Speed         float64 // world units per second (must be > 0)
	MinTravelTime float64 // lower bound on travel time in seconds (>= 0)
	RobotHeight   float64 // Y coordinate of every MoveRobot target
	// MaxStep splits a single Advance delta into sub-ticks no longer than this
	// many seconds. 0 disables splitting: one Advance is exactly one tick.
	MaxStep float64
	// StrictReferences panics when an event names a robot or task that does not
	// exist, instead of silently dropping the event.
	StrictReferences bool
	// Layout supplies spawn positions; nil means DefaultLayout.
	Layout     Layout
	TraceLevel trace.TraceLevel
}

// DefaultConfig returns the 5-robot, 12-task configuration.
func DefaultConfig() Config {
	return Config{
		NumRobots:     DefaultNumRobots,
		NumTasks:      DefaultNumTasks,
		Speed:         DefaultSpeed,
		MinTravelTime: DefaultMinTravelTime,
		RobotHeight:   DefaultRobotHeight,
		TraceLevel:    trace.TraceLevelNone,
	}
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	if c.NumRobots < 0 {
		return fmt.Errorf("invalid robot count %d: must be >= 0", c.NumRobots)
	}
	if c.NumTasks < 0 {
		return fmt.Errorf("invalid task count %d: must be >= 0", c.NumTasks)
	}
	if !isFinite(c.Speed) || c.Speed <= 0 {
		return fmt.Errorf("invalid speed %v: must be a finite value > 0", c.Speed)
	}
	if !isFinite(c.MinTravelTime) || c.MinTravelTime < 0 {
		return fmt.Errorf("invalid minimum travel time %v: must be a finite value >= 0", c.MinTravelTime)
	}
	if !isFinite(c.RobotHeight) {
		return fmt.Errorf("invalid robot height %v", c.RobotHeight)
	}
	if !isFinite(c.MaxStep) || c.MaxStep < 0 {
		return fmt.Errorf("invalid max step %v: must be a finite value >= 0", c.MaxStep)
	}
	if !trace.IsValidTraceLevel(string(c.TraceLevel)) {
		return fmt.Errorf("unknown trace level %q", c.TraceLevel)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
