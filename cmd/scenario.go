package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/fleet-sim/fleet-sim/sim"
	"github.com/fleet-sim/fleet-sim/sim/trace"
)

// Scenario represents the full scenario YAML structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
// Nil pointer fields mean "not set in YAML"; they do not override defaults.
type Scenario struct {
	Robots           *int         `yaml:"robots"`
	Tasks            *int         `yaml:"tasks"`
	Speed            *float64     `yaml:"speed"`
	MinTravelTime    *float64     `yaml:"min_travel_time"`
	RobotHeight      *float64     `yaml:"robot_height"`
	MaxStep          *float64     `yaml:"max_step"`
	StrictReferences *bool        `yaml:"strict_references"`
	Trace            string       `yaml:"trace"`
	Run              RunSettings  `yaml:"run"`
	Layout           LayoutConfig `yaml:"layout"`
}

// RunSettings controls the headless driver loop.
type RunSettings struct {
	Dt      *float64 `yaml:"dt"`      // seconds per tick
	Horizon *float64 `yaml:"horizon"` // stop once the clock reaches this
}

// LayoutConfig lists explicit spawn coordinates. Entities beyond either list
// use the derived default positions.
type LayoutConfig struct {
	Robots []sim.Vec3 `yaml:"robots"`
	Tasks  []sim.Vec3 `yaml:"tasks"`
}

// LoadScenario parses a scenario file with strict field checking (typos must cause errors).
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if sc.Trace != "" && !trace.IsValidTraceLevel(sc.Trace) {
		return nil, fmt.Errorf("scenario %s: unknown trace level %q", path, sc.Trace)
	}
	return &sc, nil
}

// Apply copies every field set in the scenario onto cfg.
// A layout list with no matching count sets the count to the list length.
func (sc *Scenario) Apply(cfg *sim.Config) {
	if sc.Robots != nil {
		cfg.NumRobots = *sc.Robots
	} else if len(sc.Layout.Robots) > 0 {
		cfg.NumRobots = len(sc.Layout.Robots)
	}
	if sc.Tasks != nil {
		cfg.NumTasks = *sc.Tasks
	} else if len(sc.Layout.Tasks) > 0 {
		cfg.NumTasks = len(sc.Layout.Tasks)
	}
	if sc.Speed != nil {
		cfg.Speed = *sc.Speed
	}
	if sc.MinTravelTime != nil {
		cfg.MinTravelTime = *sc.MinTravelTime
	}
	if sc.RobotHeight != nil {
		cfg.RobotHeight = *sc.RobotHeight
	}
	if sc.MaxStep != nil {
		cfg.MaxStep = *sc.MaxStep
	}
	if sc.StrictReferences != nil {
		cfg.StrictReferences = *sc.StrictReferences
	}
	if sc.Trace != "" {
		cfg.TraceLevel = trace.TraceLevel(sc.Trace)
	}
	if len(sc.Layout.Robots) > 0 || len(sc.Layout.Tasks) > 0 {
		cfg.Layout = sim.FixedLayout{Robots: sc.Layout.Robots, Tasks: sc.Layout.Tasks}
	}
}
