// sim/simulator.go
package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/fleet-sim/fleet-sim/sim/trace"
)

// Simulator is the core object that holds simulation time, entity state, and the event loop.
//
// It is single-threaded: callers that share a Simulator between goroutines must
// serialize Advance, Reset and every read accessor themselves.
type Simulator struct {
	clock float64
	// epoch counts resets; 0 until the first Reset.
	epoch    int
	queue    *EventQueue
	registry *Registry
	config   Config
	layout   Layout

	Metrics *Metrics
	// Trace is nil unless Config.TraceLevel is "decisions". It survives Reset.
	Trace *trace.SimulationTrace
}

// NewSimulator validates cfg and spawns robots and tasks at their layout positions.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulator config: %w", err)
	}
	layout := cfg.Layout
	if layout == nil {
		layout = DefaultLayout{}
	}
	s := &Simulator{
		queue:    NewEventQueue(),
		registry: NewRegistry(cfg.NumRobots, cfg.NumTasks, layout),
		config:   cfg,
		layout:   layout,
		Metrics:  NewMetrics(),
	}
	if cfg.TraceLevel == trace.TraceLevelDecisions {
		s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: cfg.TraceLevel})
	}
	return s, nil
}

// Schedule pushes an event into the simulator's EventQueue.
func (sim *Simulator) Schedule(ev Event) {
	sim.queue.Schedule(ev)
}

// Advance moves the clock forward by delta seconds, executes every event that
// became due, then assigns idle robots. It is the once-per-frame entry point.
//
// With MaxStep set, delta is cut into sub-ticks on the grid clock+k*MaxStep.
// Sub-ticks that would neither drain an event nor assign a robot are skipped,
// so the work done is bounded by the number of events, not by delta/MaxStep.
// The last sub-tick always lands exactly on clock+delta.
func (sim *Simulator) Advance(delta float64) error {
	if math.IsNaN(delta) || math.IsInf(delta, 0) || delta < 0 {
		return fmt.Errorf("invalid advance delta %v: must be a finite value >= 0", delta)
	}
	step := sim.config.MaxStep
	if step <= 0 || delta <= step {
		sim.tickTo(sim.clock + delta)
		return nil
	}

	start, end := sim.clock, sim.clock+delta
	last := math.Ceil(delta / step)
	for k := 1.0; ; {
		at := start + k*step
		if k >= last || at >= end {
			sim.tickTo(end)
			return nil
		}
		sim.tickTo(at)

		// After a tick every idle robot that could be assigned has been, so
		// the next sub-tick with work is the one where the soonest event is due.
		next := k + 1
		if ev := sim.queue.Peek(); ev == nil {
			next = last
		} else if due := math.Ceil((ev.Timestamp() - start) / step); due > next {
			next = due
		}
		if next <= k {
			// k+1 is no longer representable.
			next = last
		}
		k = next
	}
}

// tickTo runs one clock → drain → allocate sequence ending at time at.
func (sim *Simulator) tickTo(at float64) {
	sim.clock = at
	executed := sim.executeDue()
	allocations := sim.allocate()
	if executed > 0 || len(allocations) > 0 {
		logrus.Debugf("[t=%.4f] tick: executed %d events, made %d assignments, %d pending",
			sim.clock, executed, len(allocations), sim.queue.Len())
	}
}

// RunUntil advances in fixed dt steps until the clock reaches horizon or every
// task is completed, whichever comes first.
func (sim *Simulator) RunUntil(horizon, dt float64) error {
	if math.IsNaN(dt) || dt <= 0 {
		return fmt.Errorf("invalid tick size %v: must be > 0", dt)
	}
	for sim.clock < horizon && !sim.AllCompleted() {
		if err := sim.Advance(math.Min(dt, horizon-sim.clock)); err != nil {
			return err
		}
	}
	logrus.Infof("[t=%.4f] run ended: %d/%d tasks completed, %d events pending",
		sim.clock, sim.registry.CompletedTasks(), sim.registry.NumTasks(), sim.queue.Len())
	return nil
}

// Reset starts a new epoch: clock back to 0, queue emptied, and every robot and
// task restored to its spawn state under the same id. Nothing is scheduled; the
// next tick's allocation pass reassigns the idle robots.
func (sim *Simulator) Reset() {
	if sim.Trace != nil {
		sim.Trace.RecordReset(trace.ResetRecord{
			Epoch:          sim.epoch,
			Clock:          sim.clock,
			CompletedTasks: sim.registry.CompletedTasks(),
		})
	}
	logrus.Infof("[t=%.4f] reset: discarding %d pending events, starting epoch %d", sim.clock, sim.queue.Len(), sim.epoch+1)

	sim.clock = 0
	sim.epoch++
	sim.queue.Clear()
	sim.registry.reset(sim.layout)
	sim.Metrics = NewMetrics()
}

// Now returns the current simulation time in seconds.
func (sim *Simulator) Now() float64 { return sim.clock }

// Epoch returns the number of resets applied so far.
func (sim *Simulator) Epoch() int { return sim.epoch }

// Pending returns the number of scheduled events not yet executed.
func (sim *Simulator) Pending() int { return sim.queue.Len() }

// Config returns the configuration the simulator was built with.
func (sim *Simulator) Config() Config { return sim.config }

// AllCompleted reports whether every task in the current epoch is completed.
func (sim *Simulator) AllCompleted() bool {
	return sim.registry.CompletedTasks() == sim.registry.NumTasks()
}

// recordCompletion appends a completion to the decision trace, if enabled.
func (sim *Simulator) recordCompletion(robotID, taskID int, at float64) {
	if sim.Trace == nil {
		return
	}
	sim.Trace.RecordCompletion(trace.CompletionRecord{
		Epoch:   sim.epoch,
		Clock:   at,
		RobotID: robotID,
		TaskID:  taskID,
	})
}
