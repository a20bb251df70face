// Package sim provides the discrete-event core of the fleet simulator: a logical
// clock, a time-ordered event queue, robot and task state, and the greedy
// nearest-task allocator that drives them.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - entity.go: Robot and Task records and the id-indexed Registry
//   - event.go: Event types that drive the simulation (MoveRobot)
//   - simulator.go: Advance (clock → drain → allocate) and Reset
//
// # Tick contract
//
// The host calls Advance(delta) once per frame with the elapsed time in seconds.
// The core never reads the wall clock, so a fixed sequence of deltas from a fresh
// or freshly reset simulator always produces the same trajectory. Renderers read
// state through Snapshot, Robots and Tasks, which return copies.
//
// # Extension points
//
// New event kinds implement Event and register a priority in EventTypePriority.
// Spawn positions come from a Layout (DefaultLayout or FixedLayout).
package sim
