package sim

import (
	"github.com/sirupsen/logrus"
)

// EventType names an event variant.
type EventType string

const (
	// EventTypeMoveRobot relocates a robot and optionally completes a task on arrival.
	EventTypeMoveRobot EventType = "MoveRobot"
)

// EventTypePriority orders event types that share a timestamp (lower first).
// Every EventType must have an entry; scheduling an unregistered type panics.
var EventTypePriority = map[EventType]int{
	EventTypeMoveRobot: 0,
}

// Event defines the interface for all simulation events.
// Each event has a Timestamp (simulation seconds) at which it becomes due and an
// Execute method that applies its effect to the simulator's registry.
// Events are immutable once scheduled and executed at most once.
type Event interface {
	Timestamp() float64
	Type() EventType
	Execute(*Simulator)
}

// MoveRobotEvent moves a robot to Target. If TaskID is set, that task is
// marked completed when the robot arrives.
type MoveRobotEvent struct {
	time    float64
	RobotID int
	Target  Vec3
	TaskID  *int
}

// NewMoveRobotEvent creates a MoveRobotEvent due at the given time.
// A nil taskID describes a plain relocation.
func NewMoveRobotEvent(time float64, robotID int, target Vec3, taskID *int) *MoveRobotEvent {
	return &MoveRobotEvent{
		time:    time,
		RobotID: robotID,
		Target:  target,
		TaskID:  taskID,
	}
}

// Timestamp returns the scheduled time of the MoveRobotEvent.
func (e *MoveRobotEvent) Timestamp() float64 { return e.time }

// Type returns EventTypeMoveRobot.
func (e *MoveRobotEvent) Type() EventType { return EventTypeMoveRobot }

// Execute relocates the robot, records its path, frees it, and completes the carried task.
func (e *MoveRobotEvent) Execute(sim *Simulator) {
	robot, ok := sim.registry.Robot(e.RobotID)
	if !ok {
		sim.danglingReference("robot", e.RobotID, e)
		return
	}
	logrus.Debugf("[t=%.4f] MoveRobot: robot %d -> (%.3f, %.3f, %.3f)", e.time, e.RobotID, e.Target.X, e.Target.Y, e.Target.Z)

	from := robot.Position
	if n := len(robot.Path); n == 0 || robot.Path[n-1] != from {
		robot.Path = append(robot.Path, from)
	}
	robot.Path = append(robot.Path, e.Target)
	robot.Position = e.Target
	robot.TaskID = nil
	sim.Metrics.recordMove(e.RobotID, from.Distance(e.Target))

	if e.TaskID == nil {
		return
	}
	task, ok := sim.registry.Task(*e.TaskID)
	if !ok {
		sim.danglingReference("task", *e.TaskID, e)
		return
	}
	task.Completed = true
	task.AssignedTo = nil
	sim.Metrics.recordCompletion(e.RobotID, e.time)
	sim.recordCompletion(e.RobotID, task.ID, e.time)
}
