package sim

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/fleet-sim/fleet-sim/sim/trace"
)

// Allocation describes one robot-to-task assignment made by the allocator.
type Allocation struct {
	RobotID     int
	TaskID      int
	Distance    float64
	TravelTime  float64
	ArrivalTime float64
	Candidates  int // eligible tasks the robot chose from
}

// TravelTime returns distance/speed, never less than floor.
func TravelTime(distance, speed, floor float64) float64 {
	return math.Max(distance/speed, floor)
}

// nearestEligibleTask scans tasks in id order and returns the eligible one
// closest to from. On an exact distance tie the lower id wins.
func (reg *Registry) nearestEligibleTask(from Vec3) (best *Task, bestDistSq float64, candidates int) {
	bestDistSq = math.MaxFloat64
	for i := range reg.tasks {
		task := &reg.tasks[i]
		if !task.Eligible() {
			continue
		}
		candidates++
		if d := from.DistanceSquared(task.Position); d < bestDistSq {
			best, bestDistSq = task, d
		}
	}
	return best, bestDistSq, candidates
}

// allocate gives every idle robot its nearest free task and schedules the arrival.
func (sim *Simulator) allocate() []Allocation {
	var allocations []Allocation
	for i := range sim.registry.robots {
		robot := &sim.registry.robots[i]
		if !robot.Idle() {
			continue
		}
		alloc, ok := sim.assign(robot)
		if !ok {
			continue
		}
		allocations = append(allocations, alloc)
	}
	return allocations
}

// assign commits robot to its nearest eligible task, if there is one.
func (sim *Simulator) assign(robot *Robot) (Allocation, bool) {
	task, distSq, candidates := sim.registry.nearestEligibleTask(robot.Position)
	if task == nil {
		return Allocation{}, false
	}

	robot.TaskID = intPtr(task.ID)
	task.AssignedTo = intPtr(robot.ID)

	distance := math.Sqrt(distSq)
	travel := TravelTime(distance, sim.config.Speed, sim.config.MinTravelTime)
	alloc := Allocation{
		RobotID:     robot.ID,
		TaskID:      task.ID,
		Distance:    distance,
		TravelTime:  travel,
		ArrivalTime: sim.clock + travel,
		Candidates:  candidates,
	}
	sim.Schedule(NewMoveRobotEvent(alloc.ArrivalTime, robot.ID, task.Position.WithY(sim.config.RobotHeight), intPtr(task.ID)))

	logrus.Debugf("[t=%.4f] Allocate: robot %d -> task %d (dist=%.3f, travel=%.3f, candidates=%d)",
		sim.clock, robot.ID, task.ID, distance, travel, candidates)
	sim.Metrics.recordAssignment(travel)
	if sim.Trace != nil {
		sim.Trace.RecordAssignment(trace.AssignmentRecord{
			Epoch:      sim.epoch,
			Clock:      sim.clock,
			RobotID:    robot.ID,
			TaskID:     task.ID,
			Distance:   distance,
			TravelTime: travel,
			Candidates: candidates,
		})
	}
	return alloc, true
}
