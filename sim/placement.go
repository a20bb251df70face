package sim

import "math"

// Offsets added to a task id before sampling each horizontal axis,
// so that X and Z are not drawn from the same point of the sequence.
const (
	taskSeedOffsetX = 10.0
	taskSeedOffsetZ = 42.0

	// TaskHeight is the Y coordinate every derived task sits at.
	TaskHeight = 0.25
	// taskSpread is the side length of the square tasks are scattered over, centered on the origin.
	taskSpread = 14.0
)

// Placement maps a seed to a scattered pseudo-random value in [0, 1).
// It is pure: the same seed always yields the same value.
func Placement(seed float64) float64 {
	x := math.Sin(seed*12.9898) * 43758.5453
	f := x - math.Floor(x)
	// A tiny negative x rounds x - Floor(x) up to exactly 1.
	if f >= 1 {
		return 0
	}
	return f
}

// TaskPosition returns the deterministic position of task id.
func TaskPosition(id int) Vec3 {
	return Vec3{
		X: Placement(float64(id)+taskSeedOffsetX)*taskSpread - taskSpread/2,
		Y: TaskHeight,
		Z: Placement(float64(id)+taskSeedOffsetZ)*taskSpread - taskSpread/2,
	}
}

// RobotStart returns the deterministic spawn position of robot id.
// Robots are lined up along the X axis, two units apart.
func RobotStart(id int) Vec3 {
	return Vec3{X: float64(id)*2 - 4, Y: DefaultRobotHeight, Z: 0}
}

// Layout supplies the initial positions of robots and tasks.
// Implementations must be pure functions of id so that Reset is idempotent.
type Layout interface {
	RobotStart(id int) Vec3
	TaskPosition(id int) Vec3
}

// DefaultLayout derives every position from RobotStart and TaskPosition.
type DefaultLayout struct{}

// RobotStart returns the derived spawn position of robot id.
func (DefaultLayout) RobotStart(id int) Vec3 { return RobotStart(id) }

// TaskPosition returns the derived position of task id.
func (DefaultLayout) TaskPosition(id int) Vec3 { return TaskPosition(id) }

// FixedLayout places entities at explicit coordinates.
// Ids past the end of either list fall back to the derived defaults.
type FixedLayout struct {
	Robots []Vec3
	Tasks  []Vec3
}

// RobotStart returns the listed position of robot id, or the derived one.
func (l FixedLayout) RobotStart(id int) Vec3 {
	if id >= 0 && id < len(l.Robots) {
		return l.Robots[id]
	}
	return RobotStart(id)
}

// TaskPosition returns the listed position of task id, or the derived one.
func (l FixedLayout) TaskPosition(id int) Vec3 {
	if id >= 0 && id < len(l.Tasks) {
		return l.Tasks[id]
	}
	return TaskPosition(id)
}
