package sim

// Robot is a mobile agent that serves tasks one at a time.
type Robot struct {
	ID       int
	Position Vec3
	// TaskID is the task the robot is travelling to; nil when idle.
	TaskID *int
	// Path is the ordered list of visited positions, used only for drawing.
	Path []Vec3
}

// Idle reports whether the robot has no assignment.
func (r *Robot) Idle() bool {
	return r.TaskID == nil
}

// Task is a fixed location a robot must visit once per epoch.
type Task struct {
	ID         int
	Position   Vec3
	AssignedTo *int // robot id, nil when unassigned
	Completed  bool
}

// Eligible reports whether the task may be handed to an idle robot.
func (t *Task) Eligible() bool {
	return !t.Completed && t.AssignedTo == nil
}

// Registry owns every robot and task record, indexed by stable id.
// Ids are dense (0..n-1) and never reused; Reset rewrites records in place.
type Registry struct {
	robots []Robot
	tasks  []Task
}

// NewRegistry spawns numRobots robots and numTasks tasks at their layout positions.
func NewRegistry(numRobots, numTasks int, layout Layout) *Registry {
	reg := &Registry{
		robots: make([]Robot, numRobots),
		tasks:  make([]Task, numTasks),
	}
	reg.reset(layout)
	return reg
}

// reset restores every record to its spawn state.
func (reg *Registry) reset(layout Layout) {
	for i := range reg.robots {
		start := layout.RobotStart(i)
		reg.robots[i] = Robot{
			ID:       i,
			Position: start,
			Path:     []Vec3{start},
		}
	}
	for i := range reg.tasks {
		reg.tasks[i] = Task{
			ID:       i,
			Position: layout.TaskPosition(i),
		}
	}
}

// Robot returns the robot with the given id.
func (reg *Registry) Robot(id int) (*Robot, bool) {
	if id < 0 || id >= len(reg.robots) {
		return nil, false
	}
	return &reg.robots[id], true
}

// Task returns the task with the given id.
func (reg *Registry) Task(id int) (*Task, bool) {
	if id < 0 || id >= len(reg.tasks) {
		return nil, false
	}
	return &reg.tasks[id], true
}

// NumRobots returns the robot count.
func (reg *Registry) NumRobots() int { return len(reg.robots) }

// NumTasks returns the task count.
func (reg *Registry) NumTasks() int { return len(reg.tasks) }

// CompletedTasks counts tasks marked completed in the current epoch.
func (reg *Registry) CompletedTasks() int {
	n := 0
	for i := range reg.tasks {
		if reg.tasks[i].Completed {
			n++
		}
	}
	return n
}

func intPtr(v int) *int {
	return &v
}
