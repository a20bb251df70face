package sim

// RobotView is a read-only copy of a robot's state.
type RobotView struct {
	ID       int    `json:"id"`
	Position Vec3   `json:"position"`
	TaskID   *int   `json:"task_id"`
	Path     []Vec3 `json:"path"`
}

// TaskView is a read-only copy of a task's state.
type TaskView struct {
	ID         int  `json:"id"`
	Position   Vec3 `json:"position"`
	AssignedTo *int `json:"assigned_to"`
	Completed  bool `json:"completed"`
}

// Snapshot is everything a renderer needs to draw one frame.
// It shares no memory with the simulator.
type Snapshot struct {
	Epoch   int         `json:"epoch"`
	Clock   float64     `json:"clock"`
	Pending int         `json:"pending"`
	Robots  []RobotView `json:"robots"`
	Tasks   []TaskView  `json:"tasks"`
}

// Robots returns copies of every robot, ordered by id.
func (sim *Simulator) Robots() []RobotView {
	out := make([]RobotView, len(sim.registry.robots))
	for i, r := range sim.registry.robots {
		out[i] = RobotView{
			ID:       r.ID,
			Position: r.Position,
			TaskID:   copyIntPtr(r.TaskID),
			Path:     append([]Vec3(nil), r.Path...),
		}
	}
	return out
}

// Tasks returns copies of every task, ordered by id.
func (sim *Simulator) Tasks() []TaskView {
	out := make([]TaskView, len(sim.registry.tasks))
	for i, t := range sim.registry.tasks {
		out[i] = TaskView{
			ID:         t.ID,
			Position:   t.Position,
			AssignedTo: copyIntPtr(t.AssignedTo),
			Completed:  t.Completed,
		}
	}
	return out
}

// Snapshot captures the current epoch, clock and entity state.
func (sim *Simulator) Snapshot() Snapshot {
	return Snapshot{
		Epoch:   sim.epoch,
		Clock:   sim.clock,
		Pending: sim.queue.Len(),
		Robots:  sim.Robots(),
		Tasks:   sim.Tasks(),
	}
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	return intPtr(*p)
}
