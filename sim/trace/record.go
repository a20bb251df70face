// Package trace provides decision-trace recording for allocation analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// AssignmentRecord captures a single allocator decision.
type AssignmentRecord struct {
	Epoch      int     `yaml:"epoch"`
	Clock      float64 `yaml:"clock"`
	RobotID    int     `yaml:"robot_id"`
	TaskID     int     `yaml:"task_id"`
	Distance   float64 `yaml:"distance"`
	TravelTime float64 `yaml:"travel_time"`
	Candidates int     `yaml:"candidates"` // eligible tasks at decision time
}

// CompletionRecord captures a robot arriving at and completing a task.
type CompletionRecord struct {
	Epoch   int     `yaml:"epoch"`
	Clock   float64 `yaml:"clock"`
	RobotID int     `yaml:"robot_id"`
	TaskID  int     `yaml:"task_id"`
}

// ResetRecord marks the end of an epoch.
type ResetRecord struct {
	Epoch          int     `yaml:"epoch"` // epoch that ended
	Clock          float64 `yaml:"clock"` // clock value when the reset arrived
	CompletedTasks int     `yaml:"completed_tasks"`
}
