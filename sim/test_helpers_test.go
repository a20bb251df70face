package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestSimulator builds a simulator from cfg, failing the test on error.
func newTestSimulator(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg)
	require.NoError(t, err)
	return s
}

// newFixedSimulator places robots and tasks at explicit coordinates.
func newFixedSimulator(t *testing.T, robots, tasks []Vec3) *Simulator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.NumRobots = len(robots)
	cfg.NumTasks = len(tasks)
	cfg.Layout = FixedLayout{Robots: robots, Tasks: tasks}
	return newTestSimulator(t, cfg)
}

// requireAllocationInvariants checks that assignments are one-to-one, mirrored on
// both sides, never point at completed tasks, and that each busy robot has exactly
// one arrival event in flight.
func requireAllocationInvariants(t *testing.T, s *Simulator) {
	t.Helper()
	robots, tasks := s.Robots(), s.Tasks()

	taskOf := make(map[int]int)
	for _, task := range tasks {
		if task.AssignedTo == nil {
			continue
		}
		r := *task.AssignedTo
		prev, dup := taskOf[r]
		require.Falsef(t, dup, "robot %d assigned to tasks %d and %d", r, prev, task.ID)
		require.Falsef(t, task.Completed, "completed task %d still assigned", task.ID)
		taskOf[r] = task.ID
	}

	busy := 0
	for _, robot := range robots {
		if robot.TaskID == nil {
			_, has := taskOf[robot.ID]
			require.Falsef(t, has, "idle robot %d is referenced by task %d", robot.ID, taskOf[robot.ID])
			continue
		}
		busy++
		task := tasks[*robot.TaskID]
		require.NotNilf(t, task.AssignedTo, "robot %d holds task %d which has no owner", robot.ID, task.ID)
		require.Equal(t, robot.ID, *task.AssignedTo)
	}
	require.Equal(t, busy, s.Pending(), "one pending arrival per busy robot")
}
