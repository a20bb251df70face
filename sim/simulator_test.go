package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleet-sim/fleet-sim/sim/internal/testutil"
	"github.com/fleet-sim/fleet-sim/sim/trace"
)

var frameDeltas = []float64{0.016, 0.033, 0.1, 0.016, 0.05}

func TestNewSimulator_InvalidConfig_ReturnsError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Speed = 0
	_, err := NewSimulator(cfg)
	assert.ErrorContains(t, err, "invalid speed")
}

func TestNewSimulator_InitialState(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())

	assert.Equal(t, 0.0, s.Now())
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 0, s.Epoch())
	assert.Nil(t, s.Trace, "trace is off by default")
	robots, tasks := s.Robots(), s.Tasks()
	require.Len(t, robots, DefaultNumRobots)
	require.Len(t, tasks, DefaultNumTasks)
	assert.Equal(t, Vec3{X: -4, Y: 0.5, Z: 0}, robots[0].Position)
	for _, r := range robots {
		assert.Equal(t, []Vec3{RobotStart(r.ID)}, r.Path)
		assert.Nil(t, r.TaskID)
	}
	for _, task := range tasks {
		assert.Equal(t, TaskPosition(task.ID), task.Position)
		assert.Nil(t, task.AssignedTo)
		assert.False(t, task.Completed)
	}
}

func TestAdvance_InvalidDelta_Rejected(t *testing.T) {
	for _, delta := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		s := newTestSimulator(t, DefaultConfig())
		assert.Error(t, s.Advance(delta), "delta %v", delta)
		assert.Equal(t, 0.0, s.Now())
		assert.Equal(t, 0, s.Pending())
	}
}

func TestAdvance_ZeroDelta_StillAllocates(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())
	require.NoError(t, s.Advance(0))
	assert.Equal(t, DefaultNumRobots, s.Pending())
}

// TestAdvance_Determinism tests that identical delta sequences yield identical trajectories
func TestAdvance_Determinism(t *testing.T) {
	a := newTestSimulator(t, DefaultConfig())
	b := newTestSimulator(t, DefaultConfig())

	for i := 0; i < 200; i++ {
		dt := frameDeltas[i%len(frameDeltas)]
		require.NoError(t, a.Advance(dt))
		require.NoError(t, b.Advance(dt))
		require.Equal(t, a.Snapshot(), b.Snapshot(), "diverged at tick %d", i)
	}
}

func TestAdvance_AllocationInvariantsHoldEveryTick(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())
	for i := 0; i < 300; i++ {
		require.NoError(t, s.Advance(frameDeltas[i%len(frameDeltas)]))
		requireAllocationInvariants(t, s)
	}
}

func TestAdvance_Progress_EveryTaskEventuallyCompleted(t *testing.T) {
	tests := []struct {
		robots, tasks int
	}{
		{1, 1}, {1, 6}, {3, 2}, {5, 12}, {2, 20},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.NumRobots, cfg.NumTasks = tt.robots, tt.tasks
		s := newTestSimulator(t, cfg)

		for i := 0; i < 10_000 && !s.AllCompleted(); i++ {
			require.NoError(t, s.Advance(0.05))
		}

		assert.True(t, s.AllCompleted(), "%d robots / %d tasks did not finish", tt.robots, tt.tasks)
		assert.Equal(t, tt.tasks, s.Metrics.CompletedTasks)
		// one more tick: nothing left to assign
		require.NoError(t, s.Advance(0.05))
		assert.Equal(t, 0, s.Pending())
	}
}

func TestAdvance_SingleLargeDelta_OnlySchedules(t *testing.T) {
	// GIVEN a fresh simulator without sub-stepping
	s := newTestSimulator(t, DefaultConfig())

	// WHEN one Advance(100) runs
	require.NoError(t, s.Advance(100))

	// THEN that one tick assigned every robot but nothing is due yet
	assert.Equal(t, 100.0, s.Now())
	assert.Equal(t, DefaultNumRobots, s.Pending())
	assert.Equal(t, 0, s.Metrics.CompletedTasks)
	for _, r := range s.Robots() {
		assert.NotNil(t, r.TaskID)
	}
}

func TestAdvance_MaxStep_LargeDeltaDrainsEverything(t *testing.T) {
	// GIVEN sub-stepping at 50ms and decision tracing
	cfg := DefaultConfig()
	cfg.MaxStep = 0.05
	cfg.TraceLevel = trace.TraceLevelDecisions
	s := newTestSimulator(t, cfg)

	// WHEN a single Advance(100) runs from a fresh state
	require.NoError(t, s.Advance(100))

	// THEN every task is completed
	assert.InDelta(t, 100.0, s.Now(), 1e-9)
	assert.True(t, s.AllCompleted())
	assert.Equal(t, 0, s.Pending())

	// AND each path starts at spawn and ends at the robot's last assigned task
	lastTask := make(map[int]int)
	for _, a := range s.Trace.Assignments {
		lastTask[a.RobotID] = a.TaskID
	}
	for _, r := range s.Robots() {
		require.NotEmpty(t, r.Path)
		assert.Equal(t, RobotStart(r.ID), r.Path[0])
		taskID, ok := lastTask[r.ID]
		require.True(t, ok, "robot %d never assigned", r.ID)
		assert.Equal(t, TaskPosition(taskID).WithY(DefaultRobotHeight), r.Path[len(r.Path)-1])
		assert.Equal(t, r.Position, r.Path[len(r.Path)-1])
	}
}

func TestAdvance_MaxStep_MatchesEqualFrames(t *testing.T) {
	// GIVEN one simulator sub-stepping at 0.1s and one advanced in 0.1s frames
	cfg := DefaultConfig()
	cfg.TraceLevel = trace.TraceLevelDecisions
	framed := newTestSimulator(t, cfg)
	cfg.MaxStep = 0.1
	stepped := newTestSimulator(t, cfg)

	// WHEN both cover five seconds
	for i := 0; i < 50; i++ {
		require.NoError(t, framed.Advance(0.1))
	}
	require.NoError(t, stepped.Advance(5))

	// THEN they made the same decisions at the same times
	require.Len(t, stepped.Trace.Assignments, len(framed.Trace.Assignments))
	for i, want := range framed.Trace.Assignments {
		got := stepped.Trace.Assignments[i]
		assert.Equal(t, want.RobotID, got.RobotID, "assignment %d", i)
		assert.Equal(t, want.TaskID, got.TaskID, "assignment %d", i)
		assert.InDelta(t, want.Clock, got.Clock, 1e-9, "assignment %d", i)
	}
	require.Len(t, stepped.Trace.Completions, len(framed.Trace.Completions))
	for i, want := range framed.Trace.Completions {
		assert.InDelta(t, want.Clock, stepped.Trace.Completions[i].Clock, 1e-9, "completion %d", i)
	}
	assert.Equal(t, 5.0, stepped.Now())
}

func TestAdvance_MaxStep_HugeDeltaReturns(t *testing.T) {
	// GIVEN a one-second sub-step and a delta of 1e17 seconds
	cfg := DefaultConfig()
	cfg.MaxStep = 1
	s := newTestSimulator(t, cfg)

	// WHEN Advance runs
	done := make(chan error, 1)
	go func() { done <- s.Advance(1e17) }()

	// THEN it returns promptly with every task done and the clock on the target
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Advance(1e17) with MaxStep=1 did not return")
	}
	assert.True(t, s.AllCompleted())
	assert.Equal(t, 1e17, s.Now())
	assert.Equal(t, 0, s.Pending())
}

func TestAdvance_MaxStep_AfterReset_AssignsOnFirstSubTick(t *testing.T) {
	// GIVEN a reset simulator, so the queue is empty and every robot idle
	cfg := DefaultConfig()
	cfg.MaxStep = 0.05
	cfg.TraceLevel = trace.TraceLevelDecisions
	s := newTestSimulator(t, cfg)
	s.Reset()

	// WHEN one large delta runs
	require.NoError(t, s.Advance(10))

	// THEN the first assignments happened on the first sub-tick, not at the end
	require.NotEmpty(t, s.Trace.Assignments)
	assert.InDelta(t, 0.05, s.Trace.Assignments[0].Clock, 1e-12)
	assert.True(t, s.AllCompleted())
}

func TestAdvance_GoldenTrajectory(t *testing.T) {
	golden := testutil.LoadGoldenTrajectory(t)

	cfg := DefaultConfig()
	cfg.NumRobots, cfg.NumTasks = golden.NumRobots, golden.NumTasks
	cfg.TraceLevel = trace.TraceLevelDecisions
	s := newTestSimulator(t, cfg)
	for i := 0; i < golden.Ticks; i++ {
		require.NoError(t, s.Advance(golden.Dt))
	}

	require.Len(t, s.Trace.Completions, len(golden.Completions))
	for i, want := range golden.Completions {
		got := s.Trace.Completions[i]
		assert.Equal(t, want.Robot, got.RobotID, "completion %d robot", i)
		assert.Equal(t, want.Task, got.TaskID, "completion %d task", i)
		testutil.AssertFloat64Equal(t, "completion clock", want.Clock, got.Clock, 1e-9)
	}
	testutil.AssertFloat64Equal(t, "total distance", golden.TotalDistance, s.Metrics.TotalDistance(), 1e-9)
	testutil.AssertFloat64Equal(t, "makespan", golden.Completions[len(golden.Completions)-1].Clock, s.Metrics.Makespan, 1e-9)
}

func TestRunUntil_StopsWhenAllCompleted(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())
	require.NoError(t, s.RunUntil(60, 0.1))

	assert.True(t, s.AllCompleted())
	assert.Less(t, s.Now(), 60.0)
}

func TestRunUntil_StopsAtHorizon(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())
	require.NoError(t, s.RunUntil(0.25, 0.1))

	assert.InDelta(t, 0.25, s.Now(), 1e-12)
	assert.False(t, s.AllCompleted())
}

func TestRunUntil_InvalidTickSize(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())
	assert.Error(t, s.RunUntil(10, 0))
}

// TestReset_RestoresEpochStart tests that reset state equals the initial state
func TestReset_RestoresEpochStart(t *testing.T) {
	fresh := newTestSimulator(t, DefaultConfig()).Snapshot()

	// GIVEN a simulator mid-run with events in flight and some tasks completed
	s := newTestSimulator(t, DefaultConfig())
	for i := 0; i < 12; i++ {
		require.NoError(t, s.Advance(0.1))
	}
	require.Positive(t, s.Pending())
	require.Positive(t, s.Metrics.CompletedTasks)

	// WHEN reset
	s.Reset()

	// THEN everything but the epoch counter matches a fresh simulator
	got := s.Snapshot()
	assert.Equal(t, 1, got.Epoch)
	got.Epoch = 0
	assert.Equal(t, fresh, got)
	assert.Equal(t, 0, s.Metrics.CompletedTasks)
}

func TestReset_Idempotent(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())
	for i := 0; i < 7; i++ {
		require.NoError(t, s.Advance(0.1))
	}

	s.Reset()
	once := s.Snapshot()
	s.Reset()
	twice := s.Snapshot()

	once.Epoch, twice.Epoch = 0, 0
	assert.Equal(t, once, twice)
}

func TestReset_ReplaysSameTrajectory(t *testing.T) {
	// GIVEN a run, a reset, and the same delta sequence again
	s := newTestSimulator(t, DefaultConfig())
	var first []Snapshot
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Advance(frameDeltas[i%len(frameDeltas)]))
		first = append(first, s.Snapshot())
	}
	s.Reset()

	// THEN the second epoch reproduces the first
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Advance(frameDeltas[i%len(frameDeltas)]))
		snap := s.Snapshot()
		snap.Epoch = 0
		require.Equal(t, first[i], snap, "epoch 1 diverged at tick %d", i)
	}
}

func TestReset_TraceKeepsHistoryAcrossEpochs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceLevel = trace.TraceLevelDecisions
	s := newTestSimulator(t, cfg)
	require.NoError(t, s.Advance(0.1))
	s.Reset()
	require.NoError(t, s.Advance(0.1))

	require.Len(t, s.Trace.Resets, 1)
	assert.Equal(t, 0, s.Trace.Resets[0].Epoch)
	assert.InDelta(t, 0.1, s.Trace.Resets[0].Clock, 1e-12)
	require.Len(t, s.Trace.Assignments, 2*DefaultNumRobots)
	assert.Equal(t, 0, s.Trace.Assignments[0].Epoch)
	assert.Equal(t, 1, s.Trace.Assignments[DefaultNumRobots].Epoch)
}
