// Package testutil provides shared test infrastructure for the fleet simulator.
// It consolidates golden trajectory types and assertion helpers used across
// sim/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenTrajectory represents the structure of testdata/golden_trajectory.json.
type GoldenTrajectory struct {
	Description   string             `json:"description"`
	NumRobots     int                `json:"num_robots"`
	NumTasks      int                `json:"num_tasks"`
	Dt            float64            `json:"dt"`
	Ticks         int                `json:"ticks"`
	Completions   []GoldenCompletion `json:"completions"`
	TotalDistance float64            `json:"total_distance"`
}

// GoldenCompletion is one expected task completion, in execution order.
type GoldenCompletion struct {
	Robot int     `json:"robot"`
	Task  int     `json:"task"`
	Clock float64 `json:"clock"` // event timestamp, not the tick it was drained on
}

// LoadGoldenTrajectory loads the golden trajectory from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenTrajectory(t *testing.T) *GoldenTrajectory {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden_trajectory.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden trajectory: %v", err)
	}

	var golden GoldenTrajectory
	if err := json.Unmarshal(data, &golden); err != nil {
		t.Fatalf("Failed to parse golden trajectory: %v", err)
	}

	return &golden
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
