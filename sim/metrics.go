// Tracks simulation-wide and per-robot statistics such as:
//   - tasks completed and events processed
//   - distance travelled and completions per robot
//   - travel time distribution and makespan

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// Metrics aggregates statistics about the current epoch
// for final reporting. Reset starts a fresh Metrics.
type Metrics struct {
	CompletedTasks  int // MoveRobot events that completed a task
	EventsProcessed int // events popped and executed
	DanglingEvents  int // event references dropped because the id was unknown
	Assignments     int // allocator decisions

	TravelTimes      []float64       // travel time of every assignment, in schedule order
	RobotCompletions map[int]int     // robot id -> tasks completed
	RobotDistance    map[int]float64 // robot id -> world units travelled
	Makespan         float64         // clock time of the latest completion
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		TravelTimes:      make([]float64, 0),
		RobotCompletions: make(map[int]int),
		RobotDistance:    make(map[int]float64),
	}
}

func (m *Metrics) recordAssignment(travelTime float64) {
	m.Assignments++
	m.TravelTimes = append(m.TravelTimes, travelTime)
}

func (m *Metrics) recordMove(robotID int, distance float64) {
	m.RobotDistance[robotID] += distance
}

func (m *Metrics) recordCompletion(robotID int, at float64) {
	m.CompletedTasks++
	m.RobotCompletions[robotID]++
	m.Makespan = max(m.Makespan, at)
}

// TotalDistance sums the distance travelled by every robot.
func (m *Metrics) TotalDistance() float64 {
	total := 0.0
	for _, d := range m.RobotDistance {
		total += d
	}
	return total
}

// MetricsOutput is the JSON shape of a metrics report.
type MetricsOutput struct {
	SimEndedTime     float64         `json:"sim_ended_time_s"`
	CompletedTasks   int             `json:"completed_tasks"`
	TotalTasks       int             `json:"total_tasks"`
	Assignments      int             `json:"assignments"`
	EventsProcessed  int             `json:"events_processed"`
	DanglingEvents   int             `json:"dangling_events"`
	Makespan         float64         `json:"makespan_s"`
	TotalDistance    float64         `json:"total_distance"`
	TravelTimeMean   float64         `json:"travel_time_mean_s"`
	TravelTimeP50    float64         `json:"travel_time_p50_s"`
	TravelTimeP90    float64         `json:"travel_time_p90_s"`
	RobotCompletions map[int]int     `json:"robot_completions"`
	RobotDistance    map[int]float64 `json:"robot_distance"`
}

// Output summarizes the metrics; simEnded and totalTasks come from the simulator.
func (m *Metrics) Output(simEnded float64, totalTasks int) MetricsOutput {
	sorted := slices.Clone(m.TravelTimes)
	slices.Sort(sorted)
	return MetricsOutput{
		SimEndedTime:     simEnded,
		CompletedTasks:   m.CompletedTasks,
		TotalTasks:       totalTasks,
		Assignments:      m.Assignments,
		EventsProcessed:  m.EventsProcessed,
		DanglingEvents:   m.DanglingEvents,
		Makespan:         m.Makespan,
		TotalDistance:    m.TotalDistance(),
		TravelTimeMean:   CalculateMean(sorted),
		TravelTimeP50:    CalculatePercentile(sorted, 50),
		TravelTimeP90:    CalculatePercentile(sorted, 90),
		RobotCompletions: m.RobotCompletions,
		RobotDistance:    m.RobotDistance,
	}
}

// SaveResults writes a human header followed by the JSON report to w.
func (m *Metrics) SaveResults(w io.Writer, simEnded float64, totalTasks int) error {
	data, err := json.MarshalIndent(m.Output(simEnded, totalTasks), "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling metrics: %w", err)
	}
	if _, err := fmt.Fprintf(w, "=== Simulation Metrics ===\n%s\n", data); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
