package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalAssignments int
	TotalCompletions int
	Resets           int
	MeanTravelTime   float64
	MaxTravelTime    float64
	MeanCandidates   float64
	UniqueRobots     int
	TasksPerRobot    map[int]int // robot ID → completions across all epochs
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TasksPerRobot: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalAssignments = len(st.Assignments)
	summary.TotalCompletions = len(st.Completions)
	summary.Resets = len(st.Resets)

	if len(st.Assignments) > 0 {
		totalTravel, totalCandidates := 0.0, 0
		for _, a := range st.Assignments {
			totalTravel += a.TravelTime
			totalCandidates += a.Candidates
			if a.TravelTime > summary.MaxTravelTime {
				summary.MaxTravelTime = a.TravelTime
			}
		}
		summary.MeanTravelTime = totalTravel / float64(len(st.Assignments))
		summary.MeanCandidates = float64(totalCandidates) / float64(len(st.Assignments))
	}

	for _, c := range st.Completions {
		summary.TasksPerRobot[c.RobotID]++
	}
	summary.UniqueRobots = len(summary.TasksPerRobot)

	return summary
}
