package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every assignment, completion and reset.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel `yaml:"level"`
}

// SimulationTrace collects decision records across every epoch of a run.
type SimulationTrace struct {
	Config      TraceConfig        `yaml:"config"`
	Assignments []AssignmentRecord `yaml:"assignments"`
	Completions []CompletionRecord `yaml:"completions"`
	Resets      []ResetRecord      `yaml:"resets"`
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Assignments: make([]AssignmentRecord, 0),
		Completions: make([]CompletionRecord, 0),
		Resets:      make([]ResetRecord, 0),
	}
}

// RecordAssignment appends an assignment decision record.
func (st *SimulationTrace) RecordAssignment(record AssignmentRecord) {
	st.Assignments = append(st.Assignments, record)
}

// RecordCompletion appends a task completion record.
func (st *SimulationTrace) RecordCompletion(record CompletionRecord) {
	st.Completions = append(st.Completions, record)
}

// RecordReset appends an epoch boundary record.
func (st *SimulationTrace) RecordReset(record ResetRecord) {
	st.Resets = append(st.Resets, record)
}
