package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/fleet-sim/fleet-sim/sim"
	"github.com/fleet-sim/fleet-sim/sim/trace"
)

var (
	// CLI flags for the simulated fleet
	numRobots     int     // Number of robots
	numTasks      int     // Number of tasks
	speed         float64 // Robot speed in world units per second
	minTravelTime float64 // Floor on any trip duration (seconds)
	robotHeight   float64 // Y coordinate robots travel at
	maxStep       float64 // Largest sub-tick a single advance may take (0 = no splitting)
	strictRefs    bool    // Panic on events naming unknown robots or tasks

	// CLI flags for the driver
	dt           float64 // Seconds per tick
	horizon      float64 // Stop once the clock reaches this many seconds
	scenarioPath string  // Optional scenario YAML
	logLevel     string  // Log verbosity level
	traceLevel   string  // Decision trace level
	traceOutput  string  // Trace file path (.zst suffix compresses)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "fleet-sim",
	Short: "Discrete-event simulator for multi-robot task allocation",
}

// runSettings carries the driver parameters alongside sim.Config.
type runSettings struct {
	dt          float64
	horizon     float64
	traceOutput string
}

// setupLogging applies the --log flag.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveConfig layers defaults, then the scenario file, then explicitly set flags.
func resolveConfig(cmd *cobra.Command) (sim.Config, runSettings, error) {
	cfg := sim.DefaultConfig()
	settings := runSettings{dt: dt, horizon: horizon, traceOutput: traceOutput}

	if scenarioPath != "" {
		sc, err := LoadScenario(scenarioPath)
		if err != nil {
			return cfg, settings, err
		}
		sc.Apply(&cfg)
		if sc.Run.Dt != nil && !cmd.Flags().Changed("dt") {
			settings.dt = *sc.Run.Dt
		}
		if sc.Run.Horizon != nil && !cmd.Flags().Changed("horizon") {
			settings.horizon = *sc.Run.Horizon
		}
		logrus.Infof("Loaded scenario %s", scenarioPath)
	}

	// Flags win over the scenario only when the user actually set them.
	flags := cmd.Flags()
	if flags.Changed("robots") || scenarioPath == "" {
		cfg.NumRobots = numRobots
	}
	if flags.Changed("tasks") || scenarioPath == "" {
		cfg.NumTasks = numTasks
	}
	if flags.Changed("speed") || scenarioPath == "" {
		cfg.Speed = speed
	}
	if flags.Changed("min-travel-time") || scenarioPath == "" {
		cfg.MinTravelTime = minTravelTime
	}
	if flags.Changed("robot-height") || scenarioPath == "" {
		cfg.RobotHeight = robotHeight
	}
	if flags.Changed("max-step") || scenarioPath == "" {
		cfg.MaxStep = maxStep
	}
	if flags.Changed("strict") || scenarioPath == "" {
		cfg.StrictReferences = strictRefs
	}
	if flags.Changed("trace") || scenarioPath == "" {
		cfg.TraceLevel = trace.TraceLevel(traceLevel)
	}

	if settings.dt <= 0 {
		return cfg, settings, fmt.Errorf("invalid --dt %v: must be > 0", settings.dt)
	}
	return cfg, settings, cfg.Validate()
}

// runSimulation drives s headlessly and writes the metrics report to out.
func runSimulation(s *sim.Simulator, settings runSettings, out io.Writer) error {
	if err := s.RunUntil(settings.horizon, settings.dt); err != nil {
		return err
	}
	if !s.AllCompleted() {
		logrus.Warnf("Horizon %.2fs reached with %d/%d tasks completed",
			settings.horizon, s.Metrics.CompletedTasks, s.Config().NumTasks)
	}
	if err := s.Metrics.SaveResults(out, s.Now(), s.Config().NumTasks); err != nil {
		return err
	}
	if s.Trace == nil {
		return nil
	}
	summary := trace.Summarize(s.Trace)
	logrus.Infof("Trace: %d assignments, %d completions, mean travel %.3fs, max travel %.3fs",
		summary.TotalAssignments, summary.TotalCompletions, summary.MeanTravelTime, summary.MaxTravelTime)
	if settings.traceOutput != "" {
		if err := trace.WriteFile(settings.traceOutput, s.Trace); err != nil {
			return err
		}
		logrus.Infof("Trace written to %s", settings.traceOutput)
	}
	return nil
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the allocation simulation headlessly",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, settings, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if settings.traceOutput != "" && cfg.TraceLevel != trace.TraceLevelDecisions {
			logrus.Fatalf("--trace-output requires --trace decisions")
		}

		logrus.Infof("Starting simulation with %d robots, %d tasks, dt=%.4fs, horizon=%.2fs",
			cfg.NumRobots, cfg.NumTasks, settings.dt, settings.horizon)

		s, err := sim.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := runSimulation(s, settings, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerSimFlags attaches the flags shared by run and serve.
func registerSimFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&numRobots, "robots", sim.DefaultNumRobots, "Number of robots")
	cmd.Flags().IntVar(&numTasks, "tasks", sim.DefaultNumTasks, "Number of tasks")
	cmd.Flags().Float64Var(&speed, "speed", sim.DefaultSpeed, "Robot speed (world units per second)")
	cmd.Flags().Float64Var(&minTravelTime, "min-travel-time", sim.DefaultMinTravelTime, "Minimum travel time of any trip (seconds)")
	cmd.Flags().Float64Var(&robotHeight, "robot-height", sim.DefaultRobotHeight, "Y coordinate robots travel at")
	cmd.Flags().Float64Var(&maxStep, "max-step", 0, "Split each advance into sub-ticks of at most this many seconds (0 disables)")
	cmd.Flags().BoolVar(&strictRefs, "strict", false, "Panic on events that reference unknown robots or tasks")
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a scenario YAML file")
	cmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
}

// registerRunFlags attaches the headless driver flags.
func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", 1.0/60, "Seconds of simulated time per tick")
	cmd.Flags().Float64Var(&horizon, "horizon", 600, "Stop once the clock reaches this many seconds")
	cmd.Flags().StringVar(&traceOutput, "trace-output", "", "Write the decision trace to this file (.zst suffix compresses)")
}

// init sets up CLI flags and subcommands
func init() {
	registerSimFlags(runCmd)
	registerRunFlags(runCmd)

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
