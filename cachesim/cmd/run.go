package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/pkg/browser"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/acceptancetests/memaccessagent"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/idealmemcontroller"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/tracing"
	"github.com/spf13/cobra"
)

// Environment variables that supply defaults for flags not given on the
// command line.
const (
	envConfig      = "CACHESIM_CONFIG"
	envRecord      = "CACHESIM_RECORD"
	envMonitorPort = "CACHESIM_MONITOR_PORT"
)

type runOptions struct {
	configPath  string
	recordPath  string
	monitor     bool
	monitorPort int
	openMonitor bool
	verbose     bool
	lastLevel   bool
	parallelIDs bool

	seed       int64
	reads      int
	writes     int
	maxAddress uint64
	maxCycles  uint64
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation.",
	Long: "`run` sends random reads and writes through a cache and prints " +
		"the cache statistics when no more progress can be made.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := withEnvDefaults(runOpts, cmd.Flags().Changed)
		if err != nil {
			return err
		}

		_, err = runSimulation(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVar(&runOpts.configPath, "config", "",
		"YAML file with cache and memory parameters")
	f.StringVar(&runOpts.recordPath, "record", "",
		"record trace and statistics into this SQLite file (without extension)")
	f.BoolVar(&runOpts.monitor, "monitor", false,
		"serve the monitoring web page while simulating")
	f.IntVar(&runOpts.monitorPort, "monitor-port", 0,
		"port of the monitoring server, random if 0")
	f.BoolVar(&runOpts.openMonitor, "open-monitor", false,
		"open the monitoring web page in a browser")
	f.BoolVar(&runOpts.verbose, "verbose", false,
		"log every clocked component and every traced task")
	f.BoolVar(&runOpts.lastLevel, "last-level", false,
		"simulate the cache without a memory behind it")
	f.BoolVar(&runOpts.parallelIDs, "parallel-ids", false,
		"use globally unique message IDs instead of sequential ones")
	f.Int64Var(&runOpts.seed, "seed", 1, "seed of the random requester")
	f.IntVar(&runOpts.reads, "reads", 10000, "number of reads to send")
	f.IntVar(&runOpts.writes, "writes", 10000, "number of writes to send")
	f.Uint64Var(&runOpts.maxAddress, "max-address", 1<<20,
		"addresses are drawn from [0, max-address)")
	f.Uint64Var(&runOpts.maxCycles, "max-cycles", 0,
		"stop after this many cycles, unlimited if 0")
}

// withEnvDefaults fills the options whose flags are not set from the
// environment.
func withEnvDefaults(
	opts runOptions,
	changed func(flag string) bool,
) (runOptions, error) {
	if v, ok := os.LookupEnv(envConfig); ok && !changed("config") {
		opts.configPath = v
	}

	if v, ok := os.LookupEnv(envRecord); ok && !changed("record") {
		opts.recordPath = v
	}

	if v, ok := os.LookupEnv(envMonitorPort); ok && !changed("monitor-port") {
		port, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", envMonitorPort, err)
		}

		opts.monitorPort = port
		opts.monitor = true
	}

	return opts, nil
}

// system is the simulated hardware of a run.
type system struct {
	simulation *sim.Simulation
	engine     *sim.SerialEngine
	agent      *memaccessagent.MemAccessAgent
	cache      *cache.Comp
	memory     *idealmemcontroller.Comp
}

func (s *system) components() []sim.Component {
	comps := []sim.Component{s.agent, s.cache}
	if s.memory != nil {
		comps = append(comps, s.memory)
	}

	return comps
}

func buildSystem(opts runOptions, cfg *Config) (*system, error) {
	simulation := sim.NewSimulation(sim.NewSerialEngine(1 * sim.GHz))
	s := &system{simulation: simulation, engine: simulation.Engine()}

	if !opts.lastLevel {
		s.memory = idealmemcontroller.NewComp("Memory")

		err := applyParams(s.memory, cfg.Memory)
		if err != nil {
			return nil, err
		}

		err = s.memory.FinishSetup()
		if err != nil {
			return nil, err
		}
	}

	s.cache = cache.NewComp("Cache")

	err := applyParams(s.cache, cfg.Cache)
	if err != nil {
		return nil, err
	}

	if s.memory != nil {
		s.cache.SetNextLevel(s.memory)
	}

	err = s.cache.FinishSetup()
	if err != nil {
		return nil, err
	}

	s.agent = memaccessagent.MakeBuilder().
		WithSeed(opts.seed).
		WithMaxAddress(opts.maxAddress).
		WithLineSize(uint64(s.cache.Memory().LineSize())).
		WithReadLeft(opts.reads).
		WithWriteLeft(opts.writes).
		WithValueCheck(!opts.lastLevel).
		WithLowModule(s.cache).
		Build("Agent")

	for _, c := range s.components() {
		s.simulation.RegisterComponent(c)
	}

	return s, nil
}

type runResult struct {
	stats      cache.Statistics
	cycles     uint64
	mismatches int
}

func runSimulation(
	opts runOptions,
	out, errOut io.Writer,
) (*runResult, error) {
	if opts.parallelIDs {
		sim.UseParallelIDGenerator()
	}

	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	s, err := buildSystem(opts, cfg)
	if err != nil {
		return nil, err
	}

	if opts.verbose {
		logger := log.New(errOut, "", 0)
		s.engine.AcceptHook(sim.NewTickLogger(logger, s.engine))
		tracing.CollectTrace(s.cache, tracing.NewLogTracer(logger, s.engine))
	}

	var recorder datarecording.DataRecorder
	var dbTracer *tracing.DBTracer
	if opts.recordPath != "" {
		recorder = datarecording.New(opts.recordPath)
		dbTracer = tracing.NewDBTracer(s.engine, recorder)
		tracing.CollectTrace(s.cache, dbTracer)
	}

	if opts.monitor || opts.openMonitor {
		startMonitor(s, opts, errOut)
	}

	err = s.engine.Run(opts.maxCycles)
	if errors.Is(err, sim.ErrCycleLimit) {
		fmt.Fprintf(errOut, "Stopped after %d cycles\n", opts.maxCycles)
	} else if err != nil {
		return nil, err
	}

	s.engine.Finished()

	for _, c := range s.components() {
		c.PrintStatistics(out)
	}

	if recorder != nil {
		s.cache.RecordStatistics(recorder)
		dbTracer.Terminate()

		err = recorder.Close()
		if err != nil {
			return nil, err
		}
	}

	if s.agent.Mismatches > 0 {
		return nil, fmt.Errorf("%d reads returned wrong values",
			s.agent.Mismatches)
	}

	return &runResult{
		stats:      s.cache.Statistics(),
		cycles:     s.engine.CurrentCycle(),
		mismatches: s.agent.Mismatches,
	}, nil
}

func startMonitor(s *system, opts runOptions, errOut io.Writer) {
	m := monitoring.NewMonitor().WithPortNumber(opts.monitorPort)
	m.RegisterEngine(s.engine)

	for _, c := range s.simulation.Components() {
		m.RegisterComponent(c)
	}

	bar := m.CreateProgressBar("Accesses", uint64(opts.reads+opts.writes))
	s.engine.AcceptHook(&progressHook{agent: s.agent, bar: bar})

	url := m.StartServer()

	if opts.openMonitor {
		err := browser.OpenURL(url)
		if err != nil {
			fmt.Fprintf(errOut, "Cannot open browser: %v\n", err)
		}
	}
}
