package main

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/process"
	"github.com/spf13/cobra"

	"github.com/zoudehupowersystem/HECS-CPS-Sim/cps"
	"github.com/zoudehupowersystem/HECS-CPS-Sim/datarecording"
	"github.com/zoudehupowersystem/HECS-CPS-Sim/monitoring"
	"github.com/zoudehupowersystem/HECS-CPS-Sim/powergrid"
)

var (
	flagHorizonMs     int64
	flagStepMs        int64
	flagDisturbanceMs int64
	flagEVStations    int
	flagPilesPerStn   int
	flagESSUnits      int
	flagSeed          int64
	flagRecordPath    string
	flagMonitor       bool
	flagMonitorPort   int
	flagOpenDashboard bool
	flagDebug         bool
)

var rootCmd = &cobra.Command{
	Use:   "hecssim",
	Short: "Power-grid co-simulation with relay protection and a frequency-responsive VPP",
	RunE:  runSimulation,

	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Int64Var(&flagHorizonMs, "horizon-ms",
		envInt64("HECSSIM_HORIZON_MS", 70000), "simulation horizon")
	rootCmd.Flags().Int64Var(&flagStepMs, "step-ms",
		envInt64("HECSSIM_STEP_MS", 20), "frequency oracle step")
	rootCmd.Flags().Int64Var(&flagDisturbanceMs, "disturbance-ms",
		envInt64("HECSSIM_DISTURBANCE_MS", 5000), "disturbance start time")
	rootCmd.Flags().IntVar(&flagEVStations, "ev-stations", 10,
		"number of EV charging stations")
	rootCmd.Flags().IntVar(&flagPilesPerStn, "piles-per-station", 5,
		"charging piles per station")
	rootCmd.Flags().IntVar(&flagESSUnits, "ess-units", 100,
		"number of energy storage units")
	rootCmd.Flags().Int64Var(&flagSeed, "seed", 1,
		"seed for the initial EV state of charge")
	rootCmd.Flags().StringVar(&flagRecordPath, "record",
		os.Getenv("HECSSIM_RECORD"),
		"record the frequency trace into this SQLite file (without extension)")
	rootCmd.Flags().BoolVar(&flagMonitor, "monitor", false,
		"start the monitoring web server")
	rootCmd.Flags().IntVar(&flagMonitorPort, "monitor-port",
		int(envInt64("HECSSIM_MONITOR_PORT", 0)), "monitoring server port")
	rootCmd.Flags().BoolVar(&flagOpenDashboard, "open-dashboard", false,
		"open the monitoring page in the browser")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "verbose logging")
}

func envInt64(key string, fallback int64) int64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func runSimulation(_ *cobra.Command, _ []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
	if flagDebug {
		logger = logger.Level(zerolog.DebugLevel)
	}

	cfg := powergrid.ScenarioConfig{
		EVStations:       flagEVStations,
		PilesPerStation:  flagPilesPerStn,
		ESSUnits:         flagESSUnits,
		DisturbanceStart: cps.VTimeInMs(flagDisturbanceMs),
		Step:             cps.VTimeInMs(flagStepMs),
		Horizon:          cps.VTimeInMs(flagHorizonMs),
		Seed:             flagSeed,
	}

	var recorder datarecording.DataRecorder
	if flagRecordPath != "" {
		recorder = datarecording.New(flagRecordPath)
	}

	sc := powergrid.BuildScenario(cfg, logger, recorder)

	if flagMonitor {
		startMonitor(sc)
	}

	logger.Info().
		Int64("horizon_ms", flagHorizonMs).
		Int("ev_piles", len(sc.EVPiles)).
		Int("ess_units", len(sc.ESSUnits)).
		Msg("simulation starting")

	wallStart := time.Now()
	sc.Run()
	wallElapsed := time.Since(wallStart)

	logger.Info().
		Int64("final_time_ms", int64(sc.Scheduler.Now())).
		Dur("wall_time", wallElapsed).
		Msg("simulation ended")

	reportResourceUsage(logger)

	if recorder != nil {
		recorder.Flush()
	}

	return nil
}

func startMonitor(sc *powergrid.Scenario) {
	m := monitoring.NewMonitor()
	if flagMonitorPort != 0 {
		m.WithPortNumber(flagMonitorPort)
	}

	m.RegisterScheduler(sc.Scheduler)
	m.RegisterSystem("scenario", sc)

	bar := m.CreateProgressBar("simulated time (ms)", uint64(sc.Config.Horizon))
	cps.Spawn(sc.Scheduler, func(ctx *cps.Context) {
		for {
			ctx.Delay(1000)
			bar.IncrementFinished(1000)
		}
	}).Detach()

	addr := m.StartServer()
	if flagOpenDashboard {
		m.OpenDashboard(addr)
	}
}

func reportResourceUsage(logger zerolog.Logger) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Warn().Err(err).Msg("cannot inspect own process")
		return
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		logger.Warn().Err(err).Msg("cannot read memory usage")
		return
	}

	logger.Info().
		Uint64("resident_memory_kb", memInfo.RSS/1024).
		Msg("resource usage")
}
