package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/archlab/memsim/config"
	"github.com/archlab/memsim/monitor"
	"github.com/archlab/memsim/simulation"
	"github.com/archlab/memsim/vm/heap"
)

var runFlags struct {
	pageSize      uint64
	numFrames     int
	pageinLatency uint64
	tlbSize       int
	fitStrategy   string
	envFile       string
	traceOut      string
	recorderPath  string
	noRecorder    bool
	monitorOn     bool
	monitorPort   int
	open          bool
}

var runCmd = &cobra.Command{
	Use:   "run <trace.csv>",
	Short: "Run a simulation against a CSV access trace",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimulation,
}

func init() {
	runCmd.Flags().Uint64Var(&runFlags.pageSize, "page-size", config.DefaultPageSize, "page size in bytes")
	runCmd.Flags().IntVar(&runFlags.numFrames, "num-frames", config.DefaultNumFrames, "number of physical frames")
	runCmd.Flags().Uint64Var(&runFlags.pageinLatency, "pagein-latency", config.DefaultPageinLatency, "cycles a page-in takes to complete")
	runCmd.Flags().IntVar(&runFlags.tlbSize, "tlb-size", config.DefaultTLBSize, "translation cache capacity, in entries")
	runCmd.Flags().StringVar(&runFlags.fitStrategy, "fit-strategy", "first_fit", "heap placement strategy: first_fit, best_fit, or worst_fit")
	runCmd.Flags().StringVar(&runFlags.envFile, "env-file", "", "optional .env file overriding the flags above")
	runCmd.Flags().StringVar(&runFlags.traceOut, "trace-out", "", "write an execution trace CSV to this path")
	runCmd.Flags().StringVar(&runFlags.recorderPath, "recorder-path", "", "SQLite path for the run's final metrics snapshot")
	runCmd.Flags().BoolVar(&runFlags.noRecorder, "no-recorder", false, "disable the SQLite metrics recorder")
	runCmd.Flags().BoolVar(&runFlags.monitorOn, "monitor", false, "serve live status over HTTP while the run executes")
	runCmd.Flags().IntVar(&runFlags.monitorPort, "monitor-port", 0, "port for --monitor (0 picks a free port)")
	runCmd.Flags().BoolVar(&runFlags.open, "open", false, "open the monitor's status page in a browser (implies --monitor)")

	rootCmd.AddCommand(runCmd)
}

func runSimulation(_ *cobra.Command, args []string) error {
	tracePath := args[0]

	fitStrategy, err := heap.ParseFitStrategy(runFlags.fitStrategy)
	if err != nil {
		return fmt.Errorf("memsim: %w", err)
	}

	cfgBuilder := config.MakeBuilder().
		WithPageSize(runFlags.pageSize).
		WithNumFrames(runFlags.numFrames).
		WithPageinLatency(runFlags.pageinLatency).
		WithTLBSize(runFlags.tlbSize).
		WithFitStrategy(fitStrategy).
		WithTracePath(tracePath)

	if runFlags.envFile != "" {
		cfgBuilder, err = cfgBuilder.WithEnvFile(runFlags.envFile)
		if err != nil {
			return fmt.Errorf("memsim: %w", err)
		}
	}

	cfg := cfgBuilder.Build()

	simBuilder := simulation.MakeBuilder(cfg)
	if runFlags.noRecorder {
		simBuilder = simBuilder.WithoutRecorder()
	} else if runFlags.recorderPath != "" {
		simBuilder = simBuilder.WithRecorderPath(runFlags.recorderPath)
	}
	if runFlags.traceOut != "" {
		simBuilder = simBuilder.WithTraceOutput(runFlags.traceOut)
	}

	sim, err := simBuilder.Build()
	if err != nil {
		return fmt.Errorf("memsim: failed to build simulation: %w", err)
	}
	defer func() {
		if err := sim.Terminate(); err != nil {
			log.Printf("memsim: cleanup failed: %v", err)
		}
	}()

	trace, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("memsim: failed to open trace: %w", err)
	}
	defer trace.Close()

	skipped := sim.LoadTrace(trace)
	if skipped > 0 {
		log.Printf("memsim: skipped %d malformed trace lines", skipped)
	}

	if runFlags.monitorOn || runFlags.open {
		srv := monitor.NewServer(sim, runFlags.monitorPort)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("memsim: failed to start monitor: %w", err)
		}
		defer srv.Close()

		statusURL := "http://" + srv.Addr() + "/status"
		log.Printf("memsim: monitoring at %s", statusURL)

		if runFlags.open {
			if err := browser.OpenURL(statusURL); err != nil {
				log.Printf("memsim: failed to open browser: %v", err)
			}
		}
	}

	if err := sim.Run(); err != nil {
		return fmt.Errorf("memsim: run failed: %w", err)
	}

	sim.Summarize()
	return nil
}
