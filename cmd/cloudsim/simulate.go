package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cloudsim/internal/admin"
	"cloudsim/internal/config"
	"cloudsim/internal/hostmetrics"
	"cloudsim/internal/incident"
	"cloudsim/internal/logging"
	"cloudsim/internal/producer"
	"cloudsim/internal/sim"
)

var (
	simPrintOnly  bool
	simColor      bool
	simTUI        bool
	simConfigPath string
	simSchemaPath string
	simTick       time.Duration
	simLogFile    string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time cloud telemetry simulator",
	Long:  "simulate starts a worker emitting correlated metrics for cluster, database, storage, network, and host producers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}

		log := logging.New(cfg.LogLevel)
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		ctx = logging.NewContext(ctx, log)

		workerID := cfg.WorkerID
		if env := os.Getenv("WORKER_ID"); env != "" {
			workerID = env
		}
		if workerID == "" {
			workerID = "worker-" + uuid.New().String()[:8]
		}

		tickInterval := cfg.TickInterval()
		if simTick > 0 {
			tickInterval = simTick
		}
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return err
			}
			tickInterval = d
		}

		writer, cleanup, err := newMetricWriter(ctx, workerID, simPrintOnly, simColor, simTUI, simLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		field := incident.NewField(cfg.TransitionProbs())
		producers, err := buildProducers(cfg, field)
		if err != nil {
			return err
		}

		sched := sim.NewScheduler(producers, writer, field, sim.Options{
			Interval:           tickInterval,
			JitterFraction:     cfg.JitterFraction,
			ProducerTimeout:    cfg.ProducerTimeout(),
			SuspendThreshold:   cfg.SuspendThreshold,
			ProbeIntervalTicks: cfg.ProbeIntervalTicks,
			SinkBackoff:        cfg.SinkBackoff(),
			ShutdownGrace:      cfg.ShutdownGrace(),
		})

		log.Info("starting worker",
			"worker_id", workerID,
			"tick_interval", tickInterval,
			"producers", len(producers),
			"admin_addr", cfg.AdminAddr)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			srv := admin.NewServer(sched)
			if err := srv.Start(gctx, cfg.AdminAddr); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			sched.Run(gctx)
			return nil
		})

		err = g.Wait()
		log.Info("worker stopped", "worker_id", workerID)
		return err
	},
}

// buildProducers creates enabled producers in the fixed emission order.
func buildProducers(cfg *config.SimulationConfig, field *incident.Field) ([]producer.Producer, error) {
	seed := time.Now().UnixNano()
	var producers []producer.Producer

	if cfg.Enabled("cluster") {
		p, err := producer.NewCluster(field, cfg.Cluster, rand.New(rand.NewSource(seed)))
		if err != nil {
			return nil, err
		}
		producers = append(producers, p)
	}
	if cfg.Enabled("database") {
		producers = append(producers, producer.NewDatabase(field, cfg.Database, rand.New(rand.NewSource(seed+1))))
	}
	if cfg.Enabled("storage") {
		p, err := producer.NewStorage(field, cfg.Storage, rand.New(rand.NewSource(seed+2)))
		if err != nil {
			return nil, err
		}
		producers = append(producers, p)
	}
	if cfg.Enabled("network") {
		p, err := producer.NewNetwork(field, cfg.Network, rand.New(rand.NewSource(seed+3)))
		if err != nil {
			return nil, err
		}
		producers = append(producers, p)
	}
	if cfg.Enabled("host") {
		producers = append(producers, producer.NewHost(hostmetrics.NewSource(cfg.HostDiskPath)))
	}
	return producers, nil
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print metrics to STDOUT instead of writing to a sink")
	simulateCmd.Flags().BoolVar(&simColor, "color", false, "Colorize STDOUT output by metric domain")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Render metrics in an interactive terminal table")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	simulateCmd.Flags().DurationVar(&simTick, "tick", 0, "Tick interval override (e.g. 500ms, 2s); defaults to the config value")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export emitted metrics (JSONL)")
}
