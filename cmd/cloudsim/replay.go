package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cloudsim/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
	replayColor     bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded metric log file",
	Long:  "replay feeds metric events from a JSONL log back into the configured sink or STDOUT, preserving recorded pacing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		writer, cleanup, err := newMetricWriter(context.Background(), "replay", replayPrintOnly, replayColor, false, "")
		if err != nil {
			return err
		}
		defer cleanup()
		return sim.ReplayLogFile(replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to metric log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print metrics to STDOUT instead of writing to a sink")
	replayCmd.Flags().BoolVar(&replayColor, "color", false, "Colorize STDOUT output by metric domain")
	replayCmd.MarkFlagRequired("input")
}
