// Command tracegen writes a synthetic player telemetry trace in the JSON-lines
// format read by telemetry.source=trace.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"playerdebug/telemetry"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type options struct {
	out      string
	duration time.Duration
	seed     int64
	minBps   int64
	maxBps   int64
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "tracegen",
		Short: "Generate a synthetic playback telemetry trace",
		Long: `Generate a synthetic adaptive-streaming session: segment transfers over a
wandering network, format switches and decoder counters. The trace is written
as one JSON event per line; replay it with telemetry.source=trace.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "-", "output file (- for stdout)")
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", 2*time.Minute, "session length")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "random seed; the same seed gives the same trace")
	cmd.Flags().Int64Var(&opts.minBps, "min-bps", 1_000_000, "lowest simulated throughput, bits/s")
	cmd.Flags().Int64Var(&opts.maxBps, "max-bps", 10_000_000, "highest simulated throughput, bits/s")
	return cmd
}

func run(stdout io.Writer, opts *options) error {
	if opts.minBps <= 0 || opts.maxBps < opts.minBps {
		return fmt.Errorf("invalid throughput range %d..%d", opts.minBps, opts.maxBps)
	}
	events, err := telemetry.GenerateSession(telemetry.SyntheticOptions{
		Duration: opts.duration,
		Seed:     opts.seed,
		MinBps:   opts.minBps,
		MaxBps:   opts.maxBps,
	})
	if err != nil {
		return err
	}

	w := stdout
	var file *os.File
	if opts.out != "" && opts.out != "-" {
		file, err = os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.out, err)
		}
		defer file.Close()
		w = file
	}
	bw := bufio.NewWriter(w)
	if err := telemetry.WriteTrace(bw, events); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}

	if file != nil {
		var bytes int64
		if info, err := file.Stat(); err == nil {
			bytes = info.Size()
		}
		log.Printf("Wrote %s events (%s) to %s", humanize.Comma(int64(len(events))), humanize.Bytes(uint64(bytes)), opts.out)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
