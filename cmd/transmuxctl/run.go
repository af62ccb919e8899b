package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flowreel/transmux/internal/observability"
	"github.com/flowreel/transmux/internal/pipeline"
	"github.com/flowreel/transmux/internal/transmux"
)

func newRunCmd() *cobra.Command {
	var chunkSize int

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Feed a file through the transmuxer core in fixed-size chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadedConfig
			if cfg == nil {
				return fmt.Errorf("configuration not loaded")
			}
			logger := observability.NewLogger(cfg.Logging)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			events := pipeline.NewLogEventEmitter(logger)
			probes := pipeline.NewProbeTable(logger)
			orch := transmux.NewOrchestrator(probes, events, pipeline.NewClock(), logger)

			if err := orch.Configure(&transmux.TransmuxConfig{
				EnableSoftwareAES: cfg.Transmux.EnableSoftwareAES,
				Progressive:       cfg.Transmux.Progressive,
				Vendor:            cfg.Transmux.Vendor,
				Duration:          time.Duration(cfg.Transmux.DefaultSegmentDuration).Seconds(),
			}); err != nil {
				return fmt.Errorf("configuring orchestrator: %w", err)
			}

			state := &transmux.TransmuxState{Contiguous: true}
			totalOut := 0
			seq := 0

			for offset := 0; offset < len(data); offset += chunkSize {
				end := offset + chunkSize
				if end > len(data) {
					end = len(data)
				}
				meta := &transmux.ChunkMetadata{SequenceNumber: seq}
				seq++

				res, future, err := orch.Push(data[offset:end], nil, meta, state)
				if err != nil {
					return fmt.Errorf("push: %w", err)
				}
				if future != nil {
					resolved, err := future.Wait()
					if err != nil {
						return fmt.Errorf("push (async): %w", err)
					}
					res = &resolved
				}
				if res != nil && res.RemuxResult != nil {
					totalOut += len(res.RemuxResult.InitSegment) + len(res.RemuxResult.Payload)
				}
			}

			flushMeta := &transmux.ChunkMetadata{SequenceNumber: seq}
			results, err := orch.Flush(flushMeta)
			if err != nil {
				return fmt.Errorf("flush: %w", err)
			}
			for _, res := range results {
				if res.RemuxResult != nil {
					totalOut += len(res.RemuxResult.InitSegment) + len(res.RemuxResult.Payload)
				}
			}

			orch.Destroy()

			logger.Info("transmux run complete",
				"run_id", uuid.NewString(),
				"input_bytes", len(data),
				"output_bytes", totalOut,
				"chunks", seq,
			)
			fmt.Printf("input=%d bytes output=%d bytes chunks=%d\n", len(data), totalOut, seq)
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 4096, "bytes per simulated progressive push")
	return cmd
}
