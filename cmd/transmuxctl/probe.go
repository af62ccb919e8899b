package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowreel/transmux/internal/observability"
	"github.com/flowreel/transmux/internal/pipeline"
)

func newProbeCmd() *cobra.Command {
	var prefixSize int

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Run the probe table against a file's prefix and print the matched container family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadedConfig
			if cfg == nil {
				return fmt.Errorf("configuration not loaded")
			}
			logger := observability.NewLogger(cfg.Logging)

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening input: %w", err)
			}
			defer f.Close()

			buf := make([]byte, prefixSize)
			n, err := f.Read(buf)
			if err != nil && n == 0 {
				return fmt.Errorf("reading prefix: %w", err)
			}
			buf = buf[:n]

			probes := pipeline.NewProbeTable(logger)
			entry, fellBack := probes.SelectOrFallback(buf, logger)

			fmt.Printf("family=%s fallback=%t bytes_examined=%d\n", entry.FamilyName, fellBack, n)
			return nil
		},
	}

	cmd.Flags().IntVar(&prefixSize, "prefix-size", 65536, "bytes read from the start of the file before probing")
	return cmd
}
