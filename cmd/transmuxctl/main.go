// Command transmuxctl drives the transmuxer core from the command
// line: feeding a file through it in fixed-size chunks to simulate
// progressive delivery, or running only the probe table against a
// file's prefix to report the detected container family.
package main

import (
	"fmt"
	"os"

	"github.com/flowreel/transmux/internal/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		observability.NewLogger(defaultLoggingConfig()).Error(err.Error())
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
