package pipeline

import (
	"log/slog"

	"github.com/flowreel/transmux/internal/transmux"
)

// LogEventEmitter is the default transmux.EventEmitter: it logs every
// emission through slog rather than forwarding it to a UI or metrics
// sink, which is all a standalone CLI host needs. A service embedding
// the orchestrator would supply its own EventEmitter that also
// propagates fatal media errors to its client-facing error channel.
type LogEventEmitter struct {
	logger *slog.Logger
}

// NewLogEventEmitter constructs an emitter bound to logger.
func NewLogEventEmitter(logger *slog.Logger) *LogEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventEmitter{logger: logger}
}

// Emit implements transmux.EventEmitter.
func (e *LogEventEmitter) Emit(ev transmux.Event) {
	switch payload := ev.Payload.(type) {
	case transmux.MediaErrorPayload:
		e.logger.Error("transmux: media error",
			slog.String("event", ev.Name),
			slog.String("details", payload.Details),
			slog.Bool("fatal", payload.Fatal),
			slog.String("reason", payload.Reason))
	case transmux.ProbeFallbackPayload:
		e.logger.Info("transmux: probe fell back to passthrough",
			slog.String("event", ev.Name),
			slog.Int("byte_length", payload.ByteLength))
	default:
		e.logger.Debug("transmux: event", slog.String("event", ev.Name))
	}
}
