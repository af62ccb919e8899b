package transmux

import (
	"fmt"
	"log/slog"
)

// OrchestratorState is the orchestrator's explicit lifecycle state.
type OrchestratorState int

const (
	StateFresh OrchestratorState = iota
	StateProbing
	StateBound
	StateAwaitingDecrypt
	StateTerminated
)

func (s OrchestratorState) String() string {
	switch s {
	case StateFresh:
		return "Fresh"
	case StateProbing:
		return "Probing"
	case StateBound:
		return "Bound"
	case StateAwaitingDecrypt:
		return "AwaitingDecrypt"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Orchestrator is the transmuxer core. It owns the chunk cache,
// probe table, decrypter, and — once bound — one demuxer/remuxer pair.
// It runs single-threaded per the concurrency model: it is reentrant
// within its own thread (an async decryption's continuation calls back
// into Push) but not safe for concurrent use across goroutines.
type Orchestrator struct {
	logger *slog.Logger
	clock  Clock
	events EventEmitter
	probes *ProbeTable

	cache     *ChunkCache
	decrypter *Decrypter

	config *TransmuxConfig
	state  *TransmuxState

	demuxer       Demuxer
	remuxer       Remuxer
	currentFamily string // ProbeEntry.FamilyName of the bound pair, "" if unbound

	orchState OrchestratorState

	// pendingAsync tracks the single in-flight async handle: at most one
	// asynchronous decryption or SAMPLE-AES demux may be outstanding at
	// a time.
	pendingAsync *AsyncResult
}

// NewOrchestrator constructs an orchestrator bound to one playlist
// level. It is constructed once per level and torn down by Destroy.
func NewOrchestrator(probes *ProbeTable, events EventEmitter, clock Clock, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		logger:    logger,
		clock:     clock,
		events:    events,
		probes:    probes,
		cache:     NewChunkCache(),
		decrypter: NewDecrypter(),
		state:     &TransmuxState{},
		orchState: StateFresh,
	}
}

// Configure replaces the stored TransmuxConfig and, if a decrypter has
// been used, resets its cipher state. Does not touch demuxer/remuxer
// (configure) — repeated identical Configure calls are therefore
// observationally idempotent modulo the decrypter reset.
func (o *Orchestrator) Configure(cfg *TransmuxConfig) error {
	if o.orchState == StateTerminated {
		return ErrDestroyed
	}
	o.config = cfg
	o.decrypter.Reset()
	return nil
}

// Push implements push. It returns either a resolved Result (the
// common, synchronous case) or, when the push suspends on an
// asynchronous decryption or SAMPLE-AES demux, an AsyncResult the
// caller must Wait on before issuing further pushes.
func (o *Orchestrator) Push(data []byte, key *LevelKey, meta *ChunkMetadata, newState *TransmuxState) (*Result, *AsyncResult, error) {
	if o.orchState == StateTerminated {
		return nil, nil, ErrDestroyed
	}
	if o.config == nil {
		return nil, nil, ErrNotConfigured
	}
	if o.pendingAsync != nil {
		return nil, nil, ErrAsyncInFlight
	}

	// 1. Timing: stamp executeStart.
	meta.Timing.ExecuteStart = o.clock.NowMS()

	// 2. State apply.
	if newState != nil {
		o.state = newState
	}

	// 3. Encryption classification.
	keyData := DeriveKeyData(key)
	working := data

	if keyData != nil && keyData.Method == MethodAES128 {
		if o.config.EnableSoftwareAES {
			plaintext, ok, err := o.decrypter.SoftwareDecrypt(working, keyData.Key, keyData.IV)
			if err != nil {
				return nil, nil, fmt.Errorf("transmux: software decrypt: %w", err)
			}
			if !ok {
				meta.Timing.ExecuteEnd = o.clock.NowMS()
				res := emptyResult(meta)
				return &res, nil, nil
			}
			working = plaintext
		} else {
			outCh, errCh := o.decrypter.AsyncDecrypt(working, keyData.Key, keyData.IV)
			future := newAsyncResult()
			o.pendingAsync = future
			o.orchState = StateAwaitingDecrypt
			go func() {
				select {
				case plaintext := <-outCh:
					o.pendingAsync = nil
					if o.orchState == StateAwaitingDecrypt {
						o.orchState = StateBound
					}
					innerRes, _, err := o.Push(plaintext, nil, meta, nil)
					if err != nil {
						future.resolve(Result{}, err)
						return
					}
					future.resolve(*innerRes, nil)
				case err := <-errCh:
					o.pendingAsync = nil
					future.resolve(Result{}, err)
				}
			}()
			return nil, future, nil
		}
	}

	// 4. Reset policy.
	if o.state.Discontinuity || o.state.TrackSwitch || o.state.InitSegmentChange {
		o.resetInitSegment()
	}
	if o.state.Discontinuity || o.state.InitSegmentChange {
		o.resetInitialTimestamp()
	}
	if !o.state.Contiguous {
		o.resetContiguity()
	}

	// 5. Probing.
	if o.needsProbing(working) {
		cached := o.cache.Flush()
		if len(cached) > 0 {
			working = append(cached, working...)
		}
		o.orchState = StateProbing

		ok, err := o.configureTransmuxer(working)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			if len(cached) == 0 {
				o.cache.Append(working)
				meta.Timing.ExecuteEnd = o.clock.NowMS()
				res := emptyResult(meta)
				return &res, nil, nil
			}
			// Re-probing against a growing cache that still hasn't
			// produced a match: keep accumulating.
			o.cache.Append(working)
			meta.Timing.ExecuteEnd = o.clock.NowMS()
			res := emptyResult(meta)
			return &res, nil, nil
		}
		o.orchState = StateBound
	}

	// 6. Transmux.
	if keyData != nil && keyData.Method == MethodSampleAES {
		future := newAsyncResult()
		o.pendingAsync = future
		o.orchState = StateAwaitingDecrypt
		go func() {
			demuxFuture := o.demuxer.DemuxSampleAES(working, keyData, o.state.TimeOffset)
			demuxRes, err := demuxFuture.Wait()
			o.pendingAsync = nil
			o.orchState = StateBound
			if err != nil {
				future.resolve(Result{}, err)
				return
			}
			remuxRes, err := o.remuxer.Remux(demuxRes, o.state.TimeOffset, o.state.AccurateTimeOffset, false, "")
			if err != nil {
				future.resolve(Result{}, err)
				return
			}
			o.state.advance()
			meta.Timing.ExecuteEnd = o.clock.NowMS()
			future.resolve(Result{ChunkMeta: meta, RemuxResult: remuxRes}, nil)
		}()
		return nil, future, nil
	}

	demuxRes, err := o.demuxer.Demux(working, o.state.TimeOffset, o.state.Contiguous, !o.config.Progressive)
	if err != nil {
		return nil, nil, fmt.Errorf("transmux: demux: %w", err)
	}
	remuxRes, err := o.remuxer.Remux(demuxRes, o.state.TimeOffset, o.state.AccurateTimeOffset, false, "")
	if err != nil {
		return nil, nil, fmt.Errorf("transmux: remux: %w", err)
	}

	// 7. State advance.
	o.state.advance()

	// 8. Timing.
	meta.Timing.ExecuteEnd = o.clock.NowMS()
	return &Result{ChunkMeta: meta, RemuxResult: remuxRes}, nil, nil
}

// Flush implements flush.
func (o *Orchestrator) Flush(meta *ChunkMetadata) ([]Result, error) {
	if o.orchState == StateTerminated {
		return nil, ErrDestroyed
	}

	// 1. Wait for any in-flight async decryption, then recurse.
	if o.pendingAsync != nil {
		future := o.pendingAsync
		pending, err := future.Wait()
		if err != nil {
			return nil, fmt.Errorf("transmux: pending async push: %w", err)
		}
		_ = pending
		return o.Flush(meta)
	}

	var results []Result

	// 2. Decrypter flush residue.
	if residue, ok := o.decrypter.Flush(); ok {
		res, future, err := o.Push(residue, nil, meta, nil)
		if err != nil {
			return nil, fmt.Errorf("transmux: flushing decrypter residue: %w", err)
		}
		if future != nil {
			resolved, err := future.Wait()
			if err != nil {
				return nil, fmt.Errorf("transmux: flushing decrypter residue: %w", err)
			}
			results = append(results, resolved)
		} else {
			results = append(results, *res)
		}
	}

	// 3. Cache drain and unidentifiable-content check.
	cachedLen := o.cache.Length()
	o.cache.Reset()
	if o.demuxer == nil && cachedLen >= o.probes.MinProbeByteLength() {
		o.events.Emit(Event{
			Name: EventMediaError,
			Payload: MediaErrorPayload{
				Type:    "mediaError",
				Details: DetailFragParsingError,
				Fatal:   true,
				Reason:  fmt.Sprintf("unable to identify container in %d bytes", cachedLen),
			},
		})
		meta.Timing.ExecuteEnd = o.clock.NowMS()
		res := emptyResult(meta)
		return []Result{res}, nil
	}

	// 4. Demuxer/remuxer flush.
	if o.demuxer != nil && o.remuxer != nil {
		demuxRes, err := o.demuxer.Flush(o.state.TimeOffset)
		if err != nil {
			return nil, fmt.Errorf("transmux: demuxer flush: %w", err)
		}
		remuxRes, err := o.remuxer.Remux(demuxRes, o.state.TimeOffset, o.state.AccurateTimeOffset, true, "")
		if err != nil {
			return nil, fmt.Errorf("transmux: remuxer flush: %w", err)
		}
		results = append(results, Result{ChunkMeta: meta, RemuxResult: remuxRes})
	}

	// 5. Stamp executeEnd on the last appended result's cookie.
	if len(results) > 0 {
		results[len(results)-1].ChunkMeta.Timing.ExecuteEnd = o.clock.NowMS()
	} else {
		meta.Timing.ExecuteEnd = o.clock.NowMS()
	}

	return results, nil
}

// Destroy tears down the demuxer and remuxer if present and transitions
// to Terminated. The cache and decrypter are left for garbage
// collection along with the orchestrator itself (destroy).
func (o *Orchestrator) Destroy() {
	if o.demuxer != nil {
		o.demuxer.Destroy()
		o.demuxer = nil
	}
	if o.remuxer != nil {
		o.remuxer.Destroy()
		o.remuxer = nil
	}
	o.currentFamily = ""
	o.orchState = StateTerminated
}

// State returns the orchestrator's current position in the state
// machine of the state machine, for diagnostics and tests.
func (o *Orchestrator) State() OrchestratorState {
	return o.orchState
}

// needsProbing is true when demuxer or remuxer is absent, or when
// discontinuity/trackSwitch signals the content family may have
// changed.
func (o *Orchestrator) needsProbing(_ []byte) bool {
	if o.demuxer == nil || o.remuxer == nil {
		return true
	}
	return o.state.Discontinuity || o.state.TrackSwitch
}

// configureTransmuxer selects a probe entry for working and, if its
// family differs from the currently bound one, constructs fresh
// demuxer/remuxer instances. It returns ok=false only when working is
// shorter than the table's MinProbeByteLength; otherwise an entry is
// always selected, the passthrough fallback when no probe matches.
func (o *Orchestrator) configureTransmuxer(working []byte) (bool, error) {
	if len(working) < o.probes.MinProbeByteLength() {
		return false, nil
	}

	entry, fellBack := o.probes.SelectOrFallback(working, o.logger)
	if fellBack && o.events != nil {
		o.events.Emit(Event{Name: EventProbeFallback, Payload: ProbeFallbackPayload{ByteLength: len(working)}})
	}
	if entry.FamilyName != o.currentFamily || o.demuxer == nil || o.remuxer == nil {
		if o.demuxer != nil {
			o.demuxer.Destroy()
		}
		if o.remuxer != nil {
			o.remuxer.Destroy()
		}
		o.demuxer = entry.NewDemuxer(o.events, o.config, o.config.TypeSupported)
		o.remuxer = entry.NewRemuxer(o.events, o.config, o.config.TypeSupported, o.config.Vendor)
		o.currentFamily = entry.FamilyName
	}

	// Seed the (possibly just-constructed) instances unconditionally.
	// This runs even when the family didn't change, in addition to the
	// flag-driven reset in Push, because a fresh Configure call can
	// change init segment data without changing container family.
	o.resetInitSegment()
	o.resetInitialTimestamp()

	return true, nil
}

func (o *Orchestrator) resetInitSegment() {
	if o.demuxer == nil || o.remuxer == nil || o.config == nil {
		return
	}
	o.demuxer.ResetInitSegment(o.config.InitSegmentData, o.config.AudioCodec, o.config.VideoCodec, o.config.Duration)
	o.remuxer.ResetInitSegment(o.config.InitSegmentData, o.config.AudioCodec, o.config.VideoCodec)
}

func (o *Orchestrator) resetInitialTimestamp() {
	if o.demuxer == nil || o.remuxer == nil || o.config == nil {
		return
	}
	o.demuxer.ResetTimeStamp(o.config.DefaultInitPts)
	o.remuxer.ResetTimeStamp(o.config.DefaultInitPts)
}

func (o *Orchestrator) resetContiguity() {
	if o.demuxer == nil || o.remuxer == nil {
		return
	}
	o.demuxer.ResetContiguity()
	o.remuxer.ResetNextTimestamp()
}
