// Package transmux implements the media segment transmuxer core: a
// stateful pipeline that ingests encrypted or plain-text segment bytes,
// identifies their container format on the fly, demuxes elementary
// streams, and remuxes them into fragmented MP4 for a browser media
// source buffer.
package transmux

import (
	"errors"
)

// Sentinel errors surfaced across the public API. Per the propagation
// policy, ordinary operational conditions (insufficient data,
// unidentifiable content) are never returned as errors — they produce
// empty results or fatal events. These sentinels cover genuine misuse
// and collaborator faults instead.
var (
	// ErrNotConfigured is returned by Push when called before any
	// Configure call has taken place.
	ErrNotConfigured = errors.New("transmux: push before configure")
	// ErrAsyncInFlight is returned by Push when a caller issues a second
	// push while an asynchronous decryption or SAMPLE-AES demux future
	// from a prior push has not yet resolved.
	ErrAsyncInFlight = errors.New("transmux: async operation already in flight")
	// ErrDestroyed is returned by any call made after Destroy.
	ErrDestroyed = errors.New("transmux: orchestrator destroyed")
)

// KeyData is the resolved, orchestrator-internal encryption descriptor
// for a chunk. It is derived from a caller-supplied LevelKey only when
// every field is present and non-empty; otherwise a chunk is treated as
// clear (KeyData is nil).
type KeyData struct {
	Method string // "AES-128", "SAMPLE-AES", or another caller-defined scheme
	Key    []byte
	IV     []byte
}

// LevelKey is the caller-supplied encryption descriptor for a playlist
// level, mirroring the EXT-X-KEY tag of the external manifest. A nil or
// zero-valued LevelKey, or one missing Key/IV/Method, resolves to no
// KeyData (clear content).
type LevelKey struct {
	Method string
	Key    []byte
	IV     []byte
}

// DeriveKeyData implements the classification rule of the data model:
// a KeyData is produced only when method, key and iv are all present
// and the key material is non-empty.
func DeriveKeyData(lk *LevelKey) *KeyData {
	if lk == nil {
		return nil
	}
	if lk.Method == "" || len(lk.Key) == 0 || len(lk.IV) == 0 {
		return nil
	}
	return &KeyData{Method: lk.Method, Key: lk.Key, IV: lk.IV}
}

// Encryption method identifiers recognized by the orchestrator.
const (
	MethodAES128    = "AES-128"
	MethodSampleAES = "SAMPLE-AES"
)

// Timing records the monotonic bracket of a push or flush call, stamped
// onto the caller's ChunkMetadata cookie.
type Timing struct {
	ExecuteStart int64 // milliseconds, from the injected Clock
	ExecuteEnd   int64
}

// ChunkMetadata is opaque to the core beyond its Timing field: callers
// attach a sequence number, part index, and playlist level for their
// own bookkeeping, and the orchestrator stamps ExecuteStart/ExecuteEnd
// on it and passes it through untouched otherwise.
type ChunkMetadata struct {
	SequenceNumber int
	PartIndex      int
	Level          int
	Timing         Timing
}

// Clock supplies a monotonic millisecond source for timing stamps. A
// real host injects one backed by time.Now(); tests inject a fake for
// deterministic ExecuteStart/ExecuteEnd assertions.
type Clock interface {
	NowMS() int64
}

// Sample is a single elementary-stream access unit produced by a
// demuxer and consumed by a remuxer.
type Sample struct {
	PTS        int64
	DTS        int64
	Data       []byte
	Keyframe   bool
	Duration   int64 // in the track's timescale, 0 if unknown
}

// Track carries the demuxed samples for one elementary stream plus
// enough codec identity for the remuxer to build an init segment.
type Track struct {
	Codec     string // canonical codec.Video/codec.Audio string
	Timescale uint32
	Samples   []Sample
}

// DemuxResult is the output of a Demuxer's demux/flush call: zero or
// more of the four track kinds below. A nil Track pointer means that
// track kind produced nothing this call.
type DemuxResult struct {
	AudioTrack *Track
	VideoTrack *Track
	ID3Track   *Track
	TextTrack  *Track
}

// Empty reports whether every track of the result is absent or empty,
// used by the orchestrator to decide whether remuxing is worth doing.
func (r *DemuxResult) Empty() bool {
	if r == nil {
		return true
	}
	nonEmpty := func(t *Track) bool { return t != nil && len(t.Samples) > 0 }
	return !nonEmpty(r.AudioTrack) && !nonEmpty(r.VideoTrack) && !nonEmpty(r.ID3Track) && !nonEmpty(r.TextTrack)
}

// RemuxResult is the concrete remuxer's output payload: fragmented MP4
// bytes (init segment and/or media fragment) plus the identity of which
// kind of content they carry. The core treats the Payload as opaque
// bytes; its shape is the remuxer's contract, not the core's.
type RemuxResult struct {
	InitSegment []byte // non-nil only when an init segment was (re)emitted
	Payload     []byte // media fragment bytes, may be empty
	Independent bool   // true when Payload starts with a keyframe
}

// Result is what Push/Flush return to the host: the caller's stamped
// chunk metadata cookie and the remux output, if any.
type Result struct {
	ChunkMeta   *ChunkMetadata
	RemuxResult *RemuxResult
}

func emptyResult(meta *ChunkMetadata) Result {
	return Result{ChunkMeta: meta}
}

// AsyncResult is a single-resolution future as used by the async
// decryption and SAMPLE-AES demux suspension points: exactly one of
// Result/Err is meaningful once Done is closed.
type AsyncResult struct {
	done   chan struct{}
	result Result
	err    error
}

func newAsyncResult() *AsyncResult {
	return &AsyncResult{done: make(chan struct{})}
}

func (a *AsyncResult) resolve(res Result, err error) {
	a.result = res
	a.err = err
	close(a.done)
}

// Wait blocks until the future resolves and returns its value.
func (a *AsyncResult) Wait() (Result, error) {
	<-a.done
	return a.result, a.err
}

// Done reports whether the future has resolved without blocking.
func (a *AsyncResult) Done() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// DemuxFuture is a single-resolution future for a DemuxResult, used by
// the per-sample SAMPLE-AES suspension point.
type DemuxFuture struct {
	done   chan struct{}
	result *DemuxResult
	err    error
}

// NewDemuxFuture returns an unresolved DemuxFuture.
func NewDemuxFuture() *DemuxFuture {
	return &DemuxFuture{done: make(chan struct{})}
}

// Resolve completes the future exactly once.
func (f *DemuxFuture) Resolve(result *DemuxResult, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Wait blocks until the future resolves.
func (f *DemuxFuture) Wait() (*DemuxResult, error) {
	<-f.done
	return f.result, f.err
}

// Demuxer is the capability contract a concrete container demuxer
// (TS, fMP4, ADTS, MP3) must provide. Probe and MinProbeByteLength are
// carried on the factory/ProbeEntry rather than the instance, since
// they only ever need to run before a Demuxer is constructed.
type Demuxer interface {
	// Demux parses bytes arriving at timeOffset. contiguous mirrors the
	// TransmuxState flag; flush requests any buffered partial samples be
	// emitted as final.
	Demux(data []byte, timeOffset float64, contiguous bool, flush bool) (*DemuxResult, error)
	// DemuxSampleAES decrypts and demuxes per sample, returning a future
	// since per-sample decryption may be asynchronous.
	DemuxSampleAES(data []byte, key *KeyData, timeOffset float64) *DemuxFuture
	// Flush finalizes any buffered state at segment end.
	Flush(timeOffset float64) (*DemuxResult, error)
	ResetInitSegment(initSegmentData []byte, audioCodec, videoCodec string, trackDuration float64)
	ResetTimeStamp(defaultInitPts int64)
	ResetContiguity()
	Destroy()
}

// Remuxer is the capability contract a concrete remuxer (to-fMP4,
// passthrough) must provide.
type Remuxer interface {
	Remux(result *DemuxResult, timeOffset float64, accurateTimeOffset bool, flush bool, id string) (*RemuxResult, error)
	ResetInitSegment(initSegmentData []byte, audioCodec, videoCodec string)
	ResetTimeStamp(defaultInitPts int64)
	ResetNextTimestamp()
	Destroy()
}

// DemuxerFactory constructs a Demuxer bound to one orchestrator
// instance's configuration and capability set.
type DemuxerFactory func(observer EventEmitter, config *TransmuxConfig, typeSupported map[string]bool) Demuxer

// RemuxerFactory constructs a Remuxer bound to one orchestrator
// instance's configuration, capability set, and vendor descriptor.
type RemuxerFactory func(observer EventEmitter, config *TransmuxConfig, typeSupported map[string]bool, vendor string) Remuxer

// Event categories emitted on the EventEmitter.
const (
	EventMediaError        = "mediaError"
	DetailFragParsingError = "fragParsingError"
	EventProbeFallback     = "probeFallback" // non-fatal, informational
)

// Event is a single emission on the shared event bus. Payload shape
// for EventMediaError follows MediaErrorPayload below; other event
// names carry whatever payload the emitting component defines.
type Event struct {
	Name    string
	Payload any
}

// MediaErrorPayload is the payload shape for EventMediaError emissions.
type MediaErrorPayload struct {
	Type    string
	Details string
	Fatal   bool
	Reason  string
}

// ProbeFallbackPayload is the payload for the non-fatal EventProbeFallback
// emission, raised whenever the probe table had to use its passthrough
// fallback instead of a genuine match.
type ProbeFallbackPayload struct {
	ByteLength int
}

// EventEmitter is the one-way event bus shared with the host, borrowed
// by the orchestrator and its collaborators (never owned, never closed
// by this package).
type EventEmitter interface {
	Emit(Event)
}
