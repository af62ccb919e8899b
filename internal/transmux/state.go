package transmux

// TransmuxConfig is set by Configure and immutable between Configure
// calls. It carries the orchestrator's construction-time and
// per-level settings.
type TransmuxConfig struct {
	AudioCodec      string // canonical codec.Audio string, empty if unknown
	VideoCodec      string // canonical codec.Video string, empty if unknown
	InitSegmentData []byte // caller-supplied init segment bytes, nil if none
	Duration        float64
	DefaultInitPts  int64 // 0 if unset

	// EnableSoftwareAES selects between progressive software and async
	// single-shot AES-128 decryption.
	EnableSoftwareAES bool
	// Progressive is passed inverted to Demux as the flush flag for
	// non-progressive delivery.
	Progressive bool
	// TypeSupported and Vendor are opaque capability descriptors
	// forwarded to demuxer/remuxer factories.
	TypeSupported map[string]bool
	Vendor        string
}

// TransmuxState is updated on each Push. After a successful push
// the orchestrator advances Contiguous/Discontinuity/TrackSwitch so
// subsequent chunks of the same segment skip resets (a successful push).
type TransmuxState struct {
	Discontinuity      bool
	Contiguous         bool
	AccurateTimeOffset bool
	TrackSwitch        bool
	TimeOffset         float64
	InitSegmentChange  bool
}

// advance applies the post-push state transition of a successful push.
func (s *TransmuxState) advance() {
	s.Contiguous = true
	s.Discontinuity = false
	s.TrackSwitch = false
}
