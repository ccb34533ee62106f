// Package pskdemod implements a streaming soft-decision demodulator for
// BPSK, QPSK and 8PSK complex baseband signals: symbol-timing recovery,
// an O(1)-per-sample windowed phase tracker, phase correction with optional
// differential decoding, and a Gray-adjacent bit mapper.
//
// The package is a plain Go type exposing Push and Configure; it owns no
// thread, no port, and no transport. A thin adapter (see the sibling
// pipeline package) wires it into a run loop.
package pskdemod

import "fmt"

// StreamSRI carries the subset of stream metadata the core consults or
// republishes: stream identity, sample interval, and real/complex mode.
type StreamSRI struct {
	StreamID string
	Xdelta   float64 // seconds per sample
	Mode     int     // 1 = complex, 0 = real
}

// WithXdelta returns a copy of the SRI with Xdelta replaced, used when
// republishing decimated metadata on an output port.
func (s StreamSRI) WithXdelta(xdelta float64) StreamSRI {
	s.Xdelta = xdelta
	return s
}

// WithMode returns a copy of the SRI with Mode replaced.
func (s StreamSRI) WithMode(mode int) StreamSRI {
	s.Mode = mode
	return s
}

// InputPacket is one unit of work: a batch of complex baseband samples plus
// the stream bookkeeping flags described in spec.md §3.
type InputPacket struct {
	Samples      []complex64
	SRI          StreamSRI
	Timestamp    float64
	EOS          bool
	SRIChanged   bool // metadata differs from the previous packet on this stream
	QueueFlushed bool // upstream dropped samples ahead of this packet
}

// SRIUpdate carries the three per-port SRI republications emitted together
// whenever input SRIChanged or a symbol-count/timing reset is pending
// (spec.md §4.5).
type SRIUpdate struct {
	SoftDecision StreamSRI
	Phase        StreamSRI
	Bits         StreamSRI
	HasBits      bool // false when the constellation size is unsupported
}

// Result is everything one Push call may have produced.
type Result struct {
	SoftDecision []complex64
	Bits         []int16
	Phase        []float32
	SampleIndex  []int16

	SRI   *SRIUpdate
	Error error // non-fatal diagnostic: a dropped real-mode packet or an unsupported constellation size seen this Push
}

// errInvalidSamplesPerBaud etc. are returned by constructors / Configure for
// genuinely invalid configuration, as opposed to the data-driven anomalies
// handled internally per spec.md §7.
var (
	errInvalidSamplesPerBaud    = fmt.Errorf("pskdemod: samplesPerBaud must be >= 1")
	errInvalidNumAvg            = fmt.Errorf("pskdemod: numAvg must be >= 1")
	errInvalidPhaseAvg          = fmt.Errorf("pskdemod: phaseAvg must be >= 1")
	errUnknownOption            = fmt.Errorf("pskdemod: unknown configuration option")
	errWrongOptionType          = fmt.Errorf("pskdemod: wrong type for configuration option")
	errRealModePacketDropped    = fmt.Errorf("pskdemod: real-mode packet dropped, demodulator requires complex samples")
	errUnsupportedConstellation = fmt.Errorf("pskdemod: unsupported constellation size, bits port skipped")
)
