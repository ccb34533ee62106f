package pskdemod

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/rs/zerolog"

	"github.com/itohio/pskdemod/bitmap"
	"github.com/itohio/pskdemod/linearfit"
	"github.com/itohio/pskdemod/pkg/logger"
	"github.com/itohio/pskdemod/timing"
)

const twoPi = 2 * math32.Pi

// Demodulator is the single-input, four-output dataflow core described in
// spec.md §2: symbol-timing recovery feeds a phase estimator, which feeds
// the symbol corrector, which feeds the bit mapper. It is a plain type: no
// goroutine, no port. Push runs one packet through the full pipeline
// synchronously; Configure flips dirty flags that are only materialized at
// the top of the next Push (spec.md §5).
type Demodulator struct {
	log zerolog.Logger

	mu      sync.Mutex // guards cfg, the dirty flags and the resets they trigger; Push releases it before the per-sample loop
	cfg     Config
	dirty   dirtyFlags
	applied Config // the configuration actually in effect for the running stages

	timing     *timing.Recovery
	phase      *linearfit.Tracker
	phaseEst   float32
	sampleRate float64 // last-seen input xdelta, compared against new packets
	lastSample complex64
}

type dirtyFlags struct {
	samplesPerBaud bool
	numSymbols     bool
	phaseAvg       bool
}

// New constructs a Demodulator with the spec.md §6 defaults, overridden by
// any supplied options.
func New(opts ...Option) (*Demodulator, error) {
	cfg := DefaultConfig()
	applyOptions(&cfg, opts...)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	d := &Demodulator{
		log:     logger.Log,
		cfg:     cfg,
		applied: cfg,
	}
	d.timing = timing.New(cfg.SamplesPerBaud, cfg.NumAvg)
	d.phase = linearfit.New(cfg.PhaseAvg, 1.0) // rate updated once real xdelta arrives
	return d, nil
}

// SetLogger overrides the logger used for warnings and debug traces. Logging
// is not a Config field: it's orthogonal to demodulation behavior, so it
// isn't routed through Configure or the functional Option set.
func (d *Demodulator) SetLogger(l zerolog.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = l
}

// Push runs one input packet through the full pipeline and returns
// everything it produced. Push is not safe to call concurrently with
// itself, matching the single-threaded worker model of spec.md §5;
// Configure is safe to call from another goroutine at any time.
func (d *Demodulator) Push(pkt InputPacket) (Result, error) {
	if pkt.QueueFlushed {
		d.log.Warn().Msg("input queue flushed - data has been thrown on the floor, flushing internal buffers")
		d.mu.Lock()
		d.cfg.ResetState = true
		d.mu.Unlock()
	}

	if pkt.SRI.Mode != 1 {
		d.log.Warn().Msg("cannot work with real-mode data, dropping packet")
		return Result{Error: errRealModePacketDropped}, nil
	}

	d.mu.Lock()
	if d.cfg.ResetState {
		d.log.Debug().Msg("resetState: engaging full reset")
		d.dirty.samplesPerBaud = true
		d.dirty.numSymbols = true
		d.dirty.phaseAvg = true
		d.cfg.ResetState = false
	}
	cfg := d.cfg
	dirty := d.dirty

	// Capture packet-local immutables so a mid-packet Configure can't
	// produce inconsistent derived quantities within this packet.
	samplesPerSymbol := cfg.SamplesPerBaud
	numDataPts := samplesPerSymbol * cfg.NumAvg
	numSyms := cfg.ConstelationSize

	if numDataPts > d.timing.Len() {
		dirty.samplesPerBaud = true
	}

	bitsPerBaud := bitmap.BitsPerBaud(numSyms)

	var sriUpdate *SRIUpdate
	if pkt.SRIChanged || dirty.numSymbols || dirty.samplesPerBaud {
		if pkt.SRI.Xdelta != d.sampleRate {
			d.sampleRate = pkt.SRI.Xdelta
			rate := float32(1.0 / d.sampleRate)
			// phaseEst is intentionally left alone here: it only evolves from
			// a symbol decision (correct) or the per-packet detrend
			// (detrendPhase), never from a reconfiguration reset.
			d.phase.Reset(nil, &rate, false)
		}

		softXdelta := pkt.SRI.Xdelta * float64(samplesPerSymbol)
		u := SRIUpdate{
			SoftDecision: pkt.SRI.WithXdelta(softXdelta),
			Phase:        pkt.SRI.WithXdelta(softXdelta).WithMode(0),
		}
		if bitsPerBaud > 0 {
			u.Bits = pkt.SRI.WithXdelta(softXdelta / float64(bitsPerBaud))
			u.HasBits = true
		}
		sriUpdate = &u
	}

	if dirty.samplesPerBaud {
		d.timing.Resync(samplesPerSymbol, cfg.NumAvg)
		dirty.samplesPerBaud = false
	}
	if dirty.numSymbols {
		d.phase.Reset(nil, nil, true)
		dirty.numSymbols = false
	}
	if dirty.phaseAvg {
		numPts := cfg.PhaseAvg
		d.phase.Reset(&numPts, nil, false)
		dirty.phaseAvg = false
	}

	d.dirty = dirty
	d.applied = cfg
	d.mu.Unlock()

	res := Result{SRI: sriUpdate}
	if bitsPerBaud == 0 {
		res.Error = errUnsupportedConstellation
	}
	out := make([]complex64, 0, len(pkt.Samples)/samplesPerSymbol+1)
	phaseOut := make([]float32, 0, cap(out))
	var bits []int16
	var sampleIdx []int16

	for _, s := range pkt.Samples {
		decision, emitted := d.timing.Push(s)
		if !emitted {
			continue
		}

		if decision.HasIndex {
			sampleIdx = append(sampleIdx, int16(decision.Index))
		}

		corrected, phaseVal := d.correct(decision.Sample, numSyms, cfg.DifferentialDecoding)
		out = append(out, corrected)
		phaseOut = append(phaseOut, phaseVal)

		if symBits, ok := bitmap.Map(numSyms, corrected); ok {
			for _, b := range symBits {
				bits = append(bits, int16(b))
			}
		} else {
			d.log.Warn().Int("constelationSize", numSyms).Msg("unsupported constellation size, no bits out")
		}
	}

	d.detrendPhase(numSyms)

	res.SoftDecision = out
	res.Phase = phaseOut
	res.Bits = bits
	res.SampleIndex = sampleIdx
	return res, nil
}

// correct implements spec.md §4.3: raise to the M-th power, unwrap against
// the previous estimate, feed the linear-fit tracker, and rotate (or
// differentially decode) the chosen symbol.
func (d *Demodulator) correct(sample complex64, numSyms int, differential bool) (complex64, float32) {
	raised := cpow(sample, numSyms)
	theta := math32.Atan2(imag(raised), real(raised))

	numWraps := math32.Round((d.phaseEst - theta) / twoPi)
	theta += numWraps * twoPi

	d.phaseEst = d.phase.Next(theta)

	// The M==4 rotation by pi/4 below is applied unconditionally, even in
	// differential mode, matching the original's literal control flow: it
	// places the constellation at (+/-1,+/-j) rather than on the axes
	// regardless of which decoding scheme chose workingSample.
	workingSample := sample
	var phaseCorrection float32
	if differential {
		workingSample = cdiv(sample, d.lastSample)
		d.lastSample = sample
	} else {
		phaseCorrection = -d.phaseEst / float32(numSyms)
	}
	if numSyms == 4 {
		phaseCorrection += math32.Pi / 4
	}
	rot := cpolar(1.0, phaseCorrection)
	corrected := workingSample * rot

	return corrected, d.phaseEst
}

// detrendPhase implements spec.md §4.3 step 5: keep the running phase
// estimate bounded by wrapping at M*2*pi (not 2*pi — wrapping at 2*pi would
// introduce a 2*pi/M offset on the corrected output, since phaseEst lives in
// the M-fold phase domain).
func (d *Demodulator) detrendPhase(numSyms int) {
	wrapValue := twoPi * float32(numSyms)
	if math32.Abs(d.phaseEst) <= wrapValue {
		return
	}
	numWraps := math32.Round(d.phaseEst / wrapValue)
	d.phaseEst = d.phase.SubtractConst(numWraps * wrapValue)
}

func cpow(s complex64, n int) complex64 {
	r := complex64(1)
	for i := 0; i < n; i++ {
		r *= s
	}
	return r
}

func cdiv(a, b complex64) complex64 {
	if b == 0 {
		return 0
	}
	denom := real(b)*real(b) + imag(b)*imag(b)
	re := (real(a)*real(b) + imag(a)*imag(b)) / denom
	im := (imag(a)*real(b) - real(a)*imag(b)) / denom
	return complex(re, im)
}

func cpolar(mag, phase float32) complex64 {
	return complex(mag*math32.Cos(phase), mag*math32.Sin(phase))
}
