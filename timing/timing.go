// Package timing implements symbol-timing recovery: picking the
// intra-symbol sample index with the highest average energy over a
// trailing window of symbols.
package timing

import "github.com/chewxy/math32"

// rebuildInterval bounds how often the per-position energy accumulator is
// rebuilt from scratch from the raw energy buffer, to cancel floating point
// drift accumulated by the incremental add/subtract updates.
const rebuildInterval = 1 << 20

// Decision is the output of one symbol-epoch's worth of buffered samples.
type Decision struct {
	Sample   complex64
	Index    int  // chosen intra-symbol position, 0..samplesPerBaud-1
	HasIndex bool // false when samplesPerBaud==1: no sampleIndex is emitted
}

// Recovery accumulates per-position energies over a sliding window of
// numAvg symbols and, once the window is full, emits the sample at the
// highest-energy position for each symbol epoch.
type Recovery struct {
	samplesPerBaud int
	numAvg         int

	samples []complex64 // SampleBuffer
	energy  []float32   // EnergyBuffer, parallel to samples
	symE    []float32   // SymbolEnergy, len == samplesPerBaud

	index int // intra-symbol counter, 0..samplesPerBaud-1
	count int // symbols emitted since the last drift rebuild
}

// New creates a timing recovery stage for the given oversampling factor and
// averaging window length (in symbols).
func New(samplesPerBaud, numAvg int) *Recovery {
	r := &Recovery{}
	r.Resync(samplesPerBaud, numAvg)
	return r
}

// SamplesPerBaud reports the current oversampling factor of the live,
// synced buffer (as opposed to any pending, not-yet-applied Configure
// value).
func (r *Recovery) SamplesPerBaud() int { return r.samplesPerBaud }

// NumAvg reports the current averaging window length, in symbols, of the
// live, synced buffer.
func (r *Recovery) NumAvg() int { return r.numAvg }

// NumDataPts is samplesPerBaud * numAvg, the buffer capacity in samples.
func (r *Recovery) NumDataPts() int { return r.samplesPerBaud * r.numAvg }

// Len reports the number of samples currently buffered.
func (r *Recovery) Len() int { return len(r.samples) }

// Resync reassigns the per-position energy accumulator to the new
// oversampling factor, truncates the sample/energy buffers to at most
// samplesPerBaud*numAvg entries, and rebuilds the accumulator from the
// (possibly truncated) energy buffer. Used both on construction and
// whenever samplesPerBaud or numAvg change (spec.md §4.5, timing reset).
func (r *Recovery) Resync(samplesPerBaud, numAvg int) {
	r.samplesPerBaud = samplesPerBaud
	r.numAvg = numAvg
	numDataPts := samplesPerBaud * numAvg

	r.symE = make([]float32, samplesPerBaud)

	if len(r.samples) > numDataPts {
		r.samples = r.samples[:numDataPts]
		r.energy = r.energy[:numDataPts]
	}

	r.index = 0
	for _, e := range r.energy {
		r.symE[r.index] += e
		r.index++
		if r.index == samplesPerBaud {
			r.index = 0
		}
	}
	r.count = 0
}

// Push feeds one complex sample into the recovery stage. When samplesPerBaud
// is 1 the sample is passed through immediately with ok=true and no index is
// meaningful (emitted Index is always 0). Otherwise a Decision is emitted
// only once every symbol boundary, and only once the window holds a full
// samplesPerBaud*numAvg samples.
func (r *Recovery) Push(s complex64) (Decision, bool) {
	if r.samplesPerBaud == 1 {
		return Decision{Sample: s, HasIndex: false}, true
	}

	re, im := real(s), imag(s)
	e := re*re + im*im
	r.samples = append(r.samples, s)
	r.energy = append(r.energy, e)
	r.symE[r.index] += e

	var decision Decision
	emitted := false

	if r.index == r.samplesPerBaud-1 {
		if len(r.samples) == r.NumDataPts() {
			idx := argmax(r.symE)
			decision = Decision{Sample: r.samples[idx], Index: idx, HasIndex: true}
			emitted = true

			// Drop the oldest symbol's samples/energies and subtract their
			// contribution from the accumulator.
			for k := 0; k < r.samplesPerBaud; k++ {
				r.symE[k] -= r.energy[k]
			}
			r.samples = r.samples[r.samplesPerBaud:]
			r.energy = r.energy[r.samplesPerBaud:]

			r.count++
			if r.count == rebuildInterval {
				r.rebuildSymbolEnergy()
			}
		}
		r.index = 0
	} else {
		r.index++
	}

	return decision, emitted
}

// argmax returns the index of the largest value, ties broken by the lowest
// index (matching std::max_element semantics used by the original).
func argmax(v []float32) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func (r *Recovery) rebuildSymbolEnergy() {
	for i := range r.symE {
		r.symE[i] = 0
	}
	idx := 0
	for _, e := range r.energy {
		r.symE[idx] += e
		idx++
		if idx == r.samplesPerBaud {
			idx = 0
		}
	}
	r.count = 0
}

// CheckInvariant recomputes SymbolEnergy from EnergyBuffer from scratch and
// reports the maximum relative deviation from the live accumulator,
// supporting spec.md §8 invariant 2. Intended for use from tests.
func (r *Recovery) CheckInvariant() float32 {
	want := make([]float32, r.samplesPerBaud)
	idx := 0
	for _, e := range r.energy {
		want[idx] += e
		idx++
		if idx == r.samplesPerBaud {
			idx = 0
		}
	}
	var maxRel float32
	for i := range want {
		d := math32.Abs(want[i] - r.symE[i])
		denom := math32.Abs(want[i]) + 1e-9
		if rel := d / denom; rel > maxRel {
			maxRel = rel
		}
	}
	return maxRel
}
