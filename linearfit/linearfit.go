// Package linearfit implements a windowed linear least-squares tracker over
// uniformly spaced scalar samples, updated in O(1) per sample.
//
// The tracker assumes samples arrive at a fixed spacing (xdelta) and keeps a
// running sum and running weighted sum that let it recompute the best-fit
// line's value at the newest x-position without ever re-summing the whole
// window. See Tracker.Next for the update equations.
package linearfit

// rebuildInterval is how often the running sums are recomputed from scratch
// from the stored window, to bound accumulated floating point drift.
const rebuildInterval = 1 << 20

// Tracker maintains a windowed linear fit y = m*x + b over the most recent
// n <= capacity samples, assumed spaced xdelta apart on the x-axis.
type Tracker struct {
	window    []float32 // oldest first
	m, b      float32
	ySum      float64
	xySum     float64
	n         int     // current window capacity (phaseAvg)
	xdelta    float32 // sample spacing
	denom     float32 // cached denominator, depends only on len(window) and xdelta
	xAvg      float32 // cached x-mean, depends only on len(window) and xdelta
	sinceSync int     // calls to Next since the last full rebuild
}

// New creates a tracker with a window capacity of numPts samples spaced
// 1/sampleRate apart.
func New(numPts int, sampleRate float32) *Tracker {
	t := &Tracker{
		n:      numPts,
		xdelta: 1.0 / sampleRate,
	}
	t.window = make([]float32, 0, numPts)
	return t
}

// Next incorporates y as the newest sample and returns the fitted value at
// the newest x-position, x = (len-1)*xdelta.
func (t *Tracker) Next(y float32) float32 {
	if t.sinceSync == rebuildInterval {
		t.Reset(nil, nil, false)
	}

	full := len(t.window) == t.n
	if full {
		// Evict the oldest point and shift the x-axis so the new oldest
		// point sits at x=0. Order matters: ySum must reflect the eviction
		// before it is used to compute the x-shift contribution.
		t.ySum -= float64(t.window[0])
		t.window = t.window[1:]
		t.xySum -= float64(t.xdelta) * t.ySum
	}

	// The new sample is appended at index len(window) (pre-append), i.e.
	// at x = len(window)*xdelta.
	t.xySum += float64(y) * float64(t.xdelta) * float64(len(t.window))
	t.ySum += float64(y)
	t.window = append(t.window, y)

	if !full {
		t.calculateDenominator()
	}

	t.sinceSync++
	return t.calculateFit()
}

// Reset updates the window capacity and/or sample spacing. A nil argument
// leaves that field unchanged. Whenever sampleRate changes to a new value
// the history is cleared, since the x-axis has been rescaled. Returns the
// refitted current value.
func (t *Tracker) Reset(numPts *int, sampleRate *float32, forceClear bool) float32 {
	if sampleRate != nil {
		newXdelta := 1.0 / *sampleRate
		if t.xdelta != newXdelta {
			t.xdelta = newXdelta
			forceClear = true
		}
	}
	if forceClear {
		t.window = t.window[:0]
	}

	if numPts != nil && *numPts != t.n {
		t.n = *numPts
		for len(t.window) > t.n {
			t.window = t.window[1:]
		}
	}

	t.ySum = 0
	t.xySum = 0
	for i, y := range t.window {
		t.ySum += float64(y)
		t.xySum += float64(i) * float64(t.xdelta) * float64(y)
	}
	t.calculateDenominator()
	t.sinceSync = 0
	return t.calculateFit()
}

// SubtractConst subtracts c from every stored sample and from the fit
// state, then refits. Used to periodically wrap an unbounded phase estimate
// back into a bounded range without discarding fit history.
func (t *Tracker) SubtractConst(c float32) float32 {
	for i := range t.window {
		t.window[i] -= c
	}
	return t.Reset(nil, nil, false)
}

// Len reports the number of samples currently held in the window.
func (t *Tracker) Len() int { return len(t.window) }

// Cap reports the configured window capacity (phaseAvg).
func (t *Tracker) Cap() int { return t.n }

func (t *Tracker) calculateFit() float32 {
	pts := len(t.window)
	if pts > 1 {
		ptsM1 := float32(pts - 1)
		numerator := t.xySum - float64(t.xdelta)*float64(ptsM1)/2*t.ySum
		t.m = float32(numerator / float64(t.denom))
		t.b = float32(t.ySum/float64(pts)) - t.m*t.xAvg

		x := t.xdelta * ptsM1
		return t.m*x + t.b
	}

	t.m = 0
	if pts == 0 {
		t.b = 0
	} else {
		t.b = t.window[len(t.window)-1]
	}
	return t.b
}

func (t *Tracker) calculateDenominator() {
	pts := len(t.window)
	if pts <= 1 {
		return
	}
	ptsM1 := float32(pts - 1)
	n := float32(pts)
	t.denom = t.xdelta * t.xdelta * (ptsM1*ptsM1*ptsM1/3 + ptsM1*ptsM1/2 + ptsM1/6 - ptsM1*ptsM1*n/4)
	t.xAvg = t.xdelta * ptsM1 / 2
}
