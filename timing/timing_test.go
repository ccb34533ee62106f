package timing

import "testing"

func TestPassthroughWhenUnoversampled(t *testing.T) {
	r := New(1, 1)
	d, ok := r.Push(complex(1, 0))
	if !ok {
		t.Fatal("expected immediate emission when samplesPerBaud==1")
	}
	if d.HasIndex {
		t.Error("samplesPerBaud==1 must not emit a sampleIndex")
	}
	if d.Sample != complex(1, 0) {
		t.Errorf("passthrough should return the input sample unchanged, got %v", d.Sample)
	}
}

func TestBufferFillsBeforeEmitting(t *testing.T) {
	r := New(4, 2)
	emitted := false
	for i := 0; i < 4; i++ { // one symbol's worth, window not yet full (needs 2 symbols)
		_, ok := r.Push(complex(float32(i), 0))
		emitted = emitted || ok
	}
	if emitted {
		t.Error("should not emit before samplesPerBaud*numAvg samples are buffered")
	}
}

func TestChoosesHighestEnergyPosition(t *testing.T) {
	const spb, numAvg = 4, 2
	r := New(spb, numAvg)
	// Ramp energy within each symbol so position 2 always wins, repeated for
	// 2 symbols so the window fills.
	ramp := []complex64{0.2, 0.5, 1.0, 0.5}
	var last Decision
	var gotEmit bool
	for sym := 0; sym < 2; sym++ {
		for _, a := range ramp {
			d, ok := r.Push(a)
			if ok {
				last = d
				gotEmit = true
			}
		}
	}
	if !gotEmit {
		t.Fatal("expected an emission once the window filled")
	}
	if last.Index != 2 {
		t.Errorf("expected chosen index 2, got %d", last.Index)
	}
	if !last.HasIndex {
		t.Error("expected HasIndex true when samplesPerBaud>1")
	}
}

func TestInvariantHoldsAcrossManySymbols(t *testing.T) {
	r := New(5, 3)
	for i := 0; i < 1000; i++ {
		r.Push(complex(float32(i%7)-3, float32(i%5)-2))
		if rel := r.CheckInvariant(); rel > 1e-3 {
			t.Fatalf("symbolEnergy invariant violated at sample %d: relative error %v", i, rel)
		}
		if r.Len() > r.NumDataPts() {
			t.Fatalf("buffer exceeded cap at sample %d: len=%d cap=%d", i, r.Len(), r.NumDataPts())
		}
	}
}

func TestResyncTruncatesOnShrink(t *testing.T) {
	r := New(4, 10)
	for i := 0; i < 39; i++ { // fill most of the buffer without emitting
		r.Push(complex(float32(i), 0))
	}
	if r.Len() == 0 {
		t.Fatal("expected buffered samples before resync")
	}
	r.Resync(4, 2) // shrink numDataPts to 8
	if r.Len() > r.NumDataPts() {
		t.Errorf("resync should truncate to new cap: len=%d cap=%d", r.Len(), r.NumDataPts())
	}
	if rel := r.CheckInvariant(); rel > 1e-3 {
		t.Errorf("symbolEnergy should be rebuilt after resync, relative error %v", rel)
	}
}

func TestTiesBreakToLowestIndex(t *testing.T) {
	const spb, numAvg = 3, 1
	r := New(spb, numAvg)
	// All positions have identical energy -> argmax should pick index 0.
	var last Decision
	for i := 0; i < spb; i++ {
		d, ok := r.Push(complex(1, 0))
		if ok {
			last = d
		}
	}
	if last.Index != 0 {
		t.Errorf("ties should break to the lowest index, got %d", last.Index)
	}
}
