package linearfit

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
)

func rebuildSums(t *Tracker) (ySum, xySum float64) {
	for i, y := range t.window {
		ySum += float64(y)
		xySum += float64(i) * float64(t.xdelta) * float64(y)
	}
	return
}

func assertClose(t *testing.T, got, want float32, tol float32, msg string) {
	t.Helper()
	if math32.Abs(got-want) > tol {
		t.Errorf("%s: got %v want %v", msg, got, want)
	}
}

func TestDegenerateCases(t *testing.T) {
	tr := New(4, 1.0)
	if got := tr.Next(5); got != 5 {
		t.Errorf("n=1 should return the single sample, got %v", got)
	}
}

func TestEmptyTrackerValue(t *testing.T) {
	tr := New(4, 1.0)
	if got := tr.calculateFit(); got != 0 {
		t.Errorf("empty tracker should fit to 0, got %v", got)
	}
}

func TestConstantSignalFitsToConstant(t *testing.T) {
	tr := New(5, 1.0)
	var last float32
	for i := 0; i < 20; i++ {
		last = tr.Next(3.0)
	}
	assertClose(t, last, 3.0, 1e-4, "constant signal")
}

func TestLinearRampFitsSlope(t *testing.T) {
	tr := New(10, 1.0) // xdelta = 1
	var last float32
	for i := 0; i < 30; i++ {
		last = tr.Next(float32(i) * 2.0) // y = 2x
	}
	// at steady state window covers x in [last-9, last]; fit should recover slope 2
	assertClose(t, tr.m, 2.0, 1e-2, "slope")
	_ = last
}

func TestIncrementalMatchesRebuild(t *testing.T) {
	tr := New(7, 3.0)
	for i := 0; i < 5000; i++ {
		tr.Next(math32.Sin(float32(i) * 0.01))
		wantY, wantXY := rebuildSums(tr)
		if math.Abs(wantY-tr.ySum) > 1e-3*(math.Abs(wantY)+1) {
			t.Fatalf("ySum drifted at i=%d: got %v want %v", i, tr.ySum, wantY)
		}
		if math.Abs(wantXY-tr.xySum) > 1e-3*(math.Abs(wantXY)+1) {
			t.Fatalf("xySum drifted at i=%d: got %v want %v", i, tr.xySum, wantXY)
		}
	}
}

func TestResetClearsHistoryOnSampleRateChange(t *testing.T) {
	tr := New(5, 1.0)
	for i := 0; i < 5; i++ {
		tr.Next(float32(i))
	}
	if tr.Len() != 5 {
		t.Fatalf("expected full window, got %d", tr.Len())
	}
	newRate := float32(2.0)
	tr.Reset(nil, &newRate, false)
	if tr.Len() != 0 {
		t.Errorf("changing sample rate should clear history, len=%d", tr.Len())
	}
}

func TestResetIdempotent(t *testing.T) {
	tr := New(5, 1.0)
	for i := 0; i < 5; i++ {
		tr.Next(float32(i))
	}
	v1 := tr.Reset(nil, nil, false)
	v2 := tr.Reset(nil, nil, false)
	if v1 != v2 {
		t.Errorf("reset should be idempotent: %v != %v", v1, v2)
	}
}

func TestResetShrinkTruncatesFront(t *testing.T) {
	tr := New(5, 1.0)
	for i := 0; i < 5; i++ {
		tr.Next(float32(i)) // 0,1,2,3,4
	}
	n := 3
	tr.Reset(&n, nil, false)
	if tr.Len() != 3 {
		t.Fatalf("expected len 3 after shrink, got %d", tr.Len())
	}
	if tr.window[0] != 2 {
		t.Errorf("shrink should truncate from the front, got first=%v", tr.window[0])
	}
}

func TestSubtractConst(t *testing.T) {
	tr := New(5, 1.0)
	for i := 0; i < 5; i++ {
		tr.Next(10 + float32(i))
	}
	before := tr.calculateFit()
	got := tr.SubtractConst(10)
	assertClose(t, got, before-10, 1e-3, "subtractConst should shift fit by the constant")
}

func TestDriftRebuildPreservesInvariant(t *testing.T) {
	tr := New(4, 10.0)
	for i := 0; i < rebuildInterval+10; i++ {
		tr.Next(math32.Cos(float32(i) * 0.001))
	}
	wantY, wantXY := rebuildSums(tr)
	if math.Abs(wantY-tr.ySum) > 1e-2*(math.Abs(wantY)+1) {
		t.Errorf("ySum off after drift rebuild boundary: got %v want %v", tr.ySum, wantY)
	}
	if math.Abs(wantXY-tr.xySum) > 1e-2*(math.Abs(wantXY)+1) {
		t.Errorf("xySum off after drift rebuild boundary: got %v want %v", tr.xySum, wantXY)
	}
}
