package bitmap

import (
	"math"
	"testing"
)

func TestBPSKMapping(t *testing.T) {
	cases := []struct {
		sym  complex64
		want []int
	}{
		{complex(1, 0), []int{0}},
		{complex(-1, 0), []int{1}},
	}
	for _, c := range cases {
		got, ok := Map(2, c.sym)
		if !ok {
			t.Fatalf("M=2 should be supported")
		}
		if got[0] != c.want[0] {
			t.Errorf("Map(2, %v) = %v, want %v", c.sym, got, c.want)
		}
	}
}

func TestQPSKMapping(t *testing.T) {
	// Bits are r xor i, then not i (LSB first), so as emitted:
	// A=(+,+)->[0,0] B=(-,+)->[1,0] C=(-,-)->[0,1] D=(+,-)->[1,1]
	cases := []struct {
		sym  complex64
		want []int
	}{
		{complex(1, 1), []int{0, 0}},
		{complex(-1, 1), []int{1, 0}},
		{complex(-1, -1), []int{0, 1}},
		{complex(1, -1), []int{1, 1}},
	}
	for _, c := range cases {
		got, ok := Map(4, c.sym)
		if !ok {
			t.Fatalf("M=4 should be supported")
		}
		if got[0] != c.want[0] || got[1] != c.want[1] {
			t.Errorf("Map(4, %v) = %v, want %v", c.sym, got, c.want)
		}
	}
}

func TestEightPSKSpotCheck(t *testing.T) {
	want := [][]int{
		{0, 0, 0}, // 0
		{1, 0, 0}, // pi/4
		{0, 1, 0}, // pi/2
		{1, 1, 0}, // 3pi/4
		{0, 0, 1}, // pi
		{1, 0, 1}, // 5pi/4
		{0, 1, 1}, // 3pi/2
		{1, 1, 1}, // 7pi/4
	}
	for i, w := range want {
		theta := float64(i) * math.Pi / 4
		sym := complex64(complex(float32(math.Cos(theta)), float32(math.Sin(theta))))
		got, ok := Map(8, sym)
		if !ok {
			t.Fatalf("M=8 should be supported")
		}
		for j := range w {
			if got[j] != w[j] {
				t.Errorf("angle %d*pi/4: Map(8, %v) = %v, want %v", i, sym, got, w)
				break
			}
		}
	}
}

func TestUnsupportedConstellationSilent(t *testing.T) {
	if _, ok := Map(16, complex(1, 0)); ok {
		t.Error("M=16 should not be supported")
	}
	if BitsPerBaud(16) != 0 {
		t.Error("BitsPerBaud should be 0 for unsupported M")
	}
}

func TestBitsPerBaud(t *testing.T) {
	cases := map[int]int{2: 1, 4: 2, 8: 3, 3: 0, 0: 0}
	for m, want := range cases {
		if got := BitsPerBaud(m); got != want {
			t.Errorf("BitsPerBaud(%d) = %d, want %d", m, got, want)
		}
	}
}
