// Package bitmap implements the per-constellation Gray-adjacent mapping
// from a corrected complex soft-decision symbol to its constituent bits,
// emitted least-significant-bit first.
package bitmap

import "github.com/chewxy/math32"

// Map returns the bits for one corrected symbol under constellation size m
// (2, 4, or 8), LSB first. ok is false for any other m, in which case bits
// is nil and the caller must skip the bits port entirely for that symbol
// (spec.md §4.4, §9 — unsupported M divides bitsPerBaud by zero downstream
// if not guarded).
func Map(m int, symbol complex64) (bits []int, ok bool) {
	switch m {
	case 2:
		return []int{b2i(real(symbol) < 0)}, true
	case 4:
		// Caller is expected to have already rotated the symbol so the
		// constellation sits at (+/-1, +/-j) rather than on the axes.
		r := real(symbol) > 0
		i := imag(symbol) > 0
		return []int{b2i(r != i), b2i(!i)}, true
	case 8:
		return map8(symbol), true
	default:
		return nil, false
	}
}

// BitsPerBaud returns log2(m) for supported constellation sizes, or 0 for
// anything else.
func BitsPerBaud(m int) int {
	switch m {
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	default:
		return 0
	}
}

func map8(symbol complex64) []int {
	theta := math32.Atan2(imag(symbol), real(symbol)) // (-pi, pi]
	soft := theta / math32.Pi * 4                      // (-4, 4]
	if soft < -0.5 {
		soft += 8 // wrap the negative lobe onto the positive end: (-0.5, 7.5]
	}
	n := int(math32.Round(soft)) & 0x7 // 8 and 0 alias to the same 3 bits

	return []int{n & 1, (n >> 1) & 1, (n >> 2) & 1}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
