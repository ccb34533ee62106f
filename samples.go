package pskdemod

import "unsafe"

// Interleave reinterprets a []complex64 as a []float32 of twice the length,
// real and imaginary parts interleaved, with zero copying. complex64 is laid
// out by the compiler as two adjacent float32s (spec.md §9's design note,
// restated in SPEC_FULL.md §3), so this is a pure reinterpret cast of the
// existing backing array, grounded in the same fast-path cast
// x/math/mat.Mat.Raw() uses to reinterpret a contiguous [][]float32 as a
// flat []float32.
func Interleave(samples []complex64) []float32 {
	if len(samples) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&samples[0])), len(samples)*2)
}

// Deinterleave is Interleave's inverse: it reinterprets a []float32 of even
// length as a []complex64 half as long, with zero copying. It panics on an
// odd-length input, since no complex64 value could represent the trailing
// float32.
func Deinterleave(iq []float32) []complex64 {
	if len(iq) == 0 {
		return nil
	}
	if len(iq)%2 != 0 {
		panic("pskdemod: Deinterleave requires an even-length slice")
	}
	return unsafe.Slice((*complex64)(unsafe.Pointer(&iq[0])), len(iq)/2)
}
